package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

const (
	nameMinLen = 3
	nameMaxLen = 50

	passwordMinLen      = 8
	loginPasswordMinLen = 6

	// bcrypt ignores everything past 72 bytes.
	passwordMaxBytes = 72

	passwordSymbols = `!@#$%^&*(),.?":{}|<>`
)

var (
	namePattern  = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// NormalizeEmail trims surrounding whitespace and lowercases the address.
// Every lookup and every stored email goes through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateName(name string) error {
	if name == "" {
		return common.Validation("Name is required")
	}
	if n := utf8.RuneCountInString(name); n < nameMinLen || n > nameMaxLen {
		return common.Validation("Name must be between 3 and 50 characters")
	}
	if !namePattern.MatchString(name) {
		return common.Validation("Name can only contain letters, numbers, and underscores")
	}
	return nil
}

// validateEmail expects an already normalized address.
func validateEmail(email string) error {
	if email == "" {
		return common.Validation("Email is required")
	}
	if !emailPattern.MatchString(email) {
		return common.Validation("Invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return common.Validation("Password is required")
	}
	if utf8.RuneCountInString(password) < passwordMinLen {
		return common.Validation("Password must be at least 8 characters long")
	}
	if len(password) > passwordMaxBytes {
		return common.Validation("Password must be at most 72 bytes long")
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	if !upper || !lower || !digit || !symbol {
		return common.Validation("Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character")
	}
	return nil
}

func validateConfirmation(password, confirm string) error {
	if confirm == "" || confirm != password {
		return common.Validation("Passwords do not match")
	}
	return nil
}
