package services

import (
	"context"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/golang-jwt/jwt/v5"
)

// LoginInput is the login request.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token string             `json:"token"`
	User  *models.PublicUser `json:"user"`
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(claims auth.Claims) (string, error)
}

// dummyHasher is implemented by hashers that can supply a throwaway hash
// for unknown accounts.
type dummyHasher interface {
	DummyHash() (string, error)
}

// LoginUser authenticates credentials and issues session tokens.
type LoginUser struct {
	users  users.Repository
	hasher auth.Hasher
	issuer TokenIssuer
	logger logging.Logger
}

func NewLoginUser(repo users.Repository, hasher auth.Hasher, issuer TokenIssuer, logger logging.Logger) *LoginUser {
	return &LoginUser{
		users:  repo,
		hasher: hasher,
		issuer: issuer,
		logger: logger.With("module", "login_user"),
	}
}

// Execute checks in against the stored hash and returns a token plus the
// sanitized user. Unknown email and wrong password are indistinguishable.
func (uc *LoginUser) Execute(ctx context.Context, in *LoginInput) (*LoginResult, error) {
	if in == nil {
		return nil, common.Validation("Invalid login data provided")
	}
	if in.Email == "" {
		return nil, common.Validation("Email is required")
	}
	if in.Password == "" {
		return nil, common.Validation("Password is required")
	}

	email := NormalizeEmail(in.Email)
	if !emailPattern.MatchString(email) {
		return nil, common.Validation("Invalid email format")
	}
	if utf8.RuneCountInString(in.Password) < loginPasswordMinLen {
		return nil, common.Validation("Password must be at least 6 characters long")
	}

	user, err := uc.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, common.Internal(err)
	}

	if user == nil {
		uc.burnDummyVerify(ctx, in.Password)
		uc.logger.Info(ctx, "login rejected", "reason", "unknown_email")
		return nil, common.Authentication("Invalid credentials")
	}

	ok, err := uc.hasher.Verify(ctx, in.Password, user.HashedPassword)
	if err != nil {
		return nil, common.Internal(err)
	}
	if !ok {
		uc.logger.Info(ctx, "login rejected", "reason", "wrong_password", "user_id", user.ID)
		return nil, common.Authentication("Invalid credentials")
	}

	token, err := uc.issuer.Issue(auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.ID},
		Email:            user.Email,
		Role:             user.Role,
	})
	if err != nil {
		logging.LogError(ctx, uc.logger, "token generation failed", err, "user_id", user.ID)
		return nil, &common.Error{
			Kind:    common.KindAuthentication,
			Message: "Failed to generate authentication token",
			Err:     err,
		}
	}

	uc.logger.Info(ctx, "user logged in", "user_id", user.ID)

	return &LoginResult{Token: token, User: user.Public()}, nil
}

func (uc *LoginUser) burnDummyVerify(ctx context.Context, password string) {
	dh, ok := uc.hasher.(dummyHasher)
	if !ok {
		return
	}
	hash, err := dh.DummyHash()
	if err != nil {
		return
	}
	_, _ = uc.hasher.Verify(ctx, password, hash)
}
