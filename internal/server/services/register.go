// Package services contains the server-side use cases: user registration
// and login. They validate input, talk to the user store through
// users.Repository and return *common.Error values that transports map to
// status codes.
package services

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repoerr"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// RegisterInput is the registration request.
type RegisterInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// RegisterUser creates accounts.
type RegisterUser struct {
	users  users.Repository
	hasher auth.Hasher
	logger logging.Logger
}

func NewRegisterUser(repo users.Repository, hasher auth.Hasher, logger logging.Logger) *RegisterUser {
	return &RegisterUser{
		users:  repo,
		hasher: hasher,
		logger: logger.With("module", "register_user"),
	}
}

// Execute validates in, rejects taken emails, hashes the password and
// stores the user. The first failing rule wins.
func (uc *RegisterUser) Execute(ctx context.Context, in *RegisterInput) (*models.PublicUser, error) {
	if in == nil {
		return nil, common.Validation("Invalid user data provided")
	}

	email := NormalizeEmail(in.Email)

	if err := validateName(in.Name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	if err := validateConfirmation(in.Password, in.ConfirmPassword); err != nil {
		return nil, err
	}

	// Fast path only; the unique index is the authority.
	existing, err := uc.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, common.Internal(err)
	}
	if existing != nil {
		return nil, common.Conflict("Email already exists")
	}

	hashed, err := uc.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, common.Internal(err)
	}

	created, err := uc.users.Create(ctx, &models.User{
		Name:           in.Name,
		Email:          email,
		HashedPassword: hashed,
		Role:           common.DefaultRole,
	})
	if err != nil {
		if repoerr.Is(err, repoerr.DuplicateEntry) {
			return nil, common.Conflict("User already exists")
		}
		return nil, common.Internal(err)
	}

	uc.logger.Info(ctx, "user registered", "user_id", created.ID)

	return created.Public(), nil
}
