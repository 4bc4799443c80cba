// Package users contains the user store: one interface and the MongoDB,
// PostgreSQL and in-memory implementations. Every implementation returns
// repoerr kinds, never driver errors.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	// Create persists user and returns it with ID and CreatedAt set by the
	// store. A second user with the same email yields repoerr.DuplicateEntry.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// FindByEmail looks a user up by normalized email. Absence is (nil, nil).
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByID looks a user up by id. Absence is repoerr.EntityNotFound.
	FindByID(ctx context.Context, id string) (*models.User, error)
}
