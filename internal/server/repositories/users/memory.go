package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repoerr"
	"github.com/google/uuid"
)

// InMemoryRepository keeps users in process memory. Email uniqueness is
// enforced under the same lock as the insert.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]*models.User
	byID    map[string]*models.User
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byEmail: make(map[string]*models.User),
		byID:    make(map[string]*models.User),
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, repoerr.New(repoerr.ConnectionFailure, "users.create", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return nil, repoerr.New(repoerr.DuplicateEntry, "users.create", nil)
	}

	stored := *user
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC()

	r.byEmail[stored.Email] = &stored
	r.byID[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (r *InMemoryRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, repoerr.New(repoerr.ConnectionFailure, "users.find_by_email", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (r *InMemoryRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, repoerr.New(repoerr.ConnectionFailure, "users.find_by_id", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, repoerr.New(repoerr.QueryFailure, "users.find_by_id", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, repoerr.New(repoerr.EntityNotFound, "users.find_by_id", nil)
	}
	out := *u
	return &out, nil
}
