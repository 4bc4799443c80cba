package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// ---- fakes ----

type fakeUsersRepo struct {
	mu sync.Mutex

	findOut *models.User
	findErr error

	createOut *models.User
	createErr error

	created     []*models.User
	findEmails  []string
	createCalls int
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.created = append(f.created, u)
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	out := *u
	out.ID = "generated-id"
	return &out, nil
}

func (f *fakeUsersRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findEmails = append(f.findEmails, email)
	return f.findOut, f.findErr
}

func (f *fakeUsersRepo) FindByID(context.Context, string) (*models.User, error) {
	return nil, nil
}

type fakeHasher struct {
	hashOut string
	hashErr error

	verifyOK  bool
	verifyErr error

	hashed       []string
	verifiedWith []string
	dummy        string
}

func (f *fakeHasher) Hash(_ context.Context, plaintext string) (string, error) {
	f.hashed = append(f.hashed, plaintext)
	if f.hashErr != nil {
		return "", f.hashErr
	}
	if f.hashOut != "" {
		return f.hashOut, nil
	}
	return "hashed:" + plaintext, nil
}

func (f *fakeHasher) Verify(_ context.Context, _ string, hash string) (bool, error) {
	f.verifiedWith = append(f.verifiedWith, hash)
	return f.verifyOK, f.verifyErr
}

func (f *fakeHasher) DummyHash() (string, error) {
	if f.dummy == "" {
		return "dummy-hash", nil
	}
	return f.dummy, nil
}

type fakeIssuer struct {
	token string
	err   error
	got   []auth.Claims
}

func (f *fakeIssuer) Issue(c auth.Claims) (string, error) {
	f.got = append(f.got, c)
	return f.token, f.err
}
