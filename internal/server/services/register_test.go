package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repoerr"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func validRegisterInput() *RegisterInput {
	return &RegisterInput{
		Name:            "john_doe",
		Email:           "John@Example.com",
		Password:        "Passw0rd!",
		ConfirmPassword: "Passw0rd!",
	}
}

func TestRegister_Success(t *testing.T) {
	repo := &fakeUsersRepo{}
	hasher := &fakeHasher{hashOut: "$2a$10$hash"}
	uc := NewRegisterUser(repo, hasher, logging.Nop())

	got, err := uc.Execute(context.Background(), validRegisterInput())
	require.NoError(t, err)

	assert.Equal(t, "generated-id", got.ID)
	assert.Equal(t, "john_doe", got.Name)
	assert.Equal(t, "john@example.com", got.Email)
	assert.Equal(t, "user", got.Role)

	require.Len(t, repo.created, 1)
	stored := repo.created[0]
	assert.Equal(t, "john@example.com", stored.Email)
	assert.Equal(t, "$2a$10$hash", stored.HashedPassword)
	assert.Equal(t, common.DefaultRole, stored.Role)
	assert.Empty(t, stored.ID, "id is assigned by the store")

	assert.Equal(t, []string{"john@example.com"}, repo.findEmails)
	assert.Equal(t, []string{"Passw0rd!"}, hasher.hashed)
}

func TestRegister_ValidationOrder(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *RegisterInput)
		want   string
	}{
		{"name first", func(in *RegisterInput) { in.Name = ""; in.Email = "bad"; in.Password = "" }, "Name is required"},
		{"then email", func(in *RegisterInput) { in.Email = "bad"; in.Password = "" }, "Invalid email format"},
		{"blank email", func(in *RegisterInput) { in.Email = "   " }, "Email is required"},
		{"then password", func(in *RegisterInput) { in.Password = "short"; in.ConfirmPassword = "x" }, "Password must be at least 8 characters long"},
		{"then confirm", func(in *RegisterInput) { in.ConfirmPassword = "Passw0rd?" }, "Passwords do not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{}
			hasher := &fakeHasher{}
			uc := NewRegisterUser(repo, hasher, logging.Nop())

			in := validRegisterInput()
			tt.mutate(in)

			_, err := uc.Execute(context.Background(), in)
			assertValidation(t, err, tt.want)

			assert.Empty(t, repo.findEmails, "no store access on validation failure")
			assert.Empty(t, hasher.hashed, "no hashing on validation failure")
		})
	}
}

func TestRegister_NilInput(t *testing.T) {
	uc := NewRegisterUser(&fakeUsersRepo{}, &fakeHasher{}, logging.Nop())

	_, err := uc.Execute(context.Background(), nil)
	assertValidation(t, err, "Invalid user data provided")
}

func TestRegister_EmailAlreadyExists(t *testing.T) {
	repo := &fakeUsersRepo{findOut: &models.User{ID: "u-1", Email: "john@example.com"}}
	hasher := &fakeHasher{}
	uc := NewRegisterUser(repo, hasher, logging.Nop())

	_, err := uc.Execute(context.Background(), validRegisterInput())

	assert.Equal(t, common.KindConflict, common.KindOf(err))
	assert.Equal(t, "Email already exists", common.MessageOf(err))
	assert.Zero(t, repo.createCalls)
	assert.Empty(t, hasher.hashed)
}

func TestRegister_DuplicateRaceIsConflict(t *testing.T) {
	repo := &fakeUsersRepo{createErr: repoerr.New(repoerr.DuplicateEntry, "users.create", errors.New("E11000"))}
	uc := NewRegisterUser(repo, &fakeHasher{}, logging.Nop())

	_, err := uc.Execute(context.Background(), validRegisterInput())

	assert.Equal(t, common.KindConflict, common.KindOf(err))
	assert.Equal(t, "User already exists", common.MessageOf(err))
}

func TestRegister_InfrastructureFailuresAreInternal(t *testing.T) {
	tests := []struct {
		name   string
		repo   *fakeUsersRepo
		hasher *fakeHasher
	}{
		{"lookup fails", &fakeUsersRepo{findErr: repoerr.New(repoerr.ConnectionFailure, "users.find_by_email", nil)}, &fakeHasher{}},
		{"hash fails", &fakeUsersRepo{}, &fakeHasher{hashErr: errors.New("cancelled")}},
		{"create fails", &fakeUsersRepo{createErr: repoerr.New(repoerr.QueryFailure, "users.create", nil)}, &fakeHasher{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewRegisterUser(tt.repo, tt.hasher, logging.Nop())

			_, err := uc.Execute(context.Background(), validRegisterInput())

			require.Error(t, err)
			assert.Equal(t, common.KindInternal, common.KindOf(err))
			assert.Equal(t, "Internal server error", common.MessageOf(err))
		})
	}
}

func TestRegister_WithBcryptAndMemoryStore(t *testing.T) {
	repo := users.NewInMemoryRepository()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	uc := NewRegisterUser(repo, hasher, logging.Nop())
	ctx := context.Background()

	got, err := uc.Execute(ctx, validRegisterInput())
	require.NoError(t, err)

	stored, err := repo.FindByID(ctx, got.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "Passw0rd!", stored.HashedPassword)

	ok, err := hasher.Verify(ctx, "Passw0rd!", stored.HashedPassword)
	require.NoError(t, err)
	assert.True(t, ok)

	// Same address with different case and padding.
	in := validRegisterInput()
	in.Name = "john_again"
	in.Email = "  JOHN@example.COM "
	_, err = uc.Execute(ctx, in)
	assert.Equal(t, common.KindConflict, common.KindOf(err))
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	repo := users.NewInMemoryRepository()
	uc := NewRegisterUser(repo, auth.NewBcryptHasher(bcrypt.MinCost), logging.Nop())

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Execute(context.Background(), validRegisterInput())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var okCount, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			okCount++
		case common.KindOf(err) == common.KindConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, okCount)
	assert.Equal(t, n-1, conflicts)
}
