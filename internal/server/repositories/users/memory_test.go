package users

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repoerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory_CreateAndFind(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, newAlice())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	byEmail, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, created, byEmail)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, byID)
}

func TestInMemory_Absent(t *testing.T) {
	repo := NewInMemoryRepository()

	u, err := repo.FindByEmail(context.Background(), "ghost@example.com")
	assert.NoError(t, err)
	assert.Nil(t, u)

	_, err = repo.FindByID(context.Background(), someUUID)
	assert.True(t, repoerr.Is(err, repoerr.EntityNotFound), "err=%v", err)
}

func TestInMemory_FindByIDMalformed(t *testing.T) {
	repo := NewInMemoryRepository()

	_, err := repo.FindByID(context.Background(), "not-a-uuid")
	assert.True(t, repoerr.Is(err, repoerr.QueryFailure), "err=%v", err)
	assert.False(t, repoerr.Is(err, repoerr.EntityNotFound))
}

func TestInMemory_ReturnsCopies(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, newAlice())
	require.NoError(t, err)
	created.Name = "mallory"

	again, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", again.Name)
}

func TestInMemory_CancelledContext(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Create(ctx, newAlice())
	assert.True(t, repoerr.Is(err, repoerr.ConnectionFailure))
}

func TestInMemory_ConcurrentCreateSameEmail(t *testing.T) {
	repo := NewInMemoryRepository()

	const n = 16
	var wg sync.WaitGroup
	var ok, dup atomic.Int32

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Create(context.Background(), &models.User{
				Name:  fmt.Sprintf("user_%d", i),
				Email: "race@example.com",
			})
			switch {
			case err == nil:
				ok.Add(1)
			case repoerr.Is(err, repoerr.DuplicateEntry):
				dup.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, n-1, dup.Load())
}
