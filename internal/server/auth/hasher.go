package auth

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// ErrMalformedHash is returned by Verify when the stored hash is not a
// bcrypt hash.
var ErrMalformedHash = errors.New("malformed password hash")

// Hasher hashes and verifies passwords.
type Hasher interface {
	// Hash returns a salted one-way hash of plaintext.
	Hash(ctx context.Context, plaintext string) (string, error)

	// Verify returns (true, nil) on match, (false, nil) on mismatch and an
	// error when hash is malformed or ctx is done.
	Verify(ctx context.Context, plaintext, hash string) (bool, error)
}

// BcryptHasher implements Hasher with bcrypt. Concurrent hash computations
// are bounded by a weighted semaphore so a burst of logins cannot starve the
// CPU.
type BcryptHasher struct {
	cost int
	sem  *semaphore.Weighted

	dummyOnce sync.Once
	dummy     string
	dummyErr  error
}

// NewBcryptHasher returns a hasher with the given cost. At most
// GOMAXPROCS hashes run at once.
func NewBcryptHasher(cost int) *BcryptHasher {
	return NewBcryptHasherWithLimit(cost, int64(runtime.GOMAXPROCS(0)))
}

// NewBcryptHasherWithLimit is NewBcryptHasher with an explicit concurrency
// limit.
func NewBcryptHasherWithLimit(cost int, limit int64) *BcryptHasher {
	if limit < 1 {
		limit = 1
	}
	return &BcryptHasher{cost: cost, sem: semaphore.NewWeighted(limit)}
}

func (h *BcryptHasher) acquire(ctx context.Context) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return oops.Code("HASHER_CANCELLED").Wrap(err)
	}
	return nil
}

// Hash produces a bcrypt hash of plaintext.
func (h *BcryptHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.acquire(ctx); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", oops.Code("HASHER_FAILED").With("cost", h.cost).Wrap(err)
	}
	return string(b), nil
}

// Verify checks plaintext against a bcrypt hash.
func (h *BcryptHasher) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	if err := h.acquire(ctx); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, oops.Code("HASHER_INVALID_HASH").Wrap(errors.Join(ErrMalformedHash, err))
	}
}

// DummyHash returns a valid hash of a random-looking constant at the
// hasher's cost. Login verifies against it when the email is unknown so both
// branches spend the same time.
func (h *BcryptHasher) DummyHash() (string, error) {
	h.dummyOnce.Do(func() {
		var b []byte
		b, h.dummyErr = bcrypt.GenerateFromPassword([]byte("gophauth-dummy-password"), h.cost)
		h.dummy = string(b)
	})
	return h.dummy, h.dummyErr
}
