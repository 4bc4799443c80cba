// Package repoerr is the storage error taxonomy. Repositories translate
// driver errors into these kinds at their boundary so use cases never see
// driver types.
package repoerr

import (
	"errors"
	"fmt"
)

// Kind classifies a storage failure.
type Kind int

const (
	QueryFailure Kind = iota
	DuplicateEntry
	EntityNotFound
	ConnectionFailure
)

func (k Kind) String() string {
	switch k {
	case DuplicateEntry:
		return "duplicate entry"
	case EntityNotFound:
		return "entity not found"
	case ConnectionFailure:
		return "connection failure"
	default:
		return "query failure"
	}
}

// Error is a classified storage failure. Op names the repository operation,
// e.g. "users.create".
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err carries a storage error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
