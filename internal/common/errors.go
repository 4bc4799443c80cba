// Package common defines shared constants and the domain error taxonomy used
// across the server and client layers of gophauth. Use errors.As / KindOf to
// classify errors; never compare messages.
package common

import "errors"

// Kind classifies a domain error. Transports map a Kind to a status code
// with a plain switch.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
)

// String returns the wire name of the kind, e.g. "ValidationError".
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindAuthentication:
		return "AuthenticationError"
	case KindAuthorization:
		return "AuthorizationError"
	case KindNotFound:
		return "NotFoundError"
	case KindConflict:
		return "ConflictError"
	default:
		return "InternalServerError"
	}
}

// KindFromString is the inverse of Kind.String. Unknown names map to
// KindInternal.
func KindFromString(s string) Kind {
	switch s {
	case "ValidationError":
		return KindValidation
	case "AuthenticationError":
		return KindAuthentication
	case "AuthorizationError":
		return KindAuthorization
	case "NotFoundError":
		return KindNotFound
	case "ConflictError":
		return KindConflict
	default:
		return KindInternal
	}
}

// Error is a classified domain error. Message is safe to show to callers;
// Err is the optional underlying cause and is never serialized.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

func Authentication(msg string) *Error { return &Error{Kind: KindAuthentication, Message: msg} }

func Authorization(msg string) *Error { return &Error{Kind: KindAuthorization, Message: msg} }

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

// Internal wraps an unexpected failure. The message shown to callers is
// always the generic one; err is kept for logs.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-safe message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "Internal server error"
}

var (
	// ErrInvalidToken is returned for malformed tokens or bad signatures.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned for well-formed tokens past their exp.
	ErrTokenExpired = errors.New("token expired")
)
