package client

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// APIError represents a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Kind       common.Kind
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Kind, e.Message)
}

// IsKind reports whether err (or any wrapped error) is an APIError of kind.
func IsKind(err error, kind common.Kind) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}
