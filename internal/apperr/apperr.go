// Package apperr holds the error values shared between the store, the
// services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden is returned when the caller may not act on a record.
	ErrForbidden = errors.New("action is unauthorized")
	// ErrUnauthenticated is returned when no valid credentials were given.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// DisplayError is a failure whose message is safe to show to the end user.
type DisplayError struct {
	Message string
}

func (e *DisplayError) Error() string {
	return e.Message
}

// Display creates a DisplayError from a format string.
func Display(format string, args ...any) error {
	return &DisplayError{Message: fmt.Sprintf(format, args...)}
}

// AsDisplay reports whether err carries a DisplayError and returns it.
func AsDisplay(err error) (*DisplayError, bool) {
	var de *DisplayError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
