package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates input rejected before any network call
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates missing or invalid authentication
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict indicates the request cannot run in the current state
	ErrConflict = errors.New("conflict")

	// ErrUnavailable indicates an upstream dependency is not reachable
	ErrUnavailable = errors.New("unavailable")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")
)

// NotFoundError creates a not found error with context
func NotFoundError(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// InvalidInputError creates an invalid input error carrying a user-facing reason.
// Error() returns the reason alone so it can be shown verbatim.
func InvalidInputError(field, reason string) error {
	return &inputError{field: field, reason: reason}
}

// ConflictError creates a conflict error with context
func ConflictError(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrConflict)
}

// UnavailableError creates an unavailable error for the named dependency
func UnavailableError(dependency string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", dependency, ErrUnavailable)
	}
	return fmt.Errorf("%s: %w: %v", dependency, ErrUnavailable, cause)
}

// InternalError creates an internal error with context
func InternalError(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrInternal)
}

// Field returns the offending field of an invalid input error, or "".
func Field(err error) string {
	var ie *inputError
	if errors.As(err, &ie) {
		return ie.field
	}
	return ""
}

type inputError struct {
	field  string
	reason string
}

func (e *inputError) Error() string { return e.reason }

func (e *inputError) Unwrap() error { return ErrInvalidInput }
