package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource (unknown feed, unknown icon).
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest signals a request missing required feed fields.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrForbidden signals a failed nonce verification.
	ErrForbidden = errors.New("forbidden")
	// ErrSessionNotFound signals that a feed session has no stored state.
	ErrSessionNotFound = errors.New("session not found")
	// ErrPersistFailure signals that a feed session could not be written.
	ErrPersistFailure = errors.New("session persist failure")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)

// FieldError wraps ErrInvalidRequest with the offending field name.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s is required", ErrInvalidRequest.Error(), e.Field)
}

func (e *FieldError) Unwrap() error { return ErrInvalidRequest }

// NewFieldError creates an invalid request error for a missing field.
func NewFieldError(field string) error {
	return &FieldError{Field: field}
}
