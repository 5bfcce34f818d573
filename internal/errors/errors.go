package errors

import (
	"errors"
	"fmt"
)

// Custom error types for the URL shortener application.
// Handlers match these with errors.Is to pick the HTTP status code.

// ErrLinkNotFound is returned when a short code doesn't exist in the database
var ErrLinkNotFound = errors.New("short code not found")

// ErrInvalidURL is returned when the provided URL is missing or does not
// start with http:// or https://
var ErrInvalidURL = errors.New("URL must start with http:// or https://")

// ErrInvalidCustomCode is returned when a requested custom code is not
// 1-32 alphanumeric characters
var ErrInvalidCustomCode = errors.New("custom code must be 1-32 alphanumeric characters")

// ErrCodeTaken is returned when a requested custom code already maps to a link
var ErrCodeTaken = errors.New("custom code already taken")

// ErrLinkExpired is returned when a link's expiration date is in the past
var ErrLinkExpired = errors.New("link has expired")

// ErrCodeGenerationExhausted is returned when we can't generate a unique
// short code within the configured number of attempts
var ErrCodeGenerationExhausted = errors.New("failed to generate unique short code")

// StoreError wraps a failure of the underlying link store (unreachable
// backend, failed query, timed-out call). The cause is preserved for
// diagnostics but never leaked to HTTP clients.
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("link store %s failed: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// NewStoreError wraps cause in a StoreError for the given operation.
func NewStoreError(op string, cause error) *StoreError {
	return &StoreError{Op: op, Cause: cause}
}
