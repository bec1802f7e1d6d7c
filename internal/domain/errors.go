// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidStatus is returned when a status value is not one of the
	// defined task or sprint statuses.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidPriority is returned when a priority value is not valid.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrInvalidTimeRange is returned when a date range is ordered
	// incorrectly or starts too far in the past.
	ErrInvalidTimeRange = errors.New("invalid time range")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)

// ValidationError wraps a sentinel error with the field that failed and a
// human-readable reason, so callers can both match with errors.Is and show
// a useful message.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return "validation failed for " + e.Field + ": " + e.Message
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}
