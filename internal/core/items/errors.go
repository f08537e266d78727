package items

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an item doesn't exist or belongs to a
	// different owner (not distinguished, to avoid leaking existence).
	ErrNotFound = errors.New("item not found")

	// ErrNoURL is returned when enrichment is requested for an item that
	// has no link.
	ErrNoURL = errors.New("item has no URL to enrich")
)

// ValidationError represents a validation error with field context.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error (%s): %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError checks if error is a validation error.
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}
