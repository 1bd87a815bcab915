package core

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the sentinel every ValidationError unwraps to.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned by the user registry for unknown ids. The ledger
	// itself never returns it.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports an input that violates a stated constraint.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a ValidationError for ad-hoc constraints.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
