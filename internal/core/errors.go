package core

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is against these to classify a failure.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
)

// Validation rules. A ValidationError wraps exactly one of these.
var (
	ErrInvalidDate   = errors.New("must be a calendar date in YYYY-MM-DD form")
	ErrInvalidType   = errors.New("must be one of income, expense")
	ErrEmptyCategory = errors.New("must not be empty")
	ErrInvalidAmount = errors.New("must be a positive number")
	ErrInvalidMonth  = errors.New("must be in YYYY-MM form")
	ErrInvalidLimit  = errors.New("must be greater than zero")
	ErrDuplicateID   = errors.New("already exists")
	ErrEmptyID       = errors.New("must not be empty")
)

// ValidationError reports which field broke which rule.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

// Unwrap exposes both the kind and the rule to errors.Is.
func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

// NotFoundError is returned when an id does not exist in the ledger.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return "transaction not found: " + e.ID
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func invalid(field string, rule error) error {
	return &ValidationError{Field: field, Err: rule}
}
