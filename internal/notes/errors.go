package notes

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError through errors.Is.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound reports an id that does not exist for the requesting owner.
	ErrNotFound = errors.New("note not found")
)

// ValidationError describes user input that cannot be turned into a note.
type ValidationError struct {
	Field  string
	Reason string
}

// Invalid builds a *ValidationError for field.
func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
