package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity or operation fails validation.
	// It is usually wrapped by a ValidationError naming the offending field.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or missing.
	ErrInvalidID = fmt.Errorf("%w: invalid ID", ErrValidation)

	// ErrUnauthorized is returned when an operation is not permitted for the caller.
	ErrUnauthorized = errors.New("unauthorized operation")

	// ErrIllegalTransition is returned when a status change does not follow
	// the quiz lifecycle.
	ErrIllegalTransition = fmt.Errorf("%w: illegal status transition", ErrValidation)

	// ErrArchitectureMissing is returned when building is entered before the
	// architecture text has been persisted.
	ErrArchitectureMissing = fmt.Errorf("%w: architecture not persisted", ErrValidation)

	// ErrDraftMissing is returned when a draft state is entered without any draft row.
	ErrDraftMissing = fmt.Errorf("%w: no draft exists", ErrValidation)

	// ErrDuplicateID is returned when a draft contains duplicate question or option ids.
	ErrDuplicateID = fmt.Errorf("%w: duplicate id", ErrValidation)

	// ErrOptionLimit is returned when an operation would exceed the option bounds
	// of a question type.
	ErrOptionLimit = fmt.Errorf("%w: option limit reached", ErrValidation)

	// ErrQuestionNotFound is returned when a patch or edit targets a question
	// that is not part of the draft.
	ErrQuestionNotFound = errors.New("question not found")

	// ErrOptionNotFound is returned when a patch or edit targets an option
	// that is not part of the question.
	ErrOptionNotFound = errors.New("option not found")
)

// ValidationError describes a validation failure for a single field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a ValidationError wrapping err.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Field, e.Message, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is, or wraps, a validation failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}
