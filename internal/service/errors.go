package service

import (
	"errors"
	"fmt"
)

// Service-level sentinel errors. The API layer maps them to status codes.
var (
	// ErrNotOwned indicates a resource is owned by a different user than the one making the request.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrNotEditable indicates the quiz is not in a state whose draft can change,
	// either because generation has not finished or because it was archived.
	ErrNotEditable = errors.New("quiz draft cannot be edited in its current state")

	// ErrNotRegenerable indicates a rebuild was requested for a quiz without a
	// finished draft or without a persisted architecture.
	ErrNotRegenerable = errors.New("quiz cannot be regenerated in its current state")
)

// ServiceError wraps an unexpected failure with the operation that hit it.
type ServiceError struct {
	Service   string
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError wraps err. Service sentinels are returned unwrapped so
// that callers can compare them directly.
func NewServiceError(service, operation, message string, err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{ErrNotOwned, ErrNotEditable, ErrNotRegenerable} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
