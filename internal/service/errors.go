package service

import (
	"errors"
	"fmt"
)

// Common sentinel errors for the service layer
var (
	// ErrNotAuthorized indicates the user is not in the allowlist.
	ErrNotAuthorized = errors.New("user not authorized")

	// ErrNoActiveTask indicates a cancellation for a chat with no live task.
	ErrNoActiveTask = errors.New("no active task for chat")
)

// ServiceError wraps errors from the service layer with context.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "request_generation")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// newServiceError wraps err with operation context. Service-level
// sentinel errors pass through unwrapped so callers can match them.
func newServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrNotAuthorized) || errors.Is(err, ErrNoActiveTask) {
		return err
	}

	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
