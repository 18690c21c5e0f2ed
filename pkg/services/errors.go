// Package services provides the business operations behind the HTTP surface.
package services

import (
	"errors"
	"fmt"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest        = errors.New("invalid request")
	ErrEventNameRequired     = errors.New("trigger event name is required")
	ErrWorkflowNameRequired  = errors.New("workflow name is required")
	ErrTriggerEventRequired  = errors.New("workflow trigger event is required")
	ErrDuplicateStepOrder    = errors.New("workflow steps must have unique order values")
	ErrUnknownActionType     = errors.New("unknown step action type")
	ErrInvalidActionConfig   = errors.New("invalid step action configuration")
	ErrUserIDRequired        = errors.New("user ID is required")
	ErrPointsRequired        = errors.New("points awarded must be non-zero")
	ErrInvalidPeriod         = errors.New("invalid year/month period")
	ErrEntryAlreadyReversed  = errors.New("ledger entry is already reversed")
	ErrCannotReverseReversal = errors.New("cannot reverse a reversal entry")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrEventNameRequired) ||
		errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrTriggerEventRequired) ||
		errors.Is(err, ErrDuplicateStepOrder) ||
		errors.Is(err, ErrUnknownActionType) ||
		errors.Is(err, ErrInvalidActionConfig) ||
		errors.Is(err, ErrUserIDRequired) ||
		errors.Is(err, ErrPointsRequired) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrEntryAlreadyReversed) ||
		errors.Is(err, ErrCannotReverseReversal)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
