// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrStepNotFound indicates a workflow step was not found by the given identifier.
	ErrStepNotFound = errors.New("workflow step not found")

	// ErrLedgerEntryNotFound indicates a ledger entry was not found by the given identifier.
	ErrLedgerEntryNotFound = errors.New("ledger entry not found")

	// ErrUserNotFound indicates a user was not found by the given identifier.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateStepOrder indicates two steps of one workflow share the same order value.
	ErrDuplicateStepOrder = errors.New("duplicate step order")
)

// WorkflowError wraps workflow-related errors with additional context.
type WorkflowError struct {
	Op         string // Operation being performed (e.g., "Save", "Delete")
	WorkflowID string
	Err        error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s operation failed for workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewWorkflowError creates a new workflow error with context.
func NewWorkflowError(op, workflowID string, err error) *WorkflowError {
	return &WorkflowError{
		Op:         op,
		WorkflowID: workflowID,
		Err:        err,
	}
}

// LedgerError wraps ledger-related errors with additional context.
type LedgerError struct {
	Op      string
	EntryID string
	Err     error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("%s operation failed for ledger entry %s: %v", e.Op, e.EntryID, e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

func (e *LedgerError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsLedgerEntryNotFound checks if an error indicates a ledger entry was not found.
func IsLedgerEntryNotFound(err error) bool {
	return errors.Is(err, ErrLedgerEntryNotFound)
}

// IsUserNotFound checks if an error indicates a user was not found.
func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

// IsNotFound checks if an error indicates any record was not found.
func IsNotFound(err error) bool {
	return IsWorkflowNotFound(err) ||
		IsLedgerEntryNotFound(err) ||
		IsUserNotFound(err) ||
		errors.Is(err, ErrStepNotFound)
}
