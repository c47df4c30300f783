// Package service provides the application-level task service: validation,
// business rules, and orchestration over the repository contracts.
package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in service-specific error types
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate protocol responses
var (
	// ErrTaskNotFound indicates the requested task does not exist or is not
	// visible to the calling owner. The two cases are deliberately
	// indistinguishable so existence never leaks across owners.
	// API layer should map this to HTTP 404 Not Found.
	ErrTaskNotFound = errors.New("task not found")

	// ErrOwnerNotFound indicates the owner a task was to be created for
	// does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrOwnerNotFound = errors.New("owner not found")

	// ErrRuleViolation is the class for business constraints beyond
	// field-level validation. Specific rules wrap it.
	// API layer should map this to HTTP 409 Conflict.
	ErrRuleViolation = errors.New("business rule violated")

	// ErrTaskLimitReached indicates the owner already holds the maximum
	// number of open tasks.
	ErrTaskLimitReached = fmt.Errorf("%w: open task limit reached", ErrRuleViolation)

	// ErrCompletedDueDateLocked indicates an attempt to change the due date
	// of a task that is already completed.
	ErrCompletedDueDateLocked = fmt.Errorf("%w: due date of a completed task cannot be changed", ErrRuleViolation)
)

// TaskServiceError is a custom error type for task service errors.
type TaskServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
func NewTaskServiceError(operation, message string, err error) *TaskServiceError {
	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
