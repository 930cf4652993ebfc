// Package types defines error types
package types

import (
	"errors"
	"fmt"
)

// Predefined errors
var (
	// ErrTimeout indicates operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrNilTaskBody indicates a task was built without a body
	ErrNilTaskBody = errors.New("task has no body")

	// ErrTaskPanic indicates a task body panicked
	ErrTaskPanic = errors.New("task panicked")

	// ErrInvalidConfig indicates an invalid worker configuration
	ErrInvalidConfig = errors.New("invalid configuration")
)

// TaskError represents a failure raised while running a task
type TaskError struct {
	// Operation is the name of the operation where the error occurred
	Operation string

	// TaskID identifies the failing task
	TaskID string

	// Cause is the underlying error
	Cause error

	// Context contains error context information
	Context map[string]interface{}
}

// Error implements the error interface
func (e *TaskError) Error() string {
	if e.TaskID == "" {
		return fmt.Sprintf("task error in operation %s: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("task %s error in operation %s: %v", e.TaskID, e.Operation, e.Cause)
}

// Unwrap returns the underlying error
func (e *TaskError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is a specific error
func (e *TaskError) Is(target error) bool {
	return errors.Is(e.Cause, target)
}

// NewTaskError creates a new task error
func NewTaskError(operation, taskID string, cause error) *TaskError {
	return &TaskError{
		Operation: operation,
		TaskID:    taskID,
		Cause:     cause,
		Context:   make(map[string]interface{}),
	}
}

// WithContext adds error context
func (e *TaskError) WithContext(key string, value interface{}) *TaskError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// PanicError converts a recovered panic value into an error.
// Errors are wrapped so errors.Is matches both ErrTaskPanic and the original value.
func PanicError(r interface{}) error {
	switch v := r.(type) {
	case nil:
		return nil
	case error:
		return fmt.Errorf("%w: %w", ErrTaskPanic, v)
	case string:
		return fmt.Errorf("%w: %s", ErrTaskPanic, v)
	default:
		return fmt.Errorf("%w: %v", ErrTaskPanic, v)
	}
}
