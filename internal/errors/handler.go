// Package errors provides task failure handling strategies for service threads
package errors

import (
	"context"
	"log/slog"
	"time"

	"github.com/jzx17/servicethread/internal/telemetry"
)

// ErrorHandler decides what a worker does after a task body fails
type ErrorHandler interface {
	// HandleError handles the error, returns nil if the worker should carry on as if nothing happened
	HandleError(ctx context.Context, errCtx *ErrorContext) error

	// Name returns the name of the error handler
	Name() string

	// Strategy tells the worker how to escalate when HandleError returns an error
	Strategy() ErrorHandlerStrategy
}

// ErrorContext defines context information when a task fails
type ErrorContext struct {
	// Error that occurred
	Error error

	// TaskID identifies the failing task
	TaskID string

	// WorkerName is the name of the worker that ran the task
	WorkerName string

	// Timestamp when the error occurred
	Timestamp time.Time

	// QueueLength is the number of tasks still waiting when the failure happened
	QueueLength int

	// Metadata contains additional metadata information
	Metadata map[string]interface{}
}

// NewErrorContext creates a new error context
func NewErrorContext(err error, taskID, workerName string) *ErrorContext {
	return &ErrorContext{
		Error:      err,
		TaskID:     taskID,
		WorkerName: workerName,
		Timestamp:  time.Now(),
		Metadata:   make(map[string]interface{}),
	}
}

// ErrorHandlerStrategy defines error handling strategy types
type ErrorHandlerStrategy int

const (
	// ContinueOnErrorStrategy keeps processing subsequent tasks
	ContinueOnErrorStrategy ErrorHandlerStrategy = iota
	// FailFastStrategy stops the worker immediately, discarding queued tasks
	FailFastStrategy
	// DrainOnErrorStrategy stops accepting tasks and finishes the queued ones
	DrainOnErrorStrategy
)

// String returns the string representation of the strategy
func (s ErrorHandlerStrategy) String() string {
	switch s {
	case ContinueOnErrorStrategy:
		return "ContinueOnError"
	case FailFastStrategy:
		return "FailFast"
	case DrainOnErrorStrategy:
		return "DrainOnError"
	default:
		return "Unknown"
	}
}

// FailFastHandler stops the worker on the first failure
type FailFastHandler struct {
	name   string
	logger *slog.Logger
}

// NewFailFastHandler creates a new fail-fast handler.
// With a nil logger records go to the logger carried by the HandleError context.
func NewFailFastHandler(logger *slog.Logger) *FailFastHandler {
	return &FailFastHandler{
		name:   "FailFast",
		logger: logger,
	}
}

// HandleError implements the ErrorHandler interface
func (h *FailFastHandler) HandleError(ctx context.Context, errCtx *ErrorContext) error {
	recordLogger(ctx, h.logger, errCtx).ErrorContext(ctx, "task failed, stopping worker",
		"discarded", errCtx.QueueLength,
		"error", errCtx.Error,
	)
	return errCtx.Error
}

// Name returns the handler name
func (h *FailFastHandler) Name() string {
	return h.name
}

// Strategy returns FailFastStrategy
func (h *FailFastHandler) Strategy() ErrorHandlerStrategy {
	return FailFastStrategy
}

// DrainOnErrorHandler lets queued work finish but refuses new work after a failure
type DrainOnErrorHandler struct {
	name   string
	logger *slog.Logger
}

// NewDrainOnErrorHandler creates a drain-on-error handler.
// With a nil logger records go to the logger carried by the HandleError context.
func NewDrainOnErrorHandler(logger *slog.Logger) *DrainOnErrorHandler {
	return &DrainOnErrorHandler{
		name:   "DrainOnError",
		logger: logger,
	}
}

// HandleError implements the ErrorHandler interface
func (h *DrainOnErrorHandler) HandleError(ctx context.Context, errCtx *ErrorContext) error {
	recordLogger(ctx, h.logger, errCtx).ErrorContext(ctx, "task failed, draining worker",
		"remaining", errCtx.QueueLength,
		"error", errCtx.Error,
	)
	return errCtx.Error
}

// Name returns the handler name
func (h *DrainOnErrorHandler) Name() string {
	return h.name
}

// Strategy returns DrainOnErrorStrategy
func (h *DrainOnErrorHandler) Strategy() ErrorHandlerStrategy {
	return DrainOnErrorStrategy
}

// ContinueOnErrorHandler logs failures and keeps the worker running
type ContinueOnErrorHandler struct {
	name      string
	logger    *slog.Logger
	logErrors bool
}

// ContinueOnErrorConfig contains configuration for continue-on-error handler
type ContinueOnErrorConfig struct {
	// Logger receives failure records; defaults to the logger carried by the HandleError context
	Logger *slog.Logger
	// LogErrors determines whether to log ignored errors
	LogErrors bool
}

// NewContinueOnErrorHandler creates a continue-on-error handler
func NewContinueOnErrorHandler(config *ContinueOnErrorConfig) *ContinueOnErrorHandler {
	handler := &ContinueOnErrorHandler{
		name:      "ContinueOnError",
		logErrors: true,
	}

	if config != nil {
		handler.logErrors = config.LogErrors
		handler.logger = config.Logger
	}

	return handler
}

// HandleError implements the ErrorHandler interface
func (h *ContinueOnErrorHandler) HandleError(ctx context.Context, errCtx *ErrorContext) error {
	if h.logErrors {
		attrs := []any{"error", errCtx.Error}
		if stack, ok := errCtx.Metadata["stack_trace"]; ok {
			attrs = append(attrs, "stack_trace", stack)
		}
		recordLogger(ctx, h.logger, errCtx).ErrorContext(ctx, "task failed, continuing", attrs...)
	}

	// error has been handled
	return nil
}

// Name returns the handler name
func (h *ContinueOnErrorHandler) Name() string {
	return h.name
}

// Strategy returns ContinueOnErrorStrategy
func (h *ContinueOnErrorHandler) Strategy() ErrorHandlerStrategy {
	return ContinueOnErrorStrategy
}

// recordLogger picks the logger for a failure record. An explicit logger, or a
// bare default, is tagged from errCtx; a context logger is used as is.
func recordLogger(ctx context.Context, own *slog.Logger, errCtx *ErrorContext) *slog.Logger {
	if own == nil && telemetry.HasLogger(ctx) {
		return telemetry.FromContext(ctx)
	}
	if own == nil {
		own = slog.Default()
	}
	return telemetry.WithTaskID(telemetry.WithWorker(own, errCtx.WorkerName), errCtx.TaskID)
}

// NewHandlerForStrategy builds the built-in handler for a strategy.
// A nil logger defers to the logger carried by the HandleError context.
func NewHandlerForStrategy(strategy ErrorHandlerStrategy, logger *slog.Logger) ErrorHandler {
	switch strategy {
	case FailFastStrategy:
		return NewFailFastHandler(logger)
	case DrainOnErrorStrategy:
		return NewDrainOnErrorHandler(logger)
	default:
		return NewContinueOnErrorHandler(&ContinueOnErrorConfig{Logger: logger, LogErrors: true})
	}
}

// ParseStrategy maps a strategy name (as returned by String) back to its value
func ParseStrategy(name string) (ErrorHandlerStrategy, bool) {
	switch name {
	case "ContinueOnError", "continue":
		return ContinueOnErrorStrategy, true
	case "FailFast", "fail_fast":
		return FailFastStrategy, true
	case "DrainOnError", "drain":
		return DrainOnErrorStrategy, true
	default:
		return ContinueOnErrorStrategy, false
	}
}
