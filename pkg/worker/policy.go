package worker

import (
	"log/slog"

	workererrors "github.com/jzx17/servicethread/internal/errors"
)

// ErrorHandler decides how a Worker reacts to a failed task
type ErrorHandler = workererrors.ErrorHandler

// ErrorContext describes a failed task
type ErrorContext = workererrors.ErrorContext

// ErrorHandlerStrategy selects how a Worker escalates an unhandled failure
type ErrorHandlerStrategy = workererrors.ErrorHandlerStrategy

// Failure strategies
const (
	// ContinueOnError logs the failure and runs the next task
	ContinueOnError = workererrors.ContinueOnErrorStrategy
	// FailFast releases the worker immediately, discarding queued tasks
	FailFast = workererrors.FailFastStrategy
	// DrainOnError releases the worker after the queued tasks have run
	DrainOnError = workererrors.DrainOnErrorStrategy
)

// NewErrorHandler returns the built-in handler for strategy
func NewErrorHandler(strategy ErrorHandlerStrategy, logger *slog.Logger) ErrorHandler {
	return workererrors.NewHandlerForStrategy(strategy, logger)
}

// ParseErrorStrategy maps a strategy name such as "fail_fast" or "FailFast" to its value
func ParseErrorStrategy(name string) (ErrorHandlerStrategy, bool) {
	return workererrors.ParseStrategy(name)
}
