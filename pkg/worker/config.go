package worker

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jzx17/servicethread/pkg/types"
)

// Config defines configuration for a Worker
type Config struct {
	// Name identifies the worker in logs and metrics; defaults to "worker-<uuid prefix>"
	Name string

	// QueueCapacityHint preallocates room for this many queued tasks
	QueueCapacityHint int

	// Clock for time operations (optional, defaults to real clock)
	Clock types.Clock

	// Logger receives lifecycle and failure records (optional, defaults to slog.Default())
	Logger *slog.Logger

	// Metrics receives per-worker Prometheus samples (optional)
	Metrics *Metrics

	// ErrorHandler decides what happens after a task body panics
	// (optional, defaults to logging and continuing)
	ErrorHandler ErrorHandler

	// LockOSThread pins the worker goroutine to a single OS thread for its whole life
	LockOSThread bool
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		QueueCapacityHint: 16,
		Clock:             types.NewRealClock(),
	}
}

// validate checks the configuration and fills defaults in place
func (c *Config) validate() error {
	if c.QueueCapacityHint < 0 {
		return fmt.Errorf("%w: queue capacity hint must not be negative, got %d",
			types.ErrInvalidConfig, c.QueueCapacityHint)
	}

	if c.Name == "" {
		c.Name = "worker-" + uuid.NewString()[:8]
	}
	if c.Clock == nil {
		c.Clock = types.NewRealClock()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.ErrorHandler == nil {
		// logs through the worker's logger, handed over in the HandleError context
		c.ErrorHandler = NewErrorHandler(ContinueOnError, nil)
	}

	return nil
}
