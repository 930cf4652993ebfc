package types

import (
	"time"
)

// Clock provides an abstraction over time operations for testing
type Clock interface {
	// Now returns the current time
	Now() time.Time
	// Since returns the time elapsed since t
	Since(t time.Time) time.Duration
	// NewTimer creates a new Timer
	NewTimer(d time.Duration) Timer
}

// Timer is a one-shot timer obtained from a Clock
type Timer interface {
	// C delivers the fire time
	C() <-chan time.Time
	Stop() bool
	Reset(d time.Duration) bool
}

// RealClock implements Clock using real time operations
type RealClock struct{}

// NewRealClock creates a new real clock
func NewRealClock() Clock {
	return &RealClock{}
}

// Now returns time.Now
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// Since returns time.Since(t)
func (c *RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// NewTimer starts a time.Timer that fires once after d
func (c *RealClock) NewTimer(d time.Duration) Timer {
	return &realTimer{timer: time.NewTimer(d)}
}

// realTimer wraps time.Timer
type realTimer struct {
	timer *time.Timer
}

// C returns the channel the timer fires on
func (t *realTimer) C() <-chan time.Time {
	return t.timer.C
}

// Stop prevents the timer from firing
func (t *realTimer) Stop() bool {
	return t.timer.Stop()
}

// Reset rearms the timer to fire after d
func (t *realTimer) Reset(d time.Duration) bool {
	return t.timer.Reset(d)
}
