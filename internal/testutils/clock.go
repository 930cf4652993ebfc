package testutils

import (
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/jzx17/servicethread/pkg/types"
)

// NewMockClock creates a quartz mock clock bound to t
func NewMockClock(t testing.TB) *quartz.Mock {
	return quartz.NewMock(t)
}

// ClockWrapper exposes a quartz.Mock as a types.Clock
type ClockWrapper struct {
	*quartz.Mock
}

// NewClockWrapper creates a new ClockWrapper
func NewClockWrapper(mock *quartz.Mock) *ClockWrapper {
	return &ClockWrapper{Mock: mock}
}

// Now returns the current time
func (c *ClockWrapper) Now() time.Time {
	return c.Mock.Now()
}

// Since returns the time elapsed since t
func (c *ClockWrapper) Since(t time.Time) time.Duration {
	return c.Mock.Since(t)
}

// NewTimer creates a new Timer
func (c *ClockWrapper) NewTimer(d time.Duration) types.Timer {
	return &TimerWrapper{timer: c.Mock.NewTimer(d)}
}

// TimerWrapper adapts a quartz timer to types.Timer
type TimerWrapper struct {
	timer *quartz.Timer
}

// C returns the channel the mock timer fires on when the clock is advanced
func (t *TimerWrapper) C() <-chan time.Time {
	return t.timer.C
}

// Stop prevents the mock timer from firing
func (t *TimerWrapper) Stop() bool {
	return t.timer.Stop()
}

// Reset rearms the mock timer relative to the mock clock
func (t *TimerWrapper) Reset(d time.Duration) bool {
	return t.timer.Reset(d)
}
