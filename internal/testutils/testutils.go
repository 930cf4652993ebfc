// Package testutils provides simplified testing utilities and helper functions
package testutils

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Recorder is a concurrency-safe, ordered log of task ids
type Recorder struct {
	mu      sync.Mutex
	entries []string
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record appends id to the log
func (r *Recorder) Record(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, id)
}

// Func returns a task body that records id when run
func (r *Recorder) Func(id string) func() {
	return func() { r.Record(id) }
}

// Entries returns a copy of the log
func (r *Recorder) Entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of recorded entries
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Count returns how many times id was recorded
func (r *Recorder) Count(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e == id {
			n++
		}
	}
	return n
}

// RequireClosed fails the test if ch is not closed within timeout
func RequireClosed(t testing.TB, ch <-chan struct{}, timeout time.Duration, msgAndArgs ...interface{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		require.FailNow(t, "channel was not closed in time", msgAndArgs...)
	}
}

// AssertOpen checks that ch is still open after waiting for d
func AssertOpen(t testing.TB, ch <-chan struct{}, d time.Duration, msgAndArgs ...interface{}) bool {
	t.Helper()
	select {
	case <-ch:
		return assert.Fail(t, "channel closed unexpectedly", msgAndArgs...)
	case <-time.After(d):
		return true
	}
}

// Gate is a one-shot latch used to hold a task body until the test releases it
type Gate struct {
	ch   chan struct{}
	once sync.Once
}

// NewGate creates a closed-on-Open latch
func NewGate() *Gate {
	return &Gate{ch: make(chan struct{})}
}

// Wait blocks until Open is called
func (g *Gate) Wait() {
	<-g.ch
}

// Open releases every waiter; safe to call more than once
func (g *Gate) Open() {
	g.once.Do(func() { close(g.ch) })
}
