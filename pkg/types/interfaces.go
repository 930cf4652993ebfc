// Package types defines core interfaces and types shared by the service thread packages
package types

// Handler brackets the execution of a task body.
// Both hooks run synchronously on the worker goroutine.
type Handler interface {
	// OnBeforeRun is invoked immediately before the task body
	OnBeforeRun()

	// OnAfterRun is invoked immediately after the task body, even if the body panicked
	OnAfterRun()
}

// HandlerFuncs adapts a pair of plain functions to the Handler interface.
// Either function may be nil.
type HandlerFuncs struct {
	BeforeRun func()
	AfterRun  func()
}

// OnBeforeRun implements Handler
func (h HandlerFuncs) OnBeforeRun() {
	if h.BeforeRun != nil {
		h.BeforeRun()
	}
}

// OnAfterRun implements Handler
func (h HandlerFuncs) OnAfterRun() {
	if h.AfterRun != nil {
		h.AfterRun()
	}
}

// Executor defines the producer-facing surface of a service thread
type Executor interface {
	// Post enqueues fn, blocking only for the queue lock.
	// It reports whether the task was enqueued; submissions to a stopping executor are dropped.
	Post(fn func()) bool

	// PostWithHandler enqueues fn bracketed by handler
	PostWithHandler(fn func(), handler Handler) bool

	// TryPost enqueues fn without ever waiting for the queue lock
	TryPost(fn func()) PostResult

	// Release stops immediately, discarding queued tasks
	Release()

	// ReleaseAfterWork stops once every queued task has run
	ReleaseAfterWork()

	// Done is closed once the executor has torn itself down
	Done() <-chan struct{}
}

// PostResult is the outcome of a non-blocking post
type PostResult int

const (
	// PostEnqueued means the task was appended to the queue
	PostEnqueued PostResult = iota
	// PostRejectedStopping means the lock was acquired but the executor is stopping
	PostRejectedStopping
	// PostLockBusy means the lock was held by someone else; nothing was enqueued
	PostLockBusy
	// PostRejectedInvalid means the task was nil, already run or already released
	PostRejectedInvalid
)

// String returns the string representation of PostResult
func (r PostResult) String() string {
	switch r {
	case PostEnqueued:
		return "enqueued"
	case PostRejectedStopping:
		return "rejected_stopping"
	case PostLockBusy:
		return "lock_busy"
	case PostRejectedInvalid:
		return "rejected_invalid"
	default:
		return "unknown"
	}
}

// Accepted reports whether the task was enqueued
func (r PostResult) Accepted() bool {
	return r == PostEnqueued
}

// Retryable reports whether retrying the same post may succeed
func (r PostResult) Retryable() bool {
	return r == PostLockBusy
}
