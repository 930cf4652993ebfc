package worker

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jzx17/servicethread/pkg/types"
)

// task lifecycle states
const (
	taskPending int32 = iota
	taskRunning
	taskDone
	taskReleased
)

// Task is a single-use unit of work: a zero-argument body plus an optional Handler
// that brackets it. A Task has exactly one owner at a time; it is handed from the
// producer to a Worker queue and released by the Worker after it runs.
type Task struct {
	id      string
	fn      func()
	handler types.Handler
	state   atomic.Int32
	ran     atomic.Bool
}

// NewTask creates a task without a handler
func NewTask(fn func()) *Task {
	return NewTaskWithHandler(fn, nil)
}

// NewTaskWithHandler creates a task whose body is bracketed by handler.
// The handler is referenced, not owned.
func NewTaskWithHandler(fn func(), handler types.Handler) *Task {
	return NewTaskWithID(uuid.NewString(), fn, handler)
}

// NewTaskWithID creates a task with custom ID
func NewTaskWithID(id string, fn func(), handler types.Handler) *Task {
	return &Task{
		id:      id,
		fn:      fn,
		handler: handler,
	}
}

// ID returns the task ID
func (t *Task) ID() string {
	return t.id
}

// Run invokes OnBeforeRun, the body, then OnAfterRun.
//
// The body runs at most once; later calls, and calls after Release, return
// immediately. Panics raised by the body are not recovered here. OnAfterRun is
// deferred so it still runs when the body panics. A nil body panics with a
// *types.TaskError wrapping types.ErrNilTaskBody.
func (t *Task) Run() {
	if !t.state.CompareAndSwap(taskPending, taskRunning) {
		return
	}
	t.ran.Store(true)
	defer t.state.CompareAndSwap(taskRunning, taskDone)

	if t.handler != nil {
		t.handler.OnBeforeRun()
		defer t.handler.OnAfterRun()
	}

	if t.fn == nil {
		panic(types.NewTaskError("run", t.id, types.ErrNilTaskBody))
	}
	t.fn()
}

// Release destroys the task, dropping its body and handler references.
// It is idempotent and must not be called while Run is in progress.
func (t *Task) Release() {
	if t.state.Swap(taskReleased) == taskReleased {
		return
	}
	t.fn = nil
	t.handler = nil
}

// Executed reports whether Run has started the task body
func (t *Task) Executed() bool {
	return t.ran.Load()
}

// Released reports whether Release has been called
func (t *Task) Released() bool {
	return t.state.Load() == taskReleased
}
