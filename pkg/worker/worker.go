package worker

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	workererrors "github.com/jzx17/servicethread/internal/errors"
	"github.com/jzx17/servicethread/internal/telemetry"
	"github.com/jzx17/servicethread/pkg/types"
)

var _ types.Executor = (*Worker)(nil)

// Worker is a service thread: one goroutine draining one FIFO queue of Tasks.
//
// The goroutine starts in the constructor and owns the Worker's teardown.
// Producers only ever signal intent with Release or ReleaseAfterWork; the
// loop observes the signal, tears the queue down and closes Done. A Worker
// must not be copied.
type Worker struct {
	name  string
	mu    sync.Mutex
	cond  *sync.Cond
	queue taskQueue
	state atomic.Int32 // WorkerState; written under mu
	done  chan struct{}

	clock        types.Clock
	logger       *slog.Logger
	metrics      *Metrics
	errorHandler ErrorHandler
	lockOSThread bool

	// statistics
	totalPosted    atomic.Int64
	totalExecuted  atomic.Int64
	totalFailed    atomic.Int64
	totalDropped   atomic.Int64
	totalBusy      atomic.Int64
	totalDiscarded atomic.Int64
	lastTaskTime   atomic.Int64 // Unix nanosecond timestamp
}

// NewWorker creates and starts a Worker with default configuration
func NewWorker() *Worker {
	w, err := NewWorkerWithConfig(DefaultConfig())
	if err != nil {
		// the default configuration always validates
		panic(err)
	}
	return w
}

// NewWorkerWithClock creates and starts a Worker with specified clock
func NewWorkerWithClock(clock types.Clock) *Worker {
	config := DefaultConfig()
	config.Clock = clock
	w, err := NewWorkerWithConfig(config)
	if err != nil {
		panic(err)
	}
	return w
}

// NewWorkerWithConfig creates and starts a Worker
func NewWorkerWithConfig(config *Config) (*Worker, error) {
	if config == nil {
		config = DefaultConfig()
	}

	// validate a copy so the caller's config can be reused
	cfg := *config
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	w := &Worker{
		name:         cfg.Name,
		queue:        newTaskQueue(cfg.QueueCapacityHint),
		done:         make(chan struct{}),
		clock:        cfg.Clock,
		logger:       telemetry.WithWorker(cfg.Logger, cfg.Name),
		metrics:      cfg.Metrics,
		errorHandler: cfg.ErrorHandler,
		lockOSThread: cfg.LockOSThread,
	}
	w.cond = sync.NewCond(&w.mu)

	w.metrics.workerStarted()
	go w.loop()

	w.logger.Debug("worker started", "lock_os_thread", w.lockOSThread)
	return w, nil
}

// Name returns the Worker name
func (w *Worker) Name() string {
	return w.name
}

// State returns the current Worker state
func (w *Worker) State() WorkerState {
	return WorkerState(w.state.Load())
}

// Done returns a channel closed once the Worker has destroyed itself
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Post enqueues fn and wakes the loop.
// It blocks only while another goroutine holds the queue lock. When the
// Worker is stopping the submission is dropped and Post returns false.
func (w *Worker) Post(fn func()) bool {
	return w.PostWithHandler(fn, nil)
}

// PostWithHandler enqueues fn bracketed by handler
func (w *Worker) PostWithHandler(fn func(), handler types.Handler) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.acceptingLocked() {
		w.recordDropped()
		return false
	}

	w.enqueueLocked(NewTaskWithHandler(fn, handler))
	return true
}

// PostTask enqueues a prebuilt task, taking ownership of it.
// A task refused because the Worker is stopping is released. A nil task, or
// one that has already run or been released, is refused without being touched.
func (w *Worker) PostTask(task *Task) bool {
	if !postable(task) {
		w.recordInvalid()
		return false
	}

	w.mu.Lock()
	if !w.acceptingLocked() {
		w.mu.Unlock()
		w.recordDropped()
		task.Release()
		return false
	}
	w.enqueueLocked(task)
	w.mu.Unlock()
	return true
}

// TryPost enqueues fn without waiting for the queue lock
func (w *Worker) TryPost(fn func()) types.PostResult {
	return w.tryEnqueue(func() *Task { return NewTask(fn) })
}

// TryPostWithHandler enqueues fn bracketed by handler without waiting for the queue lock
func (w *Worker) TryPostWithHandler(fn func(), handler types.Handler) types.PostResult {
	return w.tryEnqueue(func() *Task { return NewTaskWithHandler(fn, handler) })
}

// TryPostTask enqueues a prebuilt task without waiting for the queue lock.
// On PostLockBusy the caller keeps ownership and may retry; on
// PostRejectedStopping the task is released. A nil task, or one that has
// already run or been released, yields PostRejectedInvalid and is left alone.
func (w *Worker) TryPostTask(task *Task) types.PostResult {
	if !postable(task) {
		w.recordInvalid()
		return types.PostRejectedInvalid
	}
	result := w.tryEnqueue(func() *Task { return task })
	if result == types.PostRejectedStopping {
		task.Release()
	}
	return result
}

func (w *Worker) tryEnqueue(build func() *Task) types.PostResult {
	if !w.mu.TryLock() {
		w.totalBusy.Add(1)
		w.metrics.taskDropped(w.name, dropReasonBusy)
		return types.PostLockBusy
	}
	defer w.mu.Unlock()

	if !w.acceptingLocked() {
		w.recordDropped()
		return types.PostRejectedStopping
	}

	w.enqueueLocked(build())
	return types.PostEnqueued
}

func (w *Worker) acceptingLocked() bool {
	return w.State() == WorkerStateActive
}

func (w *Worker) enqueueLocked(task *Task) {
	w.queue.push(task)
	w.totalPosted.Add(1)
	w.metrics.taskPosted(w.name, w.queue.len())
	w.cond.Signal()
}

func (w *Worker) recordDropped() {
	w.totalDropped.Add(1)
	w.metrics.taskDropped(w.name, dropReasonStopping)
}

func (w *Worker) recordInvalid() {
	w.totalDropped.Add(1)
	w.metrics.taskDropped(w.name, dropReasonInvalid)
}

// postable reports whether task can still be queued and run
func postable(task *Task) bool {
	return task != nil && !task.Executed() && !task.Released()
}

// Release asks the Worker to stop immediately.
// A task already running finishes; queued tasks are discarded unexecuted.
// Release is idempotent, never blocks on task execution and may be called
// from any goroutine, including from a task running on this Worker.
func (w *Worker) Release() {
	w.requestStop(WorkerStateStoppingImmediate)
}

// ReleaseAfterWork asks the Worker to stop once its queue is empty.
// Submissions made after this call are dropped. It has no effect once
// Release has been called.
func (w *Worker) ReleaseAfterWork() {
	w.requestStop(WorkerStateStoppingDrain)
}

func (w *Worker) requestStop(target WorkerState) {
	w.mu.Lock()
	defer w.mu.Unlock()

	current := w.State()
	switch {
	case current == target,
		current == WorkerStateDestroyed,
		current == WorkerStateStoppingImmediate,
		current == WorkerStateStoppingDrain && target != WorkerStateStoppingImmediate:
		return
	}

	w.state.Store(int32(target))
	w.logger.Debug("stop requested", "mode", target.String(), "queued", w.queue.len())
	w.cond.Broadcast()
}

// Wait blocks until the Worker has destroyed itself or ctx is done.
// Calling Wait from a task running on the same Worker deadlocks.
func (w *Worker) Wait(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitTimeout blocks until the Worker has destroyed itself or timeout elapses,
// in which case it returns types.ErrTimeout
func (w *Worker) WaitTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		select {
		case <-w.done:
			return nil
		default:
			return types.ErrTimeout
		}
	}

	timer := w.clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-w.done:
		return nil
	case <-timer.C():
		return types.ErrTimeout
	}
}

// QueueLength returns the number of tasks waiting to run
func (w *Worker) QueueLength() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.queue.len()
}

// loop is the body of the worker goroutine
func (w *Worker) loop() {
	if w.lockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}
	defer w.destroy()

	w.mu.Lock()
	for {
		for w.queue.len() == 0 && w.State() == WorkerStateActive {
			w.cond.Wait()
		}

		state := w.State()
		if state == WorkerStateStoppingImmediate ||
			(state == WorkerStateStoppingDrain && w.queue.len() == 0) {
			w.mu.Unlock()
			return
		}

		task := w.queue.pop()
		remaining := w.queue.len()
		w.metrics.taskDequeued(w.name, remaining)
		w.mu.Unlock()

		w.execute(task, remaining)

		w.mu.Lock()
	}
}

// execute runs a single task and releases it
func (w *Worker) execute(task *Task, remaining int) {
	defer task.Release()

	startTime := w.clock.Now()
	w.lastTaskTime.Store(startTime.UnixNano())

	err := w.runTask(task)

	w.metrics.taskFinished(w.name, w.clock.Since(startTime), err != nil)

	if err == nil {
		w.totalExecuted.Add(1)
		return
	}

	w.totalFailed.Add(1)
	w.handleError(task, err, remaining)
}

// runTask runs a task with panic recovery support
func (w *Worker) runTask(task *Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)

			err = types.NewTaskError("run", task.ID(), types.PanicError(r)).
				WithContext("stack_trace", string(buf[:n])).
				WithContext("worker", w.name)
		}
	}()

	task.Run()
	return nil
}

// handleError hands a failure to the error handler and escalates if it is not absorbed
func (w *Worker) handleError(task *Task, err error, remaining int) {
	errCtx := workererrors.NewErrorContext(err, task.ID(), w.name)
	errCtx.Timestamp = w.clock.Now()
	errCtx.QueueLength = remaining

	var taskErr *types.TaskError
	if errors.As(err, &taskErr) {
		for k, v := range taskErr.Context {
			errCtx.Metadata[k] = v
		}
	}

	ctx := telemetry.WithLogger(context.Background(), telemetry.WithTaskID(w.logger, task.ID()))
	if handled := w.errorHandler.HandleError(ctx, errCtx); handled == nil {
		return
	}

	switch w.errorHandler.Strategy() {
	case FailFast:
		w.Release()
	case DrainOnError:
		w.ReleaseAfterWork()
	}
}

// destroy tears the Worker down; it runs exactly once, on the worker goroutine
func (w *Worker) destroy() {
	w.mu.Lock()
	pending := w.queue.drain()
	w.state.Store(int32(WorkerStateDestroyed))
	w.mu.Unlock()

	for _, task := range pending {
		task.Release()
	}
	w.totalDiscarded.Add(int64(len(pending)))
	w.metrics.workerDestroyed(w.name, len(pending))

	w.logger.Debug("worker destroyed",
		"executed", w.totalExecuted.Load(),
		"failed", w.totalFailed.Load(),
		"discarded", len(pending),
	)

	close(w.done)
}

// Stats gets Worker statistics
func (w *Worker) Stats() WorkerStats {
	var lastTaskTime time.Time
	if ns := w.lastTaskTime.Load(); ns != 0 {
		lastTaskTime = time.Unix(0, ns)
	}

	return WorkerStats{
		Name:           w.name,
		State:          w.State(),
		QueueLength:    w.QueueLength(),
		TotalPosted:    w.totalPosted.Load(),
		TotalExecuted:  w.totalExecuted.Load(),
		TotalFailed:    w.totalFailed.Load(),
		TotalDropped:   w.totalDropped.Load(),
		TotalBusy:      w.totalBusy.Load(),
		TotalDiscarded: w.totalDiscarded.Load(),
		LastTaskTime:   lastTaskTime,
	}
}
