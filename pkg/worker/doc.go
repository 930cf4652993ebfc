/*
Package worker provides a service thread: a single goroutine that owns a private FIFO queue of tasks and releases itself.

# Overview

A Worker runs tasks strictly one at a time, in the order they were enqueued:
- One dedicated goroutine per Worker, started by the constructor
- Blocking (Post) and non-blocking (TryPost) submission from any goroutine
- Immediate release (Release) that discards queued work
- Drain release (ReleaseAfterWork) that finishes queued work first
- Self-teardown from the worker goroutine; producers never free a Worker

# Core Components

## Task

An owned, single-use unit of work:
- A zero-argument body; bind arguments with a closure before posting
- An optional types.Handler whose OnBeforeRun/OnAfterRun bracket the body
- Run executes the body at most once; Release drops it

## Worker

The service thread. Its state machine is

	active --Release--> stopping_immediate --> destroyed
	active --ReleaseAfterWork--> stopping_drain --(queue empty)--> destroyed
	stopping_drain --Release--> stopping_immediate

Only the worker goroutine moves a Worker to destroyed. Done is closed once
that has happened, and Wait/WaitTimeout block on it.

# Submission

	w := worker.NewWorker()

	w.Post(func() { fmt.Println("runs first") })

	switch w.TryPost(func() { fmt.Println("runs second") }) {
	case types.PostEnqueued:
	case types.PostLockBusy:
		// lock was contended; nothing was enqueued, retry or give up
	case types.PostRejectedStopping:
		// the worker is shutting down
	}

	w.ReleaseAfterWork()
	_ = w.WaitTimeout(5 * time.Second)

Submissions to a stopping Worker are dropped without error; Post reports
false and TryPost reports PostRejectedStopping.

# Error Handling

A panicking task body is recovered on the worker goroutine and turned into a
*types.TaskError carrying the stack trace. The configured ErrorHandler decides
what happens next:
- ContinueOnError (default): log and run the next task
- FailFast: Release the worker
- DrainOnError: ReleaseAfterWork the worker

# Observability

Config.Logger receives lifecycle records through log/slog. Config.Metrics
exports Prometheus counters for posted, dropped, executed and discarded tasks,
a queue depth gauge and a task duration histogram, all labelled by worker name.
*/
package worker
