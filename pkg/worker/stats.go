package worker

import (
	"time"
)

// WorkerState defines the state of a Worker
type WorkerState int32

const (
	// WorkerStateActive accepts and runs tasks
	WorkerStateActive WorkerState = iota
	// WorkerStateStoppingDrain refuses new tasks and runs the queued ones before tearing down
	WorkerStateStoppingDrain
	// WorkerStateStoppingImmediate refuses new tasks and discards the queued ones
	WorkerStateStoppingImmediate
	// WorkerStateDestroyed is terminal: the goroutine has exited and the queue is gone
	WorkerStateDestroyed
)

// String returns the string representation of WorkerState
func (ws WorkerState) String() string {
	switch ws {
	case WorkerStateActive:
		return "active"
	case WorkerStateStoppingDrain:
		return "stopping_drain"
	case WorkerStateStoppingImmediate:
		return "stopping_immediate"
	case WorkerStateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// IsStopping reports whether a stop has been requested but teardown has not finished
func (ws WorkerState) IsStopping() bool {
	return ws == WorkerStateStoppingDrain || ws == WorkerStateStoppingImmediate
}

// WorkerStats defines Worker statistics
type WorkerStats struct {
	Name        string
	State       WorkerState
	QueueLength int

	// TotalPosted counts tasks appended to the queue
	TotalPosted int64
	// TotalExecuted counts task bodies that returned normally
	TotalExecuted int64
	// TotalFailed counts task bodies that panicked
	TotalFailed int64
	// TotalDropped counts submissions refused because the worker was stopping
	// or the task was nil, already run or already released
	TotalDropped int64
	// TotalBusy counts non-blocking submissions refused because the lock was held
	TotalBusy int64
	// TotalDiscarded counts queued tasks destroyed unexecuted at release
	TotalDiscarded int64

	LastTaskTime time.Time
}

// IsActive checks if the Worker still accepts tasks
func (ws WorkerStats) IsActive() bool {
	return ws.State == WorkerStateActive
}

// IsDestroyed checks if the Worker has torn itself down
func (ws WorkerStats) IsDestroyed() bool {
	return ws.State == WorkerStateDestroyed
}

// TotalRun returns the number of task bodies started
func (ws WorkerStats) TotalRun() int64 {
	return ws.TotalExecuted + ws.TotalFailed
}

// GetFailureRate gets the share of started tasks that panicked
func (ws WorkerStats) GetFailureRate() float64 {
	total := ws.TotalRun()
	if total == 0 {
		return 0
	}
	return float64(ws.TotalFailed) / float64(total)
}
