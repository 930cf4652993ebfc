package worker

// compactThreshold is the number of consumed slots tolerated at the head
// of the backing slice before live entries are shifted down.
const compactThreshold = 64

// taskQueue is an unsynchronized FIFO of owned tasks.
// The Worker guards every access with its mutex.
type taskQueue struct {
	items []*Task
	head  int
}

func newTaskQueue(capacity int) taskQueue {
	return taskQueue{items: make([]*Task, 0, capacity)}
}

func (q *taskQueue) len() int {
	return len(q.items) - q.head
}

func (q *taskQueue) push(t *Task) {
	q.items = append(q.items, t)
}

// pop removes and returns the oldest task, or nil if the queue is empty
func (q *taskQueue) pop() *Task {
	if q.len() == 0 {
		return nil
	}

	t := q.items[q.head]
	q.items[q.head] = nil
	q.head++

	switch {
	case q.head == len(q.items):
		q.items = q.items[:0]
		q.head = 0
	case q.head >= compactThreshold && q.head*2 >= len(q.items):
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}

	return t
}

// drain empties the queue and hands the pending tasks to the caller
func (q *taskQueue) drain() []*Task {
	if q.len() == 0 {
		q.items = nil
		q.head = 0
		return nil
	}
	pending := make([]*Task, q.len())
	copy(pending, q.items[q.head:])
	q.items = nil
	q.head = 0
	return pending
}
