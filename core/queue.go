package core

import "sync"

const (
	defaultQueueCap     = 16
	compactMinCap       = 64 // Don't compact if capacity is less than this
	compactShrinkFactor = 4  // Trigger compaction when len < cap/4
)

// TaskQueue is an unbounded FIFO of tasks, safe for concurrent use.
// Push never blocks, which is what lets PostTask return immediately.
type TaskQueue struct {
	mu    sync.Mutex
	tasks []Task
}

func NewTaskQueue() *TaskQueue {
	return &TaskQueue{
		tasks: make([]Task, 0, defaultQueueCap),
	}
}

func (q *TaskQueue) Push(t Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, t)
}

func (q *TaskQueue) Pop() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return nil, false
	}

	t := q.tasks[0]
	// Zero out the slot so the closure can be collected
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	q.maybeCompactLocked()

	return t, true
}

func (q *TaskQueue) maybeCompactLocked() {
	n := len(q.tasks)
	c := cap(q.tasks)

	if c < compactMinCap {
		return
	}
	if n == 0 {
		q.tasks = make([]Task, 0, defaultQueueCap)
		return
	}
	if n*compactShrinkFactor >= c {
		return
	}

	shrunk := make([]Task, n, max(c/2, defaultQueueCap, n))
	copy(shrunk, q.tasks)
	q.tasks = shrunk
}

func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Clear drops every queued task and returns how many were dropped.
func (q *TaskQueue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.tasks)
	q.tasks = make([]Task, 0, defaultQueueCap)
	return n
}
