package core

import (
	"fmt"
	"sync/atomic"
	"time"
)

// drainPollInterval is how often Drain and ShutdownGraceful check for an empty scheduler.
const drainPollInterval = 50 * time.Millisecond

// TaskScheduler is the work source shared by the workers of a pool.
// Tasks are handed out in submission order; which worker picks a task up
// is not under the caller's control.
type TaskScheduler struct {
	name        string
	queue       *TaskQueue
	signal      chan struct{}
	workerCount int

	metricQueued   int32 // Waiting in queue
	metricActive   int32 // Executing in worker
	metricRejected int64

	hooks Hooks

	// Lifecycle
	shuttingDown int32 // atomic flag
}

func NewTaskScheduler(name string, workerCount int) *TaskScheduler {
	return NewTaskSchedulerWithHooks(name, workerCount, DefaultHooks())
}

func NewTaskSchedulerWithHooks(name string, workerCount int, hooks Hooks) *TaskScheduler {
	return &TaskScheduler{
		name:        name,
		queue:       NewTaskQueue(),
		signal:      make(chan struct{}, workerCount*2),
		workerCount: workerCount,
		hooks:       hooks.Normalize(),
	}
}

// Post enqueues task. It never blocks and never runs task itself.
// Returns false if the scheduler is shutting down.
func (s *TaskScheduler) Post(task Task) bool {
	if atomic.LoadInt32(&s.shuttingDown) == 1 {
		atomic.AddInt64(&s.metricRejected, 1)
		s.hooks.RejectedTaskHandler.HandleRejectedTask(s.name, "shutting down")
		s.hooks.Metrics.RecordTaskRejected(s.name, "shutting down")
		return false
	}

	s.queue.Push(task)
	depth := atomic.AddInt32(&s.metricQueued, 1)
	s.hooks.Metrics.RecordQueueDepth(s.name, int(depth))

	select {
	case s.signal <- struct{}{}:
	default:
		// Signal channel full, but task is already queued
	}
	return true
}

// GetWork blocks until a task is available or stopCh is closed (called by workers).
func (s *TaskScheduler) GetWork(stopCh <-chan struct{}) (Task, bool) {
	for {
		if task, ok := s.queue.Pop(); ok {
			atomic.AddInt32(&s.metricQueued, -1)
			return task, true
		}

		select {
		case <-s.signal:
			continue
		case <-stopCh:
			return nil, false
		}
	}
}

// Shutdown stops accepting tasks and drops everything still queued.
func (s *TaskScheduler) Shutdown() {
	atomic.StoreInt32(&s.shuttingDown, 1)
	dropped := s.queue.Clear()
	atomic.AddInt32(&s.metricQueued, int32(-dropped))
}

// ShutdownGraceful stops accepting tasks and waits for queued and active
// tasks to finish. Returns error if timeout is exceeded first.
func (s *TaskScheduler) ShutdownGraceful(timeout time.Duration) error {
	atomic.StoreInt32(&s.shuttingDown, 1)

	deadline := s.hooks.Clock.NewTimer(timeout, "scheduler", "drain-deadline")
	defer deadline.Stop()
	ticker := s.hooks.Clock.NewTicker(drainPollInterval, "scheduler", "drain-poll")
	defer ticker.Stop()

	for {
		if s.QueuedTaskCount() == 0 && s.ActiveTaskCount() == 0 {
			return nil
		}
		select {
		case <-deadline.C:
			dropped := s.queue.Clear()
			atomic.AddInt32(&s.metricQueued, int32(-dropped))
			return fmt.Errorf("%w: %s drain exceeded %v, %d task(s) dropped", ErrShutdownTimeout, s.name, timeout, dropped)
		case <-ticker.C:
		}
	}
}

// Drain stops accepting tasks and blocks until every queued and active task
// has finished. Nothing is dropped.
func (s *TaskScheduler) Drain() {
	atomic.StoreInt32(&s.shuttingDown, 1)

	ticker := s.hooks.Clock.NewTicker(drainPollInterval, "scheduler", "drain-poll")
	defer ticker.Stop()

	for s.QueuedTaskCount() != 0 || s.ActiveTaskCount() != 0 {
		<-ticker.C
	}
}

func (s *TaskScheduler) IsShuttingDown() bool { return atomic.LoadInt32(&s.shuttingDown) == 1 }

// Metrics
func (s *TaskScheduler) Name() string         { return s.name }
func (s *TaskScheduler) WorkerCount() int     { return s.workerCount }
func (s *TaskScheduler) QueuedTaskCount() int { return int(atomic.LoadInt32(&s.metricQueued)) }
func (s *TaskScheduler) ActiveTaskCount() int { return int(atomic.LoadInt32(&s.metricActive)) }

func (s *TaskScheduler) RejectedTaskCount() int64 {
	return atomic.LoadInt64(&s.metricRejected)
}

func (s *TaskScheduler) OnTaskStart() {
	atomic.AddInt32(&s.metricActive, 1)
}

func (s *TaskScheduler) OnTaskEnd() {
	atomic.AddInt32(&s.metricActive, -1)
}

// Hooks returns the normalized handler set of this scheduler.
func (s *TaskScheduler) Hooks() Hooks {
	return s.hooks
}
