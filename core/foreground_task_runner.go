package core

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// ForegroundTaskRunner owns the single foreground execution context.
// All tasks posted to it run one after another on the same goroutine,
// in the order they were posted (Thread Affinity).
//
// The loop goroutine is either spawned by Start, or adopted with Run, which
// turns the calling goroutine (typically main) into the foreground context.
// With LockOSThread the loop is also pinned to one OS thread, which UI
// toolkits and some CGO libraries require.
type ForegroundTaskRunner struct {
	queue  *TaskQueue
	signal chan struct{}

	// Lifecycle control
	ctx         context.Context
	cancel      context.CancelFunc
	stopped     chan struct{}
	stoppedOnce sync.Once
	started     atomic.Bool
	closed      atomic.Bool

	lockOSThread bool
	hooks        Hooks

	// Observability
	running    atomic.Int32
	executed   atomic.Int64
	panicked   atomic.Int64
	rejected   atomic.Int64
	lastTaskAt atomic.Int64 // unix nanos

	name string
	mu   sync.Mutex
}

// ForegroundConfig configures a ForegroundTaskRunner.
type ForegroundConfig struct {
	Name         string
	LockOSThread bool
	Hooks        Hooks
}

// NewForegroundTaskRunner creates a runner. Tasks may be posted right away;
// they execute once Start or Run drives the loop.
func NewForegroundTaskRunner(cfg ForegroundConfig) *ForegroundTaskRunner {
	ctx, cancel := context.WithCancel(context.Background())
	name := cfg.Name
	if name == "" {
		name = "foreground"
	}
	return &ForegroundTaskRunner{
		queue:        NewTaskQueue(),
		signal:       make(chan struct{}, 1),
		ctx:          ctx,
		cancel:       cancel,
		stopped:      make(chan struct{}),
		lockOSThread: cfg.LockOSThread,
		hooks:        cfg.Hooks.Normalize(),
		name:         name,
	}
}

// Name returns the name of the task runner
func (r *ForegroundTaskRunner) Name() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.name
}

// SetName sets the name of the task runner
func (r *ForegroundTaskRunner) SetName(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.name = name
}

// PostTask queues task behind every task posted before it. It never blocks
// and never runs task synchronously, even when called from the foreground
// goroutine itself.
func (r *ForegroundTaskRunner) PostTask(task Task) {
	if task == nil {
		return
	}
	if r.closed.Load() {
		r.reject("shutting down")
		return
	}

	r.queue.Push(task)
	r.hooks.Metrics.RecordQueueDepth(r.Name(), r.queue.Len())

	select {
	case r.signal <- struct{}{}:
	default:
		// A wakeup is already pending
	}
}

// Start spawns a dedicated goroutine for the loop.
func (r *ForegroundTaskRunner) Start() error {
	if err := r.claim(); err != nil {
		return err
	}
	go func() {
		_ = r.loop(context.Background())
	}()
	return nil
}

// Run drives the loop on the calling goroutine until ctx is done or the
// runner is stopped. Returning from Run closes the runner.
func (r *ForegroundTaskRunner) Run(ctx context.Context) error {
	if err := r.claim(); err != nil {
		return err
	}
	return r.loop(ctx)
}

func (r *ForegroundTaskRunner) claim() error {
	if r.closed.Load() {
		return ErrRunnerClosed
	}
	if !r.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	return nil
}

// IsRunning reports whether a loop has been started and not yet stopped.
func (r *ForegroundTaskRunner) IsRunning() bool {
	return r.started.Load() && !r.closed.Load()
}

// IsClosed returns true if the runner has been stopped
func (r *ForegroundTaskRunner) IsClosed() bool {
	return r.closed.Load()
}

// Shutdown marks the runner closed and unblocks the loop without waiting
// for it. Safe to call from a task running on this runner.
func (r *ForegroundTaskRunner) Shutdown() {
	if r.closed.CompareAndSwap(false, true) {
		r.cancel()
	}
}

// Stop shuts the runner down and waits for the task in progress to finish.
// Must not be called from a task running on this runner; use Shutdown there.
func (r *ForegroundTaskRunner) Stop() {
	r.Shutdown()
	if r.started.Load() {
		<-r.stopped
	}
}

// loop is the message loop; it occupies the foreground goroutine.
func (r *ForegroundTaskRunner) loop(ctx context.Context) error {
	defer r.stoppedOnce.Do(func() { close(r.stopped) })
	defer func() {
		r.Shutdown()
		r.queue.Clear()
	}()

	if r.lockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	runCtx := WithTaskRunner(r.ctx, r)
	name := r.Name()
	r.hooks.Logger.Debug("foreground loop started", F("runner", name))

	for {
		if r.closed.Load() {
			return nil
		}
		if task, ok := r.queue.Pop(); ok {
			r.runTask(runCtx, task)
			continue
		}

		select {
		case <-r.signal:
		case <-r.ctx.Done():
			r.hooks.Logger.Debug("foreground loop stopped", F("runner", name))
			return nil
		case <-ctx.Done():
			r.hooks.Logger.Debug("foreground loop released", F("runner", name), F("reason", ctx.Err()))
			return ctx.Err()
		}
	}
}

func (r *ForegroundTaskRunner) runTask(ctx context.Context, task Task) {
	name := r.Name()
	start := r.hooks.Clock.Now()
	r.running.Add(1)
	defer func() {
		r.running.Add(-1)
		r.executed.Add(1)
		r.lastTaskAt.Store(r.hooks.Clock.Now().UnixNano())
		if rec := recover(); rec != nil {
			r.panicked.Add(1)
			r.hooks.PanicHandler.HandlePanic(ctx, name, -1, rec, debug.Stack())
			r.hooks.Metrics.RecordTaskPanic(name, rec)
		}
		r.hooks.Metrics.RecordTaskDuration(name, r.hooks.Clock.Since(start))
	}()
	task(ctx)
}

func (r *ForegroundTaskRunner) reject(reason string) {
	name := r.Name()
	r.rejected.Add(1)
	r.hooks.RejectedTaskHandler.HandleRejectedTask(name, reason)
	r.hooks.Metrics.RecordTaskRejected(name, reason)
}

// WaitIdle blocks until all tasks posted before the call have executed.
// This is implemented by posting a barrier task and waiting for it to run.
//
// Returns ErrRunnerClosed if the runner is (or becomes) closed, or ctx.Err().
// Must not be called from a task running on this runner.
func (r *ForegroundTaskRunner) WaitIdle(ctx context.Context) error {
	if r.IsClosed() {
		return ErrRunnerClosed
	}

	done := make(chan struct{})
	r.PostTask(func(context.Context) {
		close(done)
	})

	select {
	case <-done:
		return nil
	case <-r.ctx.Done():
		return ErrRunnerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the runner state.
func (r *ForegroundTaskRunner) Stats() RunnerStats {
	stats := RunnerStats{
		Name:     r.Name(),
		Type:     "foreground",
		Pending:  r.queue.Len(),
		Running:  int(r.running.Load()),
		Rejected: r.rejected.Load(),
		Executed: r.executed.Load(),
		Panicked: r.panicked.Load(),
		Closed:   r.closed.Load(),
	}
	if ns := r.lastTaskAt.Load(); ns != 0 {
		stats.LastTaskAt = time.Unix(0, ns)
	}
	return stats
}
