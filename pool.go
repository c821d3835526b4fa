package dispatcher

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Swind/go-dispatcher/core"
)

// DefaultPoolWorkers is the fixed size of the background pool.
const DefaultPoolWorkers = 20

// GoroutineThreadPool manages a fixed set of worker goroutines
// pulling tasks from a FIFO TaskScheduler.
type GoroutineThreadPool struct {
	id        string
	workers   int
	scheduler *core.TaskScheduler
	hooks     core.Hooks
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	running   bool
	runningMu sync.RWMutex
}

var _ core.TaskRunner = (*GoroutineThreadPool)(nil)

// NewGoroutineThreadPool creates a pool with the given number of workers.
// The pool does not run tasks until Start is called.
func NewGoroutineThreadPool(id string, workers int, hooks core.Hooks) *GoroutineThreadPool {
	hooks = hooks.Normalize()
	return &GoroutineThreadPool{
		id:        id,
		workers:   workers,
		scheduler: core.NewTaskSchedulerWithHooks(id, workers, hooks),
		hooks:     hooks,
	}
}

// Start starts all worker goroutines
func (tg *GoroutineThreadPool) Start(ctx context.Context) {
	tg.runningMu.Lock()
	defer tg.runningMu.Unlock()

	if tg.running {
		return // Already running
	}

	tg.ctx, tg.cancel = context.WithCancel(ctx)
	tg.running = true

	workerCtx := core.WithTaskRunner(tg.ctx, tg)
	for i := 0; i < tg.workers; i++ {
		tg.wg.Add(1)
		go tg.workerLoop(i, workerCtx)
	}
	tg.hooks.Logger.Debug("background pool started", core.F("pool", tg.id), core.F("workers", tg.workers))
}

// Stop stops the pool, dropping queued tasks; tasks already running finish.
func (tg *GoroutineThreadPool) Stop() {
	// Always shutdown scheduler to release queued tasks even if never started
	tg.scheduler.Shutdown()

	tg.runningMu.Lock()
	if !tg.running {
		tg.runningMu.Unlock()
		return
	}
	tg.runningMu.Unlock()

	if tg.cancel != nil {
		tg.cancel()
	}
	tg.Join()

	tg.runningMu.Lock()
	tg.running = false
	tg.runningMu.Unlock()
}

// StopGraceful stops accepting tasks and waits for queued ones to complete.
// Returns error if timeout is exceeded before tasks complete; workers are
// released either way.
func (tg *GoroutineThreadPool) StopGraceful(timeout time.Duration) error {
	tg.runningMu.Lock()
	if !tg.running {
		tg.runningMu.Unlock()
		tg.scheduler.Shutdown()
		return nil
	}
	tg.runningMu.Unlock()

	err := tg.scheduler.ShutdownGraceful(timeout)

	if tg.cancel != nil {
		tg.cancel()
	}
	tg.Join()

	tg.runningMu.Lock()
	tg.running = false
	tg.runningMu.Unlock()

	return err
}

// Retire stops accepting tasks and blocks until the workers have run
// everything already submitted, then releases them. Unlike StopGraceful
// there is no deadline.
func (tg *GoroutineThreadPool) Retire() {
	tg.runningMu.Lock()
	if !tg.running {
		tg.runningMu.Unlock()
		tg.scheduler.Shutdown()
		return
	}
	tg.runningMu.Unlock()

	tg.scheduler.Drain()

	if tg.cancel != nil {
		tg.cancel()
	}
	tg.Join()

	tg.runningMu.Lock()
	tg.running = false
	tg.runningMu.Unlock()
}

// ID returns the ID of the thread pool
func (tg *GoroutineThreadPool) ID() string {
	return tg.id
}

// IsRunning returns whether the thread pool is running
func (tg *GoroutineThreadPool) IsRunning() bool {
	tg.runningMu.RLock()
	defer tg.runningMu.RUnlock()
	return tg.running
}

// Submit enqueues task for some idle worker and returns immediately.
func (tg *GoroutineThreadPool) Submit(task core.Task) {
	if task == nil {
		return
	}
	tg.scheduler.Post(task)
}

// PostTask implements core.TaskRunner.
func (tg *GoroutineThreadPool) PostTask(task core.Task) {
	tg.Submit(task)
}

// Execute submits a plain func, for callers that only need an executor.
func (tg *GoroutineThreadPool) Execute(fn func()) {
	if fn == nil {
		return
	}
	tg.Submit(func(context.Context) { fn() })
}

// workerLoop is the main loop for each worker
func (tg *GoroutineThreadPool) workerLoop(id int, ctx context.Context) {
	defer tg.wg.Done()
	stopCh := ctx.Done()

	for {
		task, ok := tg.scheduler.GetWork(stopCh)
		if !ok {
			// Scheduler closed or context canceled
			return
		}
		tg.runTask(id, ctx, task)
	}
}

func (tg *GoroutineThreadPool) runTask(id int, ctx context.Context, task core.Task) {
	tg.scheduler.OnTaskStart()
	start := tg.hooks.Clock.Now()
	defer func() {
		tg.scheduler.OnTaskEnd()
		if r := recover(); r != nil {
			tg.hooks.PanicHandler.HandlePanic(ctx, tg.id, id, r, debug.Stack())
			tg.hooks.Metrics.RecordTaskPanic(tg.id, r)
		}
		tg.hooks.Metrics.RecordTaskDuration(tg.id, tg.hooks.Clock.Since(start))
	}()
	task(ctx)
}

// Join waits for all worker goroutines to finish
func (tg *GoroutineThreadPool) Join() {
	tg.wg.Wait()
}

// WorkerCount returns the number of workers
func (tg *GoroutineThreadPool) WorkerCount() int {
	return tg.workers
}

func (tg *GoroutineThreadPool) QueuedTaskCount() int {
	return tg.scheduler.QueuedTaskCount()
}

func (tg *GoroutineThreadPool) ActiveTaskCount() int {
	return tg.scheduler.ActiveTaskCount()
}

// Stats returns a snapshot of the pool state.
func (tg *GoroutineThreadPool) Stats() core.PoolStats {
	return core.PoolStats{
		ID:       tg.id,
		Workers:  tg.workers,
		Queued:   tg.scheduler.QueuedTaskCount(),
		Active:   tg.scheduler.ActiveTaskCount(),
		Rejected: tg.scheduler.RejectedTaskCount(),
		Running:  tg.IsRunning(),
	}
}
