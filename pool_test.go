package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Swind/go-dispatcher/core"
)

func quietHooks() core.Hooks {
	return core.Hooks{Logger: core.NewNoOpLogger()}
}

func TestGoroutineThreadPool_Lifecycle(t *testing.T) {
	pool := NewGoroutineThreadPool("test-pool", 2, quietHooks())

	if pool.ID() != "test-pool" {
		t.Errorf("expected ID 'test-pool', got %s", pool.ID())
	}

	if pool.IsRunning() {
		t.Error("pool should not be running initially")
	}

	ctx := context.Background()
	pool.Start(ctx)

	if !pool.IsRunning() {
		t.Error("pool should be running after Start()")
	}

	if pool.WorkerCount() != 2 {
		t.Errorf("expected 2 workers, got %d", pool.WorkerCount())
	}

	pool.Stop()

	if pool.IsRunning() {
		t.Error("pool should not be running after Stop()")
	}
}

func TestGoroutineThreadPool_TaskExecution(t *testing.T) {
	pool := NewGoroutineThreadPool("exec-pool", 4, quietHooks())
	pool.Start(context.Background())
	defer pool.Stop()

	var counter int32
	var wg sync.WaitGroup
	taskCount := 10

	wg.Add(taskCount)

	task := func(ctx context.Context) {
		defer wg.Done()
		atomic.AddInt32(&counter, 1)
		time.Sleep(10 * time.Millisecond) // Simulate work
	}

	for i := 0; i < taskCount; i++ {
		pool.Submit(task)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for tasks")
	}

	if atomic.LoadInt32(&counter) != int32(taskCount) {
		t.Errorf("expected %d tasks executed, got %d", taskCount, counter)
	}
}

func TestGoroutineThreadPool_Metrics(t *testing.T) {
	pool := NewGoroutineThreadPool("metrics-pool", 1, quietHooks()) // Single worker to force queuing
	pool.Start(context.Background())
	defer pool.Stop()

	// 1. Block the worker
	blockCh := make(chan struct{})
	bgDone := make(chan struct{})

	pool.Submit(func(ctx context.Context) {
		<-blockCh
		bgDone <- struct{}{}
	})

	// Wait a bit for worker to pick it up
	time.Sleep(50 * time.Millisecond)

	if active := pool.ActiveTaskCount(); active != 1 {
		t.Errorf("expected 1 active task, got %d", active)
	}

	// 2. Queue more tasks
	pool.Submit(func(ctx context.Context) {})
	pool.Execute(func() {})

	if queued := pool.QueuedTaskCount(); queued != 2 {
		t.Errorf("expected 2 queued tasks, got %d", queued)
	}

	// 3. Unblock
	close(blockCh)
	<-bgDone

	// Wait for drain
	time.Sleep(100 * time.Millisecond)

	stats := pool.Stats()
	if stats.Active != 0 || stats.Queued != 0 {
		t.Errorf("expected drained pool, got %+v", stats)
	}
	if stats.ID != "metrics-pool" || stats.Workers != 1 || !stats.Running {
		t.Errorf("unexpected stats %+v", stats)
	}
}

// TestGoroutineThreadPool_TaskContext verifies workers hand out a context naming the pool
func TestGoroutineThreadPool_TaskContext(t *testing.T) {
	pool := NewGoroutineThreadPool("ctx-pool", 1, quietHooks())
	pool.Start(context.Background())
	defer pool.Stop()

	result := make(chan bool, 1)
	pool.PostTask(func(ctx context.Context) {
		result <- core.IsRunningOn(ctx, pool)
	})

	select {
	case ok := <-result:
		if !ok {
			t.Error("task context does not name the pool")
		}
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
}

// TestGoroutineThreadPool_PanicRecovery verifies a panicking task leaves its worker alive
func TestGoroutineThreadPool_PanicRecovery(t *testing.T) {
	var panics atomic.Int32
	hooks := quietHooks()
	hooks.PanicHandler = panicCounter(func() { panics.Add(1) })
	pool := NewGoroutineThreadPool("panic-pool", 1, hooks)
	pool.Start(context.Background())
	defer pool.Stop()

	done := make(chan struct{})
	pool.Submit(func(ctx context.Context) { panic("boom") })
	pool.Submit(func(ctx context.Context) { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not survive the panic")
	}
	if panics.Load() != 1 {
		t.Errorf("panic handler called %d times, want 1", panics.Load())
	}
}

// =============================================================================
// Graceful Shutdown Tests
// =============================================================================

func TestGoroutineThreadPool_StopGraceful_EmptyQueue(t *testing.T) {
	pool := NewGoroutineThreadPool("graceful-pool", 2, quietHooks())
	pool.Start(context.Background())

	// No tasks queued, should stop immediately
	err := pool.StopGraceful(1 * time.Second)
	if err != nil {
		t.Fatalf("StopGraceful failed: %v", err)
	}

	if pool.IsRunning() {
		t.Error("pool should not be running after StopGraceful")
	}
}

func TestGoroutineThreadPool_StopGraceful_WithQueuedTasks(t *testing.T) {
	pool := NewGoroutineThreadPool("graceful-queued-pool", 2, quietHooks())
	pool.Start(context.Background())

	var executed int32
	taskCount := 5

	for i := 0; i < taskCount; i++ {
		pool.Submit(func(ctx context.Context) {
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&executed, 1)
		})
	}

	if err := pool.StopGraceful(time.Second); err != nil {
		t.Errorf("StopGraceful failed: %v", err)
	}

	if atomic.LoadInt32(&executed) != int32(taskCount) {
		t.Errorf("expected %d executed tasks, got %d", taskCount, executed)
	}

	if pool.IsRunning() {
		t.Error("pool should not be running after StopGraceful")
	}
}

func TestGoroutineThreadPool_StopGraceful_Timeout(t *testing.T) {
	pool := NewGoroutineThreadPool("timeout-pool", 1, quietHooks())
	pool.Start(context.Background())

	// The task checks context and should exit when the pool cancels it
	pool.Submit(func(ctx context.Context) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-ctx.Done():
		}
	})

	// Wait for task to start
	time.Sleep(20 * time.Millisecond)

	start := time.Now()
	err := pool.StopGraceful(50 * time.Millisecond)
	elapsed := time.Since(start)

	if !errors.Is(err, core.ErrShutdownTimeout) {
		t.Errorf("expected ErrShutdownTimeout, got %v", err)
	}

	// Roughly timeout + one poll interval, not the task duration
	if elapsed > 300*time.Millisecond {
		t.Errorf("StopGraceful took too long: %v", elapsed)
	}

	if pool.IsRunning() {
		t.Error("pool should not be running after timeout StopGraceful")
	}
}

func TestGoroutineThreadPool_Retire(t *testing.T) {
	pool := NewGoroutineThreadPool("retire-pool", 2, quietHooks())
	pool.Start(context.Background())

	var executed int32
	taskCount := 8
	for i := 0; i < taskCount; i++ {
		pool.Submit(func(ctx context.Context) {
			time.Sleep(30 * time.Millisecond)
			atomic.AddInt32(&executed, 1)
		})
	}

	// Longer than StopGraceful(50ms) would allow
	pool.Retire()

	if atomic.LoadInt32(&executed) != int32(taskCount) {
		t.Errorf("expected %d executed tasks, got %d", taskCount, executed)
	}
	if pool.IsRunning() {
		t.Error("pool should not be running after Retire")
	}
}

func TestGoroutineThreadPool_SubmitAfterStop(t *testing.T) {
	pool := NewGoroutineThreadPool("stopped-pool", 1, quietHooks())
	pool.Start(context.Background())
	pool.Stop()

	var ran atomic.Bool
	pool.Submit(func(ctx context.Context) { ran.Store(true) })
	time.Sleep(20 * time.Millisecond)

	if ran.Load() {
		t.Error("task submitted after Stop ran")
	}
	if pool.Stats().Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", pool.Stats().Rejected)
	}
}

type panicCounter func()

func (f panicCounter) HandlePanic(ctx context.Context, runnerName string, workerID int, panicInfo any, stackTrace []byte) {
	f()
}
