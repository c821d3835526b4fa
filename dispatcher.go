package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/Swind/go-dispatcher/core"
)

// Dispatcher routes tasks either onto the foreground runner or onto the
// background pool.
//
// Routing for RunInBackground / Dispatch is asymmetric:
//   - forceBackground: always the pool.
//   - caller is on the foreground: the pool; the foreground only runs
//     work explicitly posted to it.
//   - anything else: inline, on the caller's goroutine, before returning.
//
// The caller identifies its execution context through ctx; tasks executed by
// the foreground runner receive a ctx for which IsForeground reports true.
type Dispatcher struct {
	cfg    Config
	hooks  core.Hooks
	hosted bool

	foreground     atomic.Pointer[core.ForegroundTaskRunner]
	foregroundOnce sync.Once

	pool   atomic.Pointer[GoroutineThreadPool]
	poolMu sync.Mutex

	retired  map[*GoroutineThreadPool]struct{}
	retiring sync.WaitGroup
	closed   atomic.Bool
}

// Option configures a Dispatcher.
type Option func(*options)

type options struct {
	cfg    Config
	hooks  core.Hooks
	hosted bool
}

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger sets the logger; defaults to a slog text logger at Config.LogLevel.
func WithLogger(logger core.Logger) Option {
	return func(o *options) { o.hooks.Logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(metrics core.Metrics) Option {
	return func(o *options) { o.hooks.Metrics = metrics }
}

// WithPanicHandler sets the handler for panics in queued tasks.
func WithPanicHandler(h core.PanicHandler) Option {
	return func(o *options) { o.hooks.PanicHandler = h }
}

// WithRejectedTaskHandler sets the handler for tasks posted after shutdown.
func WithRejectedTaskHandler(h core.RejectedTaskHandler) Option {
	return func(o *options) { o.hooks.RejectedTaskHandler = h }
}

// WithClock sets the clock used for task timing and pool draining.
func WithClock(clock quartz.Clock) Option {
	return func(o *options) { o.hooks.Clock = clock }
}

// WithHostedForeground leaves the foreground loop to the host: nothing runs
// on the foreground until the host calls RunForeground, usually from main.
func WithHostedForeground() Option {
	return func(o *options) { o.hosted = true }
}

// New creates a Dispatcher and starts its background pool.
// The foreground runner is created on first use.
func New(opts ...Option) (*Dispatcher, error) {
	o := options{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	if o.hooks.Logger == nil {
		o.hooks.Logger = o.cfg.Logger()
	}

	d := &Dispatcher{
		cfg:    o.cfg,
		hooks:  o.hooks.Normalize(),
		hosted: o.hosted,
	}
	d.pool.Store(d.newPool())
	return d, nil
}

func (d *Dispatcher) newPool() *GoroutineThreadPool {
	id := fmt.Sprintf("%s-%s", d.cfg.PoolName, uuid.NewString()[:8])
	pool := NewGoroutineThreadPool(id, DefaultPoolWorkers, d.hooks)
	pool.Start(context.Background())
	return pool
}

// Config returns the configuration the Dispatcher was built with.
func (d *Dispatcher) Config() Config {
	return d.cfg
}

// Foreground returns the foreground runner, creating it on first call.
// Concurrent first calls observe the same runner.
func (d *Dispatcher) Foreground() *core.ForegroundTaskRunner {
	d.foregroundOnce.Do(func() {
		runner := core.NewForegroundTaskRunner(core.ForegroundConfig{
			Name:         d.cfg.ForegroundName,
			LockOSThread: d.cfg.LockOSThread,
			Hooks:        d.hooks,
		})
		switch {
		case d.closed.Load():
			runner.Shutdown()
		case !d.hosted:
			if err := runner.Start(); err != nil {
				d.hooks.Logger.Error("failed to start foreground runner", core.F("error", err))
			}
		}
		d.foreground.Store(runner)
	})
	return d.foreground.Load()
}

// RunForeground drives the foreground loop on the calling goroutine until ctx
// is done or the Dispatcher is closed. Only valid with WithHostedForeground.
func (d *Dispatcher) RunForeground(ctx context.Context) error {
	if !d.hosted {
		return fmt.Errorf("%w: foreground loop is owned by the dispatcher", core.ErrAlreadyRunning)
	}
	return d.Foreground().Run(ctx)
}

// IsForeground reports whether ctx belongs to a task running on the
// foreground runner.
func (d *Dispatcher) IsForeground(ctx context.Context) bool {
	fg := d.foreground.Load()
	if fg == nil {
		return false
	}
	return core.IsRunningOn(ctx, fg)
}

// RunOnForeground queues task on the foreground runner. It never runs task
// synchronously, even when the caller is already on the foreground.
func (d *Dispatcher) RunOnForeground(task core.Task) {
	if task == nil {
		return
	}
	d.record(core.RouteForeground)
	d.Foreground().PostTask(task)
}

// RunInBackground is Dispatch(ctx, task, false).
func (d *Dispatcher) RunInBackground(ctx context.Context, task core.Task) {
	d.Dispatch(ctx, task, false)
}

// RunInBackgroundForced is Dispatch(ctx, task, true).
func (d *Dispatcher) RunInBackgroundForced(ctx context.Context, task core.Task) {
	d.Dispatch(ctx, task, true)
}

// Dispatch routes task as described on Dispatcher. The inline branch blocks
// for the duration of task and does not recover its panics.
func (d *Dispatcher) Dispatch(ctx context.Context, task core.Task, forceBackground bool) {
	if task == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if forceBackground || d.IsForeground(ctx) {
		d.record(core.RouteBackground)
		d.pool.Load().Submit(task)
		return
	}

	d.record(core.RouteInline)
	task(ctx)
}

func (d *Dispatcher) record(route core.Route) {
	d.hooks.Metrics.RecordDispatch(route)
	d.hooks.Logger.Debug("task dispatched", core.F("route", route.String()))
}

// BackgroundExecutor returns the current background pool for direct
// submission. After ResetPool the returned pool no longer accepts work.
func (d *Dispatcher) BackgroundExecutor() *GoroutineThreadPool {
	return d.pool.Load()
}

// ResetPool atomically replaces the background pool with a fresh one and
// returns it. Tasks already submitted to the old pool are neither migrated
// nor cancelled: the old pool rejects new work and keeps its workers until
// it has run all of them. Only Close bounds that drain.
func (d *Dispatcher) ResetPool() *GoroutineThreadPool {
	d.poolMu.Lock()
	defer d.poolMu.Unlock()

	if d.closed.Load() {
		return d.pool.Load()
	}

	fresh := d.newPool()
	old := d.pool.Swap(fresh)
	d.hooks.Logger.Info("background pool replaced", core.F("old", old.ID()), core.F("new", fresh.ID()))

	d.retire(old)
	return fresh
}

// retire must be called with poolMu held.
func (d *Dispatcher) retire(pool *GoroutineThreadPool) {
	if d.retired == nil {
		d.retired = make(map[*GoroutineThreadPool]struct{})
	}
	d.retired[pool] = struct{}{}
	d.retiring.Add(1)
	go func() {
		defer d.retiring.Done()
		pool.Retire()
		d.poolMu.Lock()
		delete(d.retired, pool)
		d.poolMu.Unlock()
		d.hooks.Logger.Debug("background pool retired", core.F("pool", pool.ID()))
	}()
}

// Stats returns snapshots of the foreground runner (if created) and the
// current pool.
func (d *Dispatcher) Stats() (core.RunnerStats, core.PoolStats) {
	var rs core.RunnerStats
	if fg := d.foreground.Load(); fg != nil {
		rs = fg.Stats()
	}
	return rs, d.pool.Load().Stats()
}

// Close stops the foreground runner and drains the current pool and any
// pool still retiring, each for up to Config.DrainTimeout.
// Must not be called from a foreground task.
func (d *Dispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	// A runner created from here on starts closed; one created concurrently
	// is visible once Foreground returns.
	d.Foreground().Stop()

	d.poolMu.Lock()
	pools := []*GoroutineThreadPool{d.pool.Load()}
	for p := range d.retired {
		pools = append(pools, p)
	}
	d.poolMu.Unlock()

	var errs []error
	for _, p := range pools {
		if err := p.StopGraceful(d.cfg.DrainTimeout); err != nil {
			errs = append(errs, err)
		}
	}
	d.retiring.Wait()
	return errors.Join(errs...)
}
