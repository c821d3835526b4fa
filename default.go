package dispatcher

import (
	"context"
	"sync"

	"github.com/Swind/go-dispatcher/core"
	"github.com/ygrebnov/errorc"
)

// =============================================================================
// Process-wide Dispatcher (Singleton)
// =============================================================================

var (
	defaultDispatcher *Dispatcher
	defaultOnce       sync.Once
)

// SetDefault installs d as the process-wide Dispatcher. It must happen before
// the first call to Default; afterwards it returns ErrDefaultConfigured.
// A nil d is rejected with ErrInvalidConfig.
func SetDefault(d *Dispatcher) error {
	if d == nil {
		return errorc.With(ErrInvalidConfig, errorc.String("dispatcher", "must not be nil"))
	}
	installed := false
	defaultOnce.Do(func() {
		defaultDispatcher = d
		installed = true
	})
	if !installed {
		return ErrDefaultConfigured
	}
	return nil
}

// Default returns the process-wide Dispatcher, building it on first use from
// DefaultConfig plus DISPATCHER_* environment overrides. Concurrent first
// calls observe the same instance.
func Default() *Dispatcher {
	defaultOnce.Do(func() {
		cfg, err := LoadConfig("")
		if err != nil {
			cfg = DefaultConfig()
		}
		d, newErr := New(WithConfig(cfg))
		if newErr != nil {
			panic(newErr)
		}
		if err != nil {
			d.hooks.Logger.Warn("ignoring invalid environment configuration", core.F("error", err))
		}
		defaultDispatcher = d
	})
	return defaultDispatcher
}

// RunOnForeground queues task on the default Dispatcher's foreground runner.
func RunOnForeground(task core.Task) {
	Default().RunOnForeground(task)
}

// RunInBackground routes task through the default Dispatcher.
func RunInBackground(ctx context.Context, task core.Task) {
	Default().RunInBackground(ctx, task)
}

// RunInBackgroundForced submits task to the default Dispatcher's pool.
func RunInBackgroundForced(ctx context.Context, task core.Task) {
	Default().RunInBackgroundForced(ctx, task)
}

// IsForeground reports whether ctx belongs to the default foreground runner.
func IsForeground(ctx context.Context) bool {
	return Default().IsForeground(ctx)
}

// BackgroundExecutor returns the default Dispatcher's pool.
func BackgroundExecutor() *GoroutineThreadPool {
	return Default().BackgroundExecutor()
}
