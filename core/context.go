package core

import "context"

// =============================================================================
// Execution context identity
// =============================================================================

type taskRunnerKeyType struct{}

var taskRunnerKey taskRunnerKeyType

// WithTaskRunner returns a copy of ctx that names runner as the current
// execution context. Runners call this once per loop, never per task.
func WithTaskRunner(ctx context.Context, runner TaskRunner) context.Context {
	return context.WithValue(ctx, taskRunnerKey, runner)
}

// CurrentTaskRunner retrieves the runner executing the task that owns ctx.
// It returns nil when ctx was not produced by a runner (e.g. a plain
// goroutine, or a task running inline on its caller).
func CurrentTaskRunner(ctx context.Context) TaskRunner {
	if ctx == nil {
		return nil
	}
	if v := ctx.Value(taskRunnerKey); v != nil {
		return v.(TaskRunner)
	}
	return nil
}

// IsRunningOn reports whether ctx belongs to a task executing on runner.
func IsRunningOn(ctx context.Context, runner TaskRunner) bool {
	if runner == nil {
		return false
	}
	current := CurrentTaskRunner(ctx)
	return current != nil && current == runner
}
