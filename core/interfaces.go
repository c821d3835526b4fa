package core

import (
	"context"
	"time"

	"github.com/coder/quartz"
)

// =============================================================================
// PanicHandler: Interface for handling task panics
// =============================================================================

// PanicHandler is called when a queued task panics during execution.
// Tasks run inline on their caller are never recovered.
//
// Implementations should be thread-safe as they may be called concurrently.
type PanicHandler interface {
	// HandlePanic is called when a task panics.
	//
	// Parameters:
	// - ctx: The context from the panicked task (names the runner)
	// - runnerName: The name of the runner or pool where the panic occurred
	// - workerID: The ID of the pool worker, -1 for the foreground runner
	// - panicInfo: The panic value recovered from the task
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(ctx context.Context, runnerName string, workerID int, panicInfo any, stackTrace []byte)
}

// LoggingPanicHandler reports panics through a Logger.
type LoggingPanicHandler struct {
	Logger Logger
}

// HandlePanic logs the panic with its stack trace at error level.
func (h *LoggingPanicHandler) HandlePanic(ctx context.Context, runnerName string, workerID int, panicInfo any, stackTrace []byte) {
	logger := h.Logger
	if logger == nil {
		logger = NewDefaultLogger()
	}
	logger.Error("task panicked",
		F("runner", runnerName),
		F("worker", workerID),
		F("panic", panicInfo),
		F("stack", string(stackTrace)),
	)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting dispatch metrics.
// Methods should be non-blocking and fast; they run on the hot path.
type Metrics interface {
	// RecordDispatch records which route a dispatched task took.
	RecordDispatch(route Route)

	// RecordTaskDuration records how long a queued task took to execute.
	RecordTaskDuration(runnerName string, duration time.Duration)

	// RecordTaskPanic records that a queued task panicked.
	RecordTaskPanic(runnerName string, panicInfo any)

	// RecordQueueDepth records the current queue depth of a runner or pool.
	RecordQueueDepth(runnerName string, depth int)

	// RecordTaskRejected records that a task was rejected (e.g., during shutdown).
	RecordTaskRejected(runnerName string, reason string)
}

// NilMetrics provides a no-op metrics implementation.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

func (m *NilMetrics) RecordDispatch(route Route)                                   {}
func (m *NilMetrics) RecordTaskDuration(runnerName string, duration time.Duration) {}
func (m *NilMetrics) RecordTaskPanic(runnerName string, panicInfo any)             {}
func (m *NilMetrics) RecordQueueDepth(runnerName string, depth int)                {}
func (m *NilMetrics) RecordTaskRejected(runnerName string, reason string)          {}

// =============================================================================
// RejectedTaskHandler: Interface for handling rejected tasks
// =============================================================================

// RejectedTaskHandler is called when a task is posted to a runner or pool
// that has already been shut down.
//
// Implementations should be thread-safe as they may be called concurrently.
type RejectedTaskHandler interface {
	HandleRejectedTask(runnerName string, reason string)
}

// LoggingRejectedTaskHandler logs rejected tasks at warn level.
type LoggingRejectedTaskHandler struct {
	Logger Logger
}

// HandleRejectedTask logs the rejected task.
func (h *LoggingRejectedTaskHandler) HandleRejectedTask(runnerName string, reason string) {
	logger := h.Logger
	if logger == nil {
		logger = NewDefaultLogger()
	}
	logger.Warn("task rejected", F("runner", runnerName), F("reason", reason))
}

// =============================================================================
// Hooks: shared handler set for runners and pools
// =============================================================================

// Hooks bundles the pluggable handlers used by runners and schedulers.
// Zero fields are replaced with defaults by Normalize.
type Hooks struct {
	Logger              Logger
	PanicHandler        PanicHandler
	Metrics             Metrics
	RejectedTaskHandler RejectedTaskHandler

	// Clock drives task timing and graceful-drain polling.
	Clock quartz.Clock
}

// DefaultHooks returns hooks with default handlers.
func DefaultHooks() Hooks {
	return Hooks{}.Normalize()
}

// Normalize fills missing handlers with defaults.
func (h Hooks) Normalize() Hooks {
	if h.Logger == nil {
		h.Logger = NewDefaultLogger()
	}
	if h.PanicHandler == nil {
		h.PanicHandler = &LoggingPanicHandler{Logger: h.Logger}
	}
	if h.Metrics == nil {
		h.Metrics = &NilMetrics{}
	}
	if h.RejectedTaskHandler == nil {
		h.RejectedTaskHandler = &LoggingRejectedTaskHandler{Logger: h.Logger}
	}
	if h.Clock == nil {
		h.Clock = quartz.NewReal()
	}
	return h
}
