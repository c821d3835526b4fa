package core

import "context"

// Task is the unit of work (Closure).
// The ctx passed to a task names the runner executing it, see CurrentTaskRunner.
type Task func(ctx context.Context)

// TaskRunner accepts tasks for asynchronous execution.
type TaskRunner interface {
	PostTask(task Task)
}

// Route names the path a dispatched task took.
type Route int

const (
	// RouteForeground: queued onto the foreground runner
	RouteForeground Route = iota

	// RouteBackground: submitted to the background pool
	RouteBackground

	// RouteInline: executed synchronously on the caller's goroutine
	RouteInline
)

func (r Route) String() string {
	switch r {
	case RouteForeground:
		return "foreground"
	case RouteBackground:
		return "background"
	case RouteInline:
		return "inline"
	default:
		return "unknown"
	}
}
