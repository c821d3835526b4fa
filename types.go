package dispatcher

import "github.com/Swind/go-dispatcher/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the dispatcher package for most use cases.

// Task is the unit of work (Closure)
type Task = core.Task

// TaskRunner is the interface for posting tasks
type TaskRunner = core.TaskRunner

// ForegroundTaskRunner runs every task on the single foreground goroutine
type ForegroundTaskRunner = core.ForegroundTaskRunner

// Route names the path a dispatched task took
type Route = core.Route

// Listener receives a success value or a CommandError
type Listener[T any] = core.Listener[T]

// ErrorListener receives a CommandError
type ErrorListener = core.ErrorListener

// ListenerFuncs adapts two funcs to Listener
type ListenerFuncs[T any] = core.ListenerFuncs[T]

// CommandError is the structured error delivered to listeners
type CommandError = core.CommandError

// Route constants
const (
	RouteForeground = core.RouteForeground
	RouteBackground = core.RouteBackground
	RouteInline     = core.RouteInline
)

// Convenience constructors for CommandError
var (
	NewCommandError        = core.NewCommandError
	CommandErrorFromStatus = core.CommandErrorFromStatus
)
