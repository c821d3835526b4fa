package core

import "context"

// =============================================================================
// Listeners
// =============================================================================

// ErrorListener receives a failure notification. ctx names the runner the
// callback executes on, so work dispatched from it is routed accordingly.
type ErrorListener interface {
	OnError(ctx context.Context, err *CommandError)
}

// Listener receives either the value produced by an operation or the error
// that prevented it.
type Listener[T any] interface {
	ErrorListener
	OnSuccess(ctx context.Context, value T)
}

// ListenerFuncs adapts a pair of funcs to Listener. A nil func ignores its
// notification.
type ListenerFuncs[T any] struct {
	Success func(ctx context.Context, value T)
	Error   func(ctx context.Context, err *CommandError)
}

func (l ListenerFuncs[T]) OnSuccess(ctx context.Context, value T) {
	if l.Success != nil {
		l.Success(ctx, value)
	}
}

func (l ListenerFuncs[T]) OnError(ctx context.Context, err *CommandError) {
	if l.Error != nil {
		l.Error(ctx, err)
	}
}

// ErrorListenerFunc adapts a func to ErrorListener.
type ErrorListenerFunc func(ctx context.Context, err *CommandError)

func (f ErrorListenerFunc) OnError(ctx context.Context, err *CommandError) { f(ctx, err) }

// =============================================================================
// Notification helpers
// =============================================================================

// PostSuccess posts a call to listener.OnSuccess onto runner.
// A nil listener is a no-op. The call always happens asynchronously, on
// runner, exactly once.
//
// Only an untyped nil counts as absent: a nil pointer stored in the
// interface is called like any other listener, and if its method panics
// the runner recovers and reports that panic.
func PostSuccess[T any](runner TaskRunner, listener Listener[T], value T) {
	if listener == nil {
		return
	}
	runner.PostTask(func(ctx context.Context) {
		listener.OnSuccess(ctx, value)
	})
}

// PostError posts a call to listener.OnError onto runner.
// A nil listener is a no-op, with the same typed-nil caveat as PostSuccess.
func PostError(runner TaskRunner, listener ErrorListener, err *CommandError) {
	if listener == nil {
		return
	}
	runner.PostTask(func(ctx context.Context) {
		listener.OnError(ctx, err)
	})
}

// PostResult posts value to listener when err is nil, otherwise err
// (converted with AsCommandError).
func PostResult[T any](runner TaskRunner, listener Listener[T], value T, err error) {
	if err != nil {
		if listener == nil {
			return
		}
		PostError(runner, listener, AsCommandError(err))
		return
	}
	PostSuccess(runner, listener, value)
}
