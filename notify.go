package dispatcher

import "github.com/Swind/go-dispatcher/core"

// NotifySuccess delivers value to listener on d's foreground runner.
// A nil listener is a no-op. A typed nil pointer is not nil here: its
// OnSuccess still runs, and a panic from it is recovered by the runner.
// The ctx given to the callback reports IsForeground, so dispatching from
// it goes to the pool.
func NotifySuccess[T any](d *Dispatcher, listener core.Listener[T], value T) {
	if listener == nil {
		return
	}
	d.record(core.RouteForeground)
	core.PostSuccess(d.Foreground(), listener, value)
}

// NotifyError delivers err to listener on d's foreground runner.
// A nil listener is a no-op.
func NotifyError(d *Dispatcher, listener core.ErrorListener, err *core.CommandError) {
	if listener == nil {
		return
	}
	d.record(core.RouteForeground)
	core.PostError(d.Foreground(), listener, err)
}

// NotifyResult delivers value, or err when it is non-nil, to listener on d's
// foreground runner.
func NotifyResult[T any](d *Dispatcher, listener core.Listener[T], value T, err error) {
	if listener == nil {
		return
	}
	d.record(core.RouteForeground)
	core.PostResult(d.Foreground(), listener, value, err)
}
