package netutil

import "github.com/coder/quartz"

var realClock = quartz.NewReal()

// CurrentUnixTimeSeconds returns wall-clock seconds since the epoch.
func CurrentUnixTimeSeconds() int64 {
	return UnixTimeSeconds(realClock)
}

// UnixTimeSeconds reads clock at millisecond resolution and truncates to
// whole seconds.
func UnixTimeSeconds(clock quartz.Clock) int64 {
	return clock.Now("netutil", "unix").UnixMilli() / 1000
}
