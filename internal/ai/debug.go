package ai

import (
	"log/slog"
	"sync/atomic"
)

// traceEnabled switches on per-enemy transition and tick-manager traces.
// With hundreds of enemies ticking at 20Hz, building attributes only when
// tracing is on keeps the AI pass allocation free.
var traceEnabled atomic.Bool

// EnableDebugLogging turns AI tracing on or off. The binary enables it when
// the log level is debug.
func EnableDebugLogging(enabled bool) {
	traceEnabled.Store(enabled)
}

// IsDebugEnabled reports whether AI tracing is on. Callers outside the
// package guard their own debug lines with it:
//
//	if ai.IsDebugEnabled() {
//	    slog.Debug("enemy attack rejected", "handle", h, "reason", err)
//	}
func IsDebugEnabled() bool {
	return traceEnabled.Load()
}

// traceTransition logs an applied state change.
func traceTransition(from, to StateID) {
	if !traceEnabled.Load() {
		return
	}
	slog.Debug("AI state changed", "from", from, "to", to)
}
