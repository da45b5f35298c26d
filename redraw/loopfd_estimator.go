//go:build linux

package redraw

import (
	"time"

	"driftwm.dev/driftwm/internal/loopfd"
)

// LoopfdEstimator adapts an internal/loopfd.Loop to the VBlankEstimator
// interface, so Output can synthesize OnVBlank calls for backends without
// real presentation feedback by arming a timerfd on the compositor's main
// event loop.
type LoopfdEstimator struct {
	Loop *loopfd.Loop
}

// Arm schedules cb to run on the loop's goroutine after d elapses.
func (e LoopfdEstimator) Arm(d time.Duration, cb func()) {
	if e.Loop == nil {
		return
	}
	e.Loop.AddTimer(d, cb) //nolint:errcheck
}
