// Package frameclock predicts the next VBlank/presentation time for an
// output, so the redraw scheduler knows how long it can wait before it must
// start rendering the next frame.
package frameclock

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"driftwm.dev/driftwm/internal/logging"
)

// Source returns the current raw monotonic time, matching clockz.Clock's
// Now() but scoped down to what FrameClock actually needs.
type Source func() time.Time

// FrameClock tracks an output's refresh interval and the last time a frame
// was actually presented, to predict when the next one will land.
type FrameClock struct {
	mu sync.Mutex

	refreshInterval time.Duration // 0 means "unknown/no fixed interval"
	vrr             bool
	lastPresented   *time.Time

	now    Source
	logger *slog.Logger
}

// New creates a FrameClock with the given refresh interval (0 if unknown)
// and VRR flag. now defaults to time.Now if nil.
func New(refreshInterval time.Duration, vrr bool, now Source) *FrameClock {
	if now == nil {
		now = time.Now
	}
	return &FrameClock{
		refreshInterval: refreshInterval,
		vrr:             vrr,
		now:             now,
		logger:          logging.New(os.Stderr, slog.LevelWarn),
	}
}

// SetVRR toggles variable refresh rate mode. Changing it drops the last
// presentation time, since VRR and fixed-rate outputs predict differently.
func (f *FrameClock) SetVRR(vrr bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.vrr == vrr {
		return
	}
	f.vrr = vrr
	f.lastPresented = nil
}

// VRR reports whether this output is currently in variable refresh mode.
func (f *FrameClock) VRR() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vrr
}

// RefreshInterval returns the fixed refresh interval, or 0 if unknown.
func (f *FrameClock) RefreshInterval() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshInterval
}

// SetRefreshInterval updates the fixed refresh interval (0 clears it).
func (f *FrameClock) SetRefreshInterval(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshInterval = d
}

// Presented records that a frame was actually presented at t. Zero
// timestamps (meaning "presentation feedback carried no usable time") are
// ignored.
func (f *FrameClock) Presented(t time.Time) {
	if t.IsZero() {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPresented = &t
}

// NextPresentationTime predicts when the next frame will be presented,
// following a five-step algorithm:
//  1. No known interval or no presentation history: present now.
//  2. An early VBlank (now is at or before the last presentation): push now
//     forward by one interval. If that's still not enough to get past the
//     last presentation, this is a 2+ frame early VBlank; log it distinctly
//     and recalibrate now to exactly one interval past the last
//     presentation.
//  3. Compute how many whole refresh intervals have passed since the
//     (possibly corrected) last presentation and predict one interval past
//     the last full tick.
//  4. Under VRR, if the predicted time is more than one interval after the
//     last presentation (at least one whole frame was missed), the display
//     can actually present sooner than a fixed-rate prediction would
//     suggest, so just return now.
//  5. Otherwise, return the predicted time.
func (f *FrameClock) NextPresentationTime() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()

	if f.refreshInterval <= 0 || f.lastPresented == nil {
		return now
	}

	last := *f.lastPresented
	if !now.After(last) {
		origNow := now
		now = now.Add(f.refreshInterval)

		if now.Before(last) {
			f.logger.Error("got a 2+ early VBlank",
				"now", origNow, "last_presentation_time", last)
			now = last.Add(f.refreshInterval)
		}
	}

	sinceLast := now.Sub(last)
	if sinceLast < 0 {
		sinceLast = 0
	}

	intervalsElapsed := sinceLast.Nanoseconds()/f.refreshInterval.Nanoseconds() + 1
	toNext := time.Duration(intervalsElapsed) * f.refreshInterval
	predicted := last.Add(toNext)

	if f.vrr && toNext > f.refreshInterval {
		return now
	}

	return predicted
}
