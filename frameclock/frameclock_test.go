package frameclock

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"driftwm.dev/driftwm/internal/logging"
)

const refresh60Hz = 16666667 * time.Nanosecond

func fixedNow(t time.Time) Source {
	return func() time.Time { return t }
}

func TestNoHistoryReturnsNow(t *testing.T) {
	now := time.Unix(1000, 0)
	fc := New(refresh60Hz, false, fixedNow(now))
	assert.Equal(t, now, fc.NextPresentationTime())
}

func TestNoIntervalReturnsNow(t *testing.T) {
	now := time.Unix(1000, 0)
	fc := New(0, false, fixedNow(now))
	fc.Presented(now.Add(-5 * time.Millisecond))
	assert.Equal(t, now, fc.NextPresentationTime())
}

func TestPredictsNextTick60Hz(t *testing.T) {
	start := time.Unix(1000, 0)
	fc := New(refresh60Hz, false, fixedNow(start))
	fc.Presented(start)

	// A few ms after presentation, the next tick should be ~one interval
	// after the last presentation.
	laterSource := fixedNow(start.Add(5 * time.Millisecond))
	fc.now = laterSource
	want := start.Add(refresh60Hz)
	assert.Equal(t, want, fc.NextPresentationTime())
}

func TestVRRReturnsNowWhenFarInFuture(t *testing.T) {
	start := time.Unix(1000, 0)
	fc := New(refresh60Hz, true, fixedNow(start))
	fc.Presented(start)

	// Much later than one interval since the last presentation: under VRR
	// the display can present immediately rather than waiting for the
	// fixed-rate prediction.
	later := start.Add(100 * time.Millisecond)
	fc.now = fixedNow(later)
	assert.Equal(t, later, fc.NextPresentationTime())
}

func TestPresentedIgnoresZeroTimestamp(t *testing.T) {
	now := time.Unix(1000, 0)
	fc := New(refresh60Hz, false, fixedNow(now))
	fc.Presented(time.Time{})
	assert.Equal(t, now, fc.NextPresentationTime())
}

func TestSetVRRClearsHistory(t *testing.T) {
	now := time.Unix(1000, 0)
	fc := New(refresh60Hz, false, fixedNow(now))
	fc.Presented(now)
	fc.SetVRR(true)
	assert.Equal(t, now, fc.NextPresentationTime())
}

func TestFuturePresentationIsCorrected(t *testing.T) {
	now := time.Unix(1000, 0)
	fc := New(refresh60Hz, false, fixedNow(now))
	// Last presentation reported a full second in the future: a 2+ frame
	// early VBlank. One interval's worth of correction isn't enough to get
	// past it, so it must recalibrate to last + one interval before
	// predicting, landing on last + two intervals.
	last := now.Add(time.Second)
	fc.Presented(last)
	got := fc.NextPresentationTime()
	assert.Equal(t, last.Add(2*refresh60Hz), got)
}

func TestSingleEarlyVBlankIsCorrectedWithoutLogging(t *testing.T) {
	start := time.Unix(1000, 0)
	fc := New(refresh60Hz, false, fixedNow(start))
	var logs bytes.Buffer
	fc.logger = logging.New(&logs, slog.LevelWarn)
	fc.Presented(start)

	// now is exactly at the last presentation instant: a single-frame-early
	// VBlank, correctable by one interval bump alone — which then leaves
	// exactly one full interval elapsed since last, ticking forward to the
	// next one.
	got := fc.NextPresentationTime()
	assert.Equal(t, start.Add(2*refresh60Hz), got)
	assert.Empty(t, logs.String(), "a single-frame-early VBlank must not be logged")
}
