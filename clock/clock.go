// Package clock implements a rate-adjustable monotonic clock used to drive
// animations independently of wall-clock time: pausing, slowing down or
// speeding up without the rest of the compositor's timers noticing.
package clock

import (
	"sync"
	"time"

	"github.com/zoobzio/clockz"
)

// Clock is a cheap handle to shared, mutable clock state. Copies of a Clock
// alias the same underlying state, the same way the source keeps a single
// shared clock handle reachable from everywhere that needs "now".
type Clock struct {
	s *state
}

type state struct {
	mu sync.Mutex

	src   clockz.Clock
	epoch time.Time

	// raw caches the current unadjusted sample. nil means "not sampled this
	// frame yet" — the next call to now() or nowUnadjusted() will take a
	// fresh sample from src, or use whatever was set via SetUnadjusted.
	raw *time.Duration

	lastSeenRaw time.Duration
	current     time.Duration
	rate        float64

	completeInstantly bool
}

// New creates a Clock backed by src. A nil src defaults to clockz.RealClock.
func New(src clockz.Clock) Clock {
	if src == nil {
		src = clockz.RealClock
	}
	return Clock{s: &state{
		src:   src,
		epoch: src.Now(),
		rate:  1,
	}}
}

// WithTime creates a Clock frozen at the given unadjusted time, useful for
// deterministic tests that drive time entirely through SetUnadjusted.
func WithTime(d time.Duration) Clock {
	c := New(clockz.RealClock)
	c.s.raw = &d
	c.s.lastSeenRaw = d
	c.s.current = d
	return c
}

// Equal reports whether c and other share the same underlying state.
func (c Clock) Equal(other Clock) bool {
	return c.s == other.s
}

func (c Clock) rawNowLocked() time.Duration {
	s := c.s
	if s.raw == nil {
		d := s.src.Now().Sub(s.epoch)
		s.raw = &d
	}
	return *s.raw
}

// NowUnadjusted returns the cached (or freshly sampled) raw monotonic time,
// ignoring rate scaling.
func (c Clock) NowUnadjusted() time.Duration {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.rawNowLocked()
}

// Now returns the rate-adjusted time. The adjusted clock advances (or
// retreats, if raw time ever moves backwards) by rate times however much raw
// time elapsed since the previous call.
func (c Clock) Now() time.Duration {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := c.rawNowLocked()
	switch {
	case raw == s.lastSeenRaw:
		// no change; current already reflects this instant
	case raw > s.lastSeenRaw:
		delta := raw - s.lastSeenRaw
		s.current = saturatingAddDuration(s.current, scaleDuration(delta, s.rate))
	default:
		delta := s.lastSeenRaw - raw
		s.current = saturatingSubDuration(s.current, scaleDuration(delta, s.rate))
	}
	s.lastSeenRaw = raw
	return s.current
}

// SetUnadjusted overrides the cached raw sample, bypassing the backing
// clockz.Clock entirely. Used by tests to drive time deterministically.
func (c Clock) SetUnadjusted(d time.Duration) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = &d
}

// Clear drops the cached raw sample, so the next Now/NowUnadjusted call
// takes a fresh reading from the backing clockz.Clock.
func (c Clock) Clear() {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = nil
}

// Rate returns the current playback rate (1 = real time).
func (c Clock) Rate() float64 {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

// SetRate changes the playback rate, clamped to [0, 1000]. A rate of 0
// freezes the adjusted clock; values above 1000 are rejected as almost
// certainly a caller bug (e.g. an unclamped slider) and clamped down.
func (c Clock) SetRate(rate float64) {
	if rate < 0 {
		rate = 0
	}
	if rate > 1000 {
		rate = 1000
	}
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	// Lock in whatever raw time has elapsed under the old rate before
	// switching, the same way the old rate in the source is folded into
	// current_time before rate is replaced.
	raw := c.rawNowLocked()
	if raw != s.lastSeenRaw {
		if raw > s.lastSeenRaw {
			s.current = saturatingAddDuration(s.current, scaleDuration(raw-s.lastSeenRaw, s.rate))
		} else {
			s.current = saturatingSubDuration(s.current, scaleDuration(s.lastSeenRaw-raw, s.rate))
		}
		s.lastSeenRaw = raw
	}
	s.rate = rate
}

// SetCompleteInstantly toggles whether animations driven by this clock
// should report themselves done immediately (used for reduced-motion mode).
// Animations read this setting when they are created; animations already
// running keep the setting they started with.
func (c Clock) SetCompleteInstantly(v bool) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completeInstantly = v
}

// ShouldCompleteInstantly reports the current reduced-motion setting.
func (c Clock) ShouldCompleteInstantly() bool {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completeInstantly
}

func scaleDuration(d time.Duration, rate float64) time.Duration {
	if rate == 1 {
		return d
	}
	return time.Duration(float64(d) * rate)
}

func saturatingAddDuration(a, b time.Duration) time.Duration {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		if b > 0 {
			return time.Duration(1<<63 - 1)
		}
		return time.Duration(-(1 << 63))
	}
	return sum
}

func saturatingSubDuration(a, b time.Duration) time.Duration {
	return saturatingAddDuration(a, -b)
}
