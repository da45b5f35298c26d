// Package anim implements the interpolators that drive every visible motion
// in the compositor: column/tile movement, workspace switches, window
// open/close, and scrolling fling.
package anim

import (
	"time"

	"driftwm.dev/driftwm/clock"
)

// Kind distinguishes which interpolator an animation uses. It is a closed
// set; the three implementations below are the only ones that exist.
type Kind interface {
	kind()
}

// EasingKind drives the value along a fixed-duration curve between two
// endpoints.
type EasingKind struct {
	Curve      Curve
	DurationMS uint64
}

// SpringKind drives the value via a damped harmonic oscillator.
type SpringKind struct {
	Params SpringParams
}

// DecelerationKind drives the value via exponential decay from an initial
// velocity, the scrolling-fling curve.
type DecelerationKind struct {
	Rate      float64
	Threshold float64
}

func (EasingKind) kind()       {}
func (SpringKind) kind()       {}
func (DecelerationKind) kind() {}

// Config describes how to (re)configure a running or new animation, the
// Go equivalent of the source's animation config enum.
type Config struct {
	Off  bool
	Kind Kind
}

// Animation interpolates a scalar value over time, backed by an eased curve,
// a spring, or an exponential decay.
type Animation struct {
	from, to, v0 float64

	duration        time.Duration
	clampedDuration time.Duration
	clampedKnown    bool

	startTime time.Duration
	clock     clock.Clock
	kind      Kind
	off       bool
}

// Ease creates an eased animation from from to to over durationMS
// milliseconds, starting now.
func Ease(clk clock.Clock, from, to float64, durationMS uint64, curve Curve) Animation {
	d := time.Duration(durationMS) * time.Millisecond
	return newAnimation(clk, from, to, 0, d, d, true, EasingKind{Curve: curve, DurationMS: durationMS})
}

// Spring creates a spring-driven animation from from to to with initial
// velocity v0.
func Spring(clk clock.Clock, from, to, v0 float64, params SpringParams) Animation {
	d := springDuration(from, to, v0, params)
	cd, ok := springClampedDuration(from, to, v0, params)
	if !ok {
		cd = d
	}
	return newAnimation(clk, from, to, v0, d, cd, true, SpringKind{Params: params})
}

// Decelerate creates a decelerating (fling) animation starting at from with
// initial velocity v0.
func Decelerate(clk clock.Clock, from, v0, rate, threshold float64) Animation {
	to := decelTarget(from, v0, rate)
	d := decelDuration(rate, threshold)
	return newAnimation(clk, from, to, v0, d, d, true, DecelerationKind{Rate: rate, Threshold: threshold})
}

func newAnimation(clk clock.Clock, from, to, v0 float64, duration, clampedDuration time.Duration, clampedKnown bool, k Kind) Animation {
	return Animation{
		from: from, to: to, v0: v0,
		duration: duration, clampedDuration: clampedDuration, clampedKnown: clampedKnown,
		startTime: clk.Now(),
		clock:     clk,
		kind:      k,
		off:       clk.ShouldCompleteInstantly(),
	}
}

// New builds an animation from from to to with initial velocity v0,
// dispatching on the kind named by cfg.
func New(clk clock.Clock, from, to, v0 float64, cfg Config) Animation {
	var a Animation
	switch k := cfg.Kind.(type) {
	case SpringKind:
		a = Spring(clk, from, to, v0, k.Params)
	case DecelerationKind:
		a = Decelerate(clk, from, v0, k.Rate, k.Threshold)
	default:
		ek, _ := cfg.Kind.(EasingKind)
		a = Ease(clk, from, to, ek.DurationMS, ek.Curve)
	}
	a.off = a.off || cfg.Off
	return a
}

// ReplaceConfig reconfigures a in place, preserving its current value and
// velocity as the new starting point — used when a config change (e.g. a
// live-reloaded animation duration) arrives mid-flight.
func (a *Animation) ReplaceConfig(cfg Config) {
	cur := a.Value()
	*a = New(a.clock, cur, a.to, a.v0, cfg)
}

// Restarted returns a fresh animation with the same kind/clock/off settings
// as a, but new endpoints and velocity, starting now.
func (a Animation) Restarted(from, to, v0 float64) Animation {
	cfg := Config{Off: a.off, Kind: a.kind}
	return New(a.clock, from, to, v0, cfg)
}

// From, To, InitialVelocity, StartTime, Duration, ClampedDuration, EndTime
// expose the animation's immutable parameters.
func (a Animation) From() float64                      { return a.from }
func (a Animation) To() float64                         { return a.to }
func (a Animation) InitialVelocity() float64            { return a.v0 }
func (a Animation) StartTime() time.Duration            { return a.startTime }
func (a Animation) Duration() time.Duration             { return a.duration }
func (a Animation) ClampedDuration() time.Duration      { return a.clampedDuration }
func (a Animation) EndTime() time.Duration              { return a.startTime + a.duration }
func (a Animation) ClampedEndTime() time.Duration       { return a.startTime + a.clampedDuration }

// IsDone reports whether a has run past its (possibly infinite) duration.
func (a Animation) IsDone() bool {
	if a.off {
		return true
	}
	return a.clock.Now() >= a.EndTime()
}

// IsClampedDone reports whether a has run past its clamped duration — the
// point after which callers may stop scheduling redraws for it even if the
// mathematically exact animation has not technically finished.
func (a Animation) IsClampedDone() bool {
	if a.off {
		return true
	}
	return a.clock.Now() >= a.ClampedEndTime()
}

// valueAtElapsed evaluates the animation at elapsed time passed, not clamped
// to [start, start+duration].
func (a Animation) valueAtElapsed(passed time.Duration) float64 {
	switch k := a.kind.(type) {
	case EasingKind:
		total := a.duration
		var x float64
		if total <= 0 {
			x = 1
		} else {
			x = passed.Seconds() / total.Seconds()
			if x < 0 {
				x = 0
			}
			if x > 1 {
				x = 1
			}
		}
		return k.Curve.Y(x)*(a.to-a.from) + a.from
	case SpringKind:
		return oscillate(a.from, a.to, a.v0, k.Params)(passed.Seconds())
	case DecelerationKind:
		return decelValueAt(a.from, a.v0, k.Rate, passed.Seconds())
	default:
		return a.to
	}
}

// Value returns the animation's current value at the clock's current time.
func (a Animation) Value() float64 {
	if a.off {
		return a.to
	}
	now := a.clock.Now()
	if now <= a.startTime {
		return a.from
	}
	if now >= a.EndTime() {
		return a.to
	}
	return a.valueAtElapsed(now - a.startTime)
}

// ClampedValue is like Value, but clamps to "to" once the clamped duration
// has elapsed even if the exact animation has not mathematically settled
// (e.g. an overdamped spring that never quite reaches its target).
func (a Animation) ClampedValue() float64 {
	if a.off {
		return a.to
	}
	now := a.clock.Now()
	if now <= a.startTime {
		return a.from
	}
	if now >= a.ClampedEndTime() {
		return a.to
	}
	return a.valueAtElapsed(now - a.startTime)
}

// Offset shifts both endpoints by delta, e.g. when the thing being animated
// (a column, a workspace) is also being moved by an unrelated operation
// mid-animation. Initial velocity is deliberately left untouched: a spring's
// momentum belongs to the gesture that started it, not to the static shift.
func (a *Animation) Offset(delta float64) {
	a.from += delta
	a.to += delta
	if sk, ok := a.kind.(SpringKind); ok {
		// Duration/clamped duration are derived only from the damping
		// parameters and v0, not from the absolute endpoints, so they do
		// not need recomputation here.
		a.kind = sk
	}
}
