package anim

import (
	"math"
	"time"
)

// decelTarget returns the value a decelerating animation converges to as
// t -> infinity, given an initial velocity v0 (units/second) and a
// per-millisecond decay rate in (0, 1).
func decelTarget(from, v0, rate float64) float64 {
	coeff := 1000 * math.Log(rate)
	return from - v0/coeff
}

// decelValueAt evaluates a decelerating animation at elapsed time t
// (seconds).
func decelValueAt(from, v0, rate, t float64) float64 {
	coeff := 1000 * math.Log(rate)
	return from + (math.Pow(rate, 1000*t)-1)/coeff*v0
}

// decelDuration returns the elapsed time at which the decay factor first
// drops below threshold, used as the point after which the animation is
// indistinguishable from its target.
func decelDuration(rate, threshold float64) time.Duration {
	if rate <= 0 || rate >= 1 || threshold <= 0 || threshold >= 1 {
		return 0
	}
	seconds := math.Log(threshold) / (1000 * math.Log(rate))
	return durationFromSeconds(seconds)
}
