package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestFrozenClock mirrors the "frozen clock" scenario: a clock created at a
// fixed unadjusted time only moves when SetUnadjusted is called explicitly,
// and at rate 1 the adjusted clock tracks the raw delta exactly.
func TestFrozenClock(t *testing.T) {
	c := WithTime(0)
	assert.Equal(t, time.Duration(0), c.Now())

	c.SetUnadjusted(50 * time.Millisecond)
	assert.Equal(t, 50*time.Millisecond, c.NowUnadjusted())
	assert.Equal(t, 50*time.Millisecond, c.Now())

	// Re-setting to the same value must not move the adjusted clock.
	c.SetUnadjusted(50 * time.Millisecond)
	assert.Equal(t, 50*time.Millisecond, c.Now())
}

// TestRateChange mirrors the rate-change scenario: at rate 0.5, a 100ms raw
// advance yields a 50ms adjusted advance; a 50ms raw regression subtracts
// 25ms; switching to rate 2.0 mid-stream only affects deltas from that point
// forward.
func TestRateChange(t *testing.T) {
	c := WithTime(0)
	c.SetRate(0.5)

	c.SetUnadjusted(100 * time.Millisecond)
	assert.Equal(t, 50*time.Millisecond, c.Now())

	c.SetUnadjusted(200 * time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, c.Now())

	c.SetUnadjusted(150 * time.Millisecond)
	assert.Equal(t, 75*time.Millisecond, c.Now())

	c.SetRate(2.0)
	c.SetUnadjusted(250 * time.Millisecond)
	assert.Equal(t, 275*time.Millisecond, c.Now())
}

func TestSetRateClamped(t *testing.T) {
	c := WithTime(0)
	c.SetRate(-5)
	assert.Equal(t, 0.0, c.Rate())
	c.SetRate(5000)
	assert.Equal(t, 1000.0, c.Rate())
}

func TestClear(t *testing.T) {
	c := WithTime(10 * time.Millisecond)
	c.Clear()
	// After Clear, the next sample comes from the backing clockz source
	// rather than the frozen override; WithTime uses clockz.RealClock, and
	// the sample is measured from the clock's creation, so it is never
	// negative.
	got := c.NowUnadjusted()
	assert.GreaterOrEqual(t, got, time.Duration(0))
}

func TestEqual(t *testing.T) {
	a := New(nil)
	b := a
	c := New(nil)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestCompleteInstantly(t *testing.T) {
	c := WithTime(0)
	assert.False(t, c.ShouldCompleteInstantly())
	c.SetCompleteInstantly(true)
	assert.True(t, c.ShouldCompleteInstantly())
}

func TestNewDefaultsToRealClock(t *testing.T) {
	c := New(nil)
	assert.Equal(t, 1.0, c.Rate())
	assert.False(t, c.ShouldCompleteInstantly())
}
