// Package redraw implements the per-output redraw scheduler: the state
// machine deciding when to actually render and submit a frame versus when
// to wait for the display to catch up.
package redraw

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"driftwm.dev/driftwm/frameclock"
	"driftwm.dev/driftwm/internal/logging"
)

// VBlankEstimator arms a one-shot timer that calls cb after d elapses, used
// to synthesize an OnVBlank call on backends that never deliver real
// presentation feedback (windowed/headless outputs). internal/loopfd
// provides the epoll-driven implementation used on Linux.
type VBlankEstimator interface {
	Arm(d time.Duration, cb func())
}

// State is the redraw state machine's current phase for one output.
type State int

const (
	// Idle: nothing to draw; no frame outstanding.
	Idle State = iota
	// Queued: a redraw was requested and nothing blocks rendering it now.
	Queued
	// WaitingForVBlank: a frame was submitted and the backend will notify
	// real presentation feedback.
	WaitingForVBlank
	// WaitingForEstimatedVBlank: a frame was submitted on a backend with no
	// real presentation feedback; a timer predicts when it "would" have
	// presented.
	WaitingForEstimatedVBlank
	// WaitingForEstimatedVBlankAndQueued: like WaitingForEstimatedVBlank,
	// but another redraw was requested while waiting. Render may run right
	// away from this state; if the estimated VBlank fires first, the state
	// becomes Queued.
	WaitingForEstimatedVBlankAndQueued
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Queued:
		return "queued"
	case WaitingForVBlank:
		return "waiting_for_vblank"
	case WaitingForEstimatedVBlank:
		return "waiting_for_estimated_vblank"
	case WaitingForEstimatedVBlankAndQueued:
		return "waiting_for_estimated_vblank_and_queued"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Backend is the rendering/presentation collaborator this scheduler drives.
// Wire handling and the actual GPU/software rendering are non-goals here;
// fakes live in test files.
type Backend interface {
	// Render draws and submits the next frame. HasRealPresentFeedback
	// reports whether the caller should expect an eventual OnVBlank call
	// driven by real presentation feedback (true) or whether the scheduler
	// must predict it itself (false, e.g. headless/windowed backends).
	Render() (hasRealPresentFeedback bool, err error)
}

// Output is one output's redraw state machine.
type Output struct {
	mu sync.Mutex

	state                State
	redrawNeededOnVBlank bool

	backend    Backend
	frameClock *frameclock.FrameClock
	logger     *slog.Logger

	estimator VBlankEstimator
}

// NewOutput creates an Output in the Idle state.
func NewOutput(backend Backend, fc *frameclock.FrameClock) *Output {
	return &Output{backend: backend, frameClock: fc, logger: logging.New(os.Stderr, slog.LevelWarn)}
}

// SetEstimator installs the timer backing WaitingForEstimatedVBlank, so a
// backend with no real presentation feedback still eventually advances past
// that state on its own. Without one, a caller must drive OnVBlank by hand
// (as the tests in this package do).
func (o *Output) SetEstimator(e VBlankEstimator) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.estimator = e
}

// armEstimatedVBlank schedules a synthetic OnVBlank one refresh interval out,
// if both an estimator and a known interval are available. Called with o.mu
// held; the timer callback itself must not run synchronously, since
// o.OnVBlank locks o.mu too.
func (o *Output) armEstimatedVBlank() {
	if o.estimator == nil || o.frameClock == nil {
		return
	}
	interval := o.frameClock.RefreshInterval()
	if interval <= 0 {
		return
	}
	o.estimator.Arm(interval, o.OnVBlank)
}

// State returns the scheduler's current phase, for logging/tests.
func (o *Output) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// QueueRedraw requests that a frame be rendered as soon as the state
// machine allows it.
func (o *Output) QueueRedraw() {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state {
	case Idle:
		o.state = Queued
	case WaitingForVBlank:
		o.redrawNeededOnVBlank = true
	case WaitingForEstimatedVBlank:
		o.state = WaitingForEstimatedVBlankAndQueued
	case Queued, WaitingForEstimatedVBlankAndQueued:
		// Already going to render again; nothing to do.
	}
}

// ErrNotQueued is returned by Render when called outside the Queued (or
// WaitingForEstimatedVBlankAndQueued) state — calling it is a scheduler bug,
// not a client-triggerable error.
var ErrNotQueued = fmt.Errorf("redraw: Render called while not queued")

// Render draws and submits the next frame via the backend, transitioning to
// WaitingForVBlank or WaitingForEstimatedVBlank depending on what the
// backend reports.
func (o *Output) Render() error {
	o.mu.Lock()
	if o.state != Queued && o.state != WaitingForEstimatedVBlankAndQueued {
		o.mu.Unlock()
		return ErrNotQueued
	}
	o.mu.Unlock()

	hasRealFeedback, err := o.backend.Render()

	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.logger.Warn("render failed", "error", err)
		o.state = Idle
		return err
	}

	o.redrawNeededOnVBlank = false
	if hasRealFeedback {
		o.state = WaitingForVBlank
	} else {
		o.state = WaitingForEstimatedVBlank
		o.armEstimatedVBlank()
	}
	return nil
}

// OnVBlank processes real or estimated presentation feedback, advancing the
// state machine: Idle if nothing else was requested, Queued if a redraw was
// requested while waiting.
func (o *Output) OnVBlank() {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state {
	case WaitingForVBlank:
		if o.redrawNeededOnVBlank {
			o.state = Queued
			o.redrawNeededOnVBlank = false
		} else {
			o.state = Idle
		}
	case WaitingForEstimatedVBlank:
		o.state = Idle
	case WaitingForEstimatedVBlankAndQueued:
		o.state = Queued
	default:
		o.logger.Warn("OnVBlank called in unexpected state", "state", o.state)
	}
}

// ShouldRenderNow reports whether the caller should invoke Render.
func (o *Output) ShouldRenderNow() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state == Queued || o.state == WaitingForEstimatedVBlankAndQueued
}
