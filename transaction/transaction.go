// Package transaction implements cross-client atomic commit barriers: a
// resize that touches several windows at once must present all of them in
// the same frame, or none of them.
package transaction

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultDeadline is how long a transaction waits for every blocker to
// release before forcing completion anyway, so a client that never commits
// can't wedge the compositor's redraw loop forever.
const DefaultDeadline = 300 * time.Millisecond

// BlockerState reports whether a blocker is still holding its transaction
// open.
type BlockerState int

const (
	Pending BlockerState = iota
	Released
)

type state struct {
	completed     atomic.Bool
	refs          atomic.Int64
	completedOnce sync.Once
	doneCh        chan struct{}

	mu            sync.Mutex
	notifications []func()
}

func (s *state) complete() {
	s.completedOnce.Do(func() {
		s.completed.Store(true)
		s.mu.Lock()
		notifications := s.notifications
		s.notifications = nil
		s.mu.Unlock()
		close(s.doneCh)
		for _, n := range notifications {
			n()
		}
	})
}

// Transaction is a reference-counted handle to a commit barrier. New()
// creates the first (strong) reference; Clone() creates additional strong
// references and Release() drops one. Go has no destructors, so callers must
// call Release() exactly once for every Transaction value they hold
// (including the one returned by New and each one returned by Clone) —
// the explicit analogue of the source's Arc<Inner> refcounting.
type Transaction struct {
	s *state
}

// New creates a transaction with a single strong reference.
func New() Transaction {
	s := &state{doneCh: make(chan struct{})}
	s.refs.Store(1)
	return Transaction{s: s}
}

// Clone returns a new strong reference to the same transaction.
func (t Transaction) Clone() Transaction {
	t.s.refs.Add(1)
	return Transaction{s: t.s}
}

// Release drops this strong reference. When the last one is released, the
// transaction completes: all blockers report Released and all notifications
// registered via AddNotification fire.
func (t Transaction) Release() {
	if t.s.refs.Add(-1) == 0 {
		t.s.complete()
	}
}

// IsLast reports whether this is the only remaining strong reference.
func (t Transaction) IsLast() bool {
	return t.s.refs.Load() == 1
}

// IsCompleted reports whether the transaction has completed, either because
// every reference was released or because the deadline fired.
func (t Transaction) IsCompleted() bool {
	return t.s.completed.Load()
}

// AddNotification registers f to run exactly once, when the transaction
// completes (synchronously, if it already has).
func (t Transaction) AddNotification(f func()) {
	if t.s.completed.Load() {
		f()
		return
	}
	t.s.mu.Lock()
	if t.s.completed.Load() {
		t.s.mu.Unlock()
		f()
		return
	}
	t.s.notifications = append(t.s.notifications, f)
	t.s.mu.Unlock()
}

// Blocker returns a weak, read-only view of the transaction suitable for
// handing to a surface's commit path: it can observe completion but does
// not itself keep the transaction alive.
func (t Transaction) Blocker() Blocker {
	return Blocker{s: t.s}
}

// RegisterDeadlineTimer spawns a goroutine (supervised by g) that forces the
// transaction to complete after d if it hasn't already. It uses unadjusted
// (wall/monotonic) time rather than the compositor's rate-adjustable clock,
// so tests that slow down animation playback don't also stall transaction
// deadlines.
func (t Transaction) RegisterDeadlineTimer(ctx context.Context, g *errgroup.Group, d time.Duration) {
	s := t.s
	g.Go(func() error {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			s.complete()
		case <-s.doneCh:
		case <-ctx.Done():
		}
		return nil
	})
}

// Blocker is a weak, read-only view of a Transaction's completion state.
// The zero Blocker is always Released, matching a "no transaction" default.
type Blocker struct {
	s *state
}

// CompletedBlocker returns a Blocker that is always Released, used where a
// commit has no transaction to block on.
func CompletedBlocker() Blocker {
	return Blocker{}
}

// State reports whether the transaction behind this blocker is still
// pending or has released.
func (b Blocker) State() BlockerState {
	if b.s == nil || b.s.completed.Load() {
		return Released
	}
	return Pending
}
