package transaction

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/errgroup"
)

func TestCompletedBlockerIsAlwaysReleased(t *testing.T) {
	assert.Equal(t, Released, CompletedBlocker().State())
}

func TestReleaseLastReferenceCompletes(t *testing.T) {
	txn := New()
	b := txn.Blocker()
	assert.Equal(t, Pending, b.State())
	assert.True(t, txn.IsLast())

	txn.Release()
	assert.Equal(t, Released, b.State())
	assert.True(t, txn.IsCompleted())
}

func TestCloneKeepsOpenUntilAllReleased(t *testing.T) {
	txn := New()
	clone := txn.Clone()
	b := txn.Blocker()

	assert.False(t, txn.IsLast())
	txn.Release()
	assert.Equal(t, Pending, b.State(), "one reference still outstanding")

	clone.Release()
	assert.Equal(t, Released, b.State())
}

func TestAddNotificationFiresOnCompletion(t *testing.T) {
	txn := New()
	fired := false
	txn.AddNotification(func() { fired = true })
	assert.False(t, fired)

	txn.Release()
	assert.True(t, fired)
}

func TestAddNotificationFiresImmediatelyIfAlreadyCompleted(t *testing.T) {
	txn := New()
	txn.Release()

	fired := false
	txn.AddNotification(func() { fired = true })
	assert.True(t, fired)
}

func TestDeadlineForcesCompletion(t *testing.T) {
	txn := New()
	b := txn.Blocker()

	g, ctx := errgroup.WithContext(context.Background())
	txn.RegisterDeadlineTimer(ctx, g, 20*time.Millisecond)

	assert.Equal(t, Pending, b.State())
	assert.Eventually(t, func() bool {
		return b.State() == Released
	}, time.Second, time.Millisecond)

	_ = g.Wait()
	// The creator never released its own strong reference; the deadline
	// forced completion anyway, but the refcount itself is unaffected.
	assert.True(t, txn.IsCompleted())
}

func TestDeadlineDoesNotFireAfterEarlyRelease(t *testing.T) {
	txn := New()
	g, ctx := errgroup.WithContext(context.Background())
	txn.RegisterDeadlineTimer(ctx, g, DefaultDeadline)

	txn.Release()
	assert.True(t, txn.IsCompleted())

	err := g.Wait()
	assert.NoError(t, err)
}
