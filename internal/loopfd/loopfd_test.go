//go:build linux

package loopfd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerFires(t *testing.T) {
	l, err := New()
	if !assert.NoError(t, err) {
		return
	}
	defer l.Close()

	fired := make(chan struct{})
	_, err = l.AddTimer(10*time.Millisecond, func() { close(fired) })
	assert.NoError(t, err)

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- l.Run(stop) }()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
	close(stop)
	<-done
}

func TestWakeupUnblocksRun(t *testing.T) {
	l, err := New()
	if !assert.NoError(t, err) {
		return
	}
	defer l.Close()

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- l.Run(stop) }()

	assert.NoError(t, l.Wakeup())
	time.Sleep(10 * time.Millisecond)
	close(stop)
	<-done
}
