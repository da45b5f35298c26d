//go:build linux

// Package loopfd implements a small epoll-driven event loop used to emulate
// VBlank timing on backends that have no real display hardware to wait on
// (windowed/headless outputs). It follows the same poll-plus-notify-pipe
// shape as a Wayland client backend's main loop: block in epoll_wait, wake
// up either because a registered fd became readable or because Wakeup was
// called from another goroutine.
package loopfd

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Loop is a single-threaded epoll loop. It is not safe to call Run from
// more than one goroutine at a time, but AddTimer/RemoveTimer/Wakeup may be
// called from any goroutine.
type Loop struct {
	epfd int

	notifyR, notifyW int

	mu     sync.Mutex
	timers map[int]func()
	closed bool
}

// New creates a Loop with its epoll instance and wakeup pipe ready to go.
func New() (*Loop, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("loopfd: epoll_create1: %w", err)
	}

	fds, err := unixPipe2()
	if err != nil {
		unix.Close(epfd)
		return nil, err
	}

	l := &Loop{epfd: epfd, notifyR: fds[0], notifyW: fds[1], timers: map[int]func(){}}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, l.notifyR, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(l.notifyR),
	}); err != nil {
		l.Close()
		return nil, fmt.Errorf("loopfd: epoll_ctl notify pipe: %w", err)
	}
	return l, nil
}

func unixPipe2() ([2]int, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return fds, fmt.Errorf("loopfd: pipe2: %w", err)
	}
	return fds, nil
}

// AddTimer arms a one-shot timerfd that fires cb (on the goroutine calling
// Run) after d elapses. It returns the timerfd so the caller can RemoveTimer
// it early.
func (l *Loop) AddTimer(d time.Duration, cb func()) (int, error) {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_CLOEXEC|unix.TFD_NONBLOCK)
	if err != nil {
		return -1, fmt.Errorf("loopfd: timerfd_create: %w", err)
	}

	spec := unix.ItimerSpec{
		Value: unix.NsecToTimespec(d.Nanoseconds()),
	}
	if err := unix.TimerfdSettime(fd, 0, &spec, nil); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("loopfd: timerfd_settime: %w", err)
	}

	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(fd),
	}); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("loopfd: epoll_ctl timerfd: %w", err)
	}

	l.mu.Lock()
	l.timers[fd] = cb
	l.mu.Unlock()
	return fd, nil
}

// RemoveTimer disarms and closes a timerfd previously returned by AddTimer.
func (l *Loop) RemoveTimer(fd int) {
	l.mu.Lock()
	delete(l.timers, fd)
	l.mu.Unlock()
	unix.EpollCtl(l.epfd, unix.EPOLL_CTL_DEL, fd, nil) //nolint:errcheck
	unix.Close(fd)
}

// Wakeup unblocks a goroutine currently parked in Run, used to ask it to
// re-check external state (e.g. a new redraw request arrived) without
// waiting for a timer.
func (l *Loop) Wakeup() error {
	_, err := unix.Write(l.notifyW, []byte{0})
	if err != nil && err != unix.EAGAIN {
		return fmt.Errorf("loopfd: write notify pipe: %w", err)
	}
	return nil
}

func (l *Loop) drainNotifyPipe() {
	var buf [64]byte
	for {
		n, err := unix.Read(l.notifyR, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

// Run blocks, dispatching timer callbacks as their fds become readable,
// until stop is closed.
func (l *Loop) Run(stop <-chan struct{}) error {
	events := make([]unix.EpollEvent, 16)
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		n, err := unix.EpollWait(l.epfd, events, 1000)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("loopfd: epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			if fd == l.notifyR {
				l.drainNotifyPipe()
				continue
			}

			l.mu.Lock()
			cb, ok := l.timers[fd]
			l.mu.Unlock()
			if !ok {
				continue
			}

			var buf [8]byte
			unix.Read(fd, buf[:]) //nolint:errcheck
			cb()

			l.RemoveTimer(fd)
		}
	}
}

// Close releases the loop's own file descriptors. It does not close
// outstanding timerfds registered via AddTimer; callers should
// RemoveTimer them first.
func (l *Loop) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	unix.Close(l.notifyR)
	unix.Close(l.notifyW)
	return unix.Close(l.epfd)
}
