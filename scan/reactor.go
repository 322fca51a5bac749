//go:build linux || darwin

package scan

import (
	"time"

	"golang.org/x/sys/unix"
)

// readiness pairs an attempt with the terminal state its readiness event
// resolved to.
type readiness struct {
	at    *attempt
	state attemptState
}

// reactor is the readiness multiplexer the batch engine blocks on. One
// implementation exists per platform (epoll on Linux, kqueue on Darwin);
// the batch scheduler never sees which. A failure from any of these calls
// means the host environment cannot sustain the scan and aborts it.
type reactor interface {
	register(a *attempt) error
	deregister(a *attempt) error

	// waitOnce blocks until at least one registered attempt becomes
	// writable or errors, or until deadline passes, whichever is first.
	// A deadline in the past polls without blocking. An empty return
	// with a nil error means the deadline elapsed.
	waitOnce(deadline time.Time) ([]readiness, error)

	close() error
}

// connectOutcome runs the standard pending-connect completion check:
// a writable socket finished its handshake iff SO_ERROR reads back zero.
func connectOutcome(fd int) attemptState {
	errno, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil || errno != 0 {
		return attemptClosed
	}
	return attemptOpen
}

// waitMillis converts a deadline to the millisecond timeout the platform
// wait call takes. An expired deadline polls without blocking.
func waitMillis(deadline time.Time) int {
	return millisCeil(time.Until(deadline))
}

// millisCeil rounds up, never down: truncating would let a wait expire up
// to a millisecond before the configured deadline.
func millisCeil(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Millisecond - 1) / time.Millisecond)
}
