//go:build linux || darwin

package scan

import (
	"fmt"

	"golang.org/x/sys/unix"
)

type attemptState uint8

const (
	attemptCreated attemptState = iota
	attemptPending
	attemptOpen
	attemptClosed
	attemptTimedOut
)

func (s attemptState) String() string {
	switch s {
	case attemptPending:
		return "pending"
	case attemptOpen:
		return "open"
	case attemptClosed:
		return "closed"
	case attemptTimedOut:
		return "timed out"
	}
	return "created"
}

// portState folds an outcome into what the scan reports; timed out reads
// as closed.
func (s attemptState) portState() PortState {
	if s == attemptOpen {
		return PortOpen
	}
	return PortClosed
}

// attempt owns exactly one socket probing a single port. The fd is
// released on every terminal transition; only a pending attempt keeps it.
type attempt struct {
	port  int
	slot  int // index of this port in the result table
	fd    int
	state attemptState
}

func newAttempt(port, slot int) *attempt {
	return &attempt{
		port:  port,
		slot:  slot,
		fd:    -1,
		state: attemptCreated,
	}
}

// open allocates a stream socket, sets it non-blocking and issues the
// connect. An error return is fatal to the whole scan; refusals and the
// like are outcomes, not errors.
func (a *attempt) open(addr [4]byte) error {

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return fmt.Errorf("create socket: %w", err)
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return fmt.Errorf("set socket non-blocking: %w", err)
	}

	sa := &unix.SockaddrInet4{Port: a.port, Addr: addr}

	switch err := unix.Connect(fd, sa); err {
	case nil:
		// completed on the spot, nothing left to wait for
		a.state = attemptOpen
		unix.Close(fd)
	case unix.EINPROGRESS, unix.EINTR:
		a.state = attemptPending
		a.fd = fd
	default:
		a.state = attemptClosed
		unix.Close(fd)
	}

	return nil
}

// close releases the fd if still held. Safe to call more than once.
func (a *attempt) close() {
	if a.fd >= 0 {
		unix.Close(a.fd)
		a.fd = -1
	}
}
