//go:build linux

package scan

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// epollReactor multiplexes pending connects through an epoll instance.
// Each registered event carries the fd, which keys back to the owning
// attempt for the attempt's whole lifetime within the window.
type epollReactor struct {
	epfd     int
	attempts map[int32]*attempt
	events   []unix.EpollEvent
}

func newReactor() (reactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("create epoll instance: %w", err)
	}
	return &epollReactor{
		epfd:     epfd,
		attempts: make(map[int32]*attempt),
		events:   make([]unix.EpollEvent, 64),
	}, nil
}

func (r *epollReactor) register(a *attempt) error {
	ev := unix.EpollEvent{
		Events: unix.EPOLLOUT,
		Fd:     int32(a.fd),
	}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, a.fd, &ev); err != nil {
		return fmt.Errorf("register fd %d with epoll: %w", a.fd, err)
	}
	r.attempts[int32(a.fd)] = a
	return nil
}

func (r *epollReactor) deregister(a *attempt) error {
	if a.fd < 0 {
		return nil
	}
	delete(r.attempts, int32(a.fd))
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, a.fd, nil); err != nil {
		return fmt.Errorf("deregister fd %d from epoll: %w", a.fd, err)
	}
	return nil
}

func (r *epollReactor) waitOnce(deadline time.Time) ([]readiness, error) {

	for {
		n, err := unix.EpollWait(r.epfd, r.events, waitMillis(deadline))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("epoll wait: %w", err)
		}

		ready := make([]readiness, 0, n)
		for _, ev := range r.events[:n] {
			a, ok := r.attempts[ev.Fd]
			if !ok {
				continue
			}
			if ev.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				ready = append(ready, readiness{at: a, state: attemptClosed})
				continue
			}
			ready = append(ready, readiness{at: a, state: connectOutcome(a.fd)})
		}
		return ready, nil
	}
}

func (r *epollReactor) close() error {
	return unix.Close(r.epfd)
}
