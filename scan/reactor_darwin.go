//go:build darwin

package scan

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// kqueueReactor multiplexes pending connects through a kqueue. The kevent
// ident carries the fd, which keys back to the owning attempt for the
// attempt's whole lifetime within the window.
type kqueueReactor struct {
	kq       int
	attempts map[uint64]*attempt
	events   []unix.Kevent_t
}

func newReactor() (reactor, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("create kqueue: %w", err)
	}
	return &kqueueReactor{
		kq:       kq,
		attempts: make(map[uint64]*attempt),
		events:   make([]unix.Kevent_t, 64),
	}, nil
}

func (r *kqueueReactor) register(a *attempt) error {
	change := unix.Kevent_t{
		Ident:  uint64(a.fd),
		Filter: unix.EVFILT_WRITE,
		Flags:  unix.EV_ADD,
	}
	if _, err := unix.Kevent(r.kq, []unix.Kevent_t{change}, nil, nil); err != nil {
		return fmt.Errorf("register fd %d with kqueue: %w", a.fd, err)
	}
	r.attempts[uint64(a.fd)] = a
	return nil
}

func (r *kqueueReactor) deregister(a *attempt) error {
	if a.fd < 0 {
		return nil
	}
	delete(r.attempts, uint64(a.fd))
	change := unix.Kevent_t{
		Ident:  uint64(a.fd),
		Filter: unix.EVFILT_WRITE,
		Flags:  unix.EV_DELETE,
	}
	if _, err := unix.Kevent(r.kq, []unix.Kevent_t{change}, nil, nil); err != nil {
		return fmt.Errorf("deregister fd %d from kqueue: %w", a.fd, err)
	}
	return nil
}

func (r *kqueueReactor) waitOnce(deadline time.Time) ([]readiness, error) {

	for {
		ts := unix.NsecToTimespec(int64(waitMillis(deadline)) * int64(time.Millisecond))
		n, err := unix.Kevent(r.kq, nil, r.events, &ts)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("kevent wait: %w", err)
		}

		ready := make([]readiness, 0, n)
		for _, ev := range r.events[:n] {
			a, ok := r.attempts[ev.Ident]
			if !ok {
				continue
			}
			if ev.Flags&(unix.EV_EOF|unix.EV_ERROR) != 0 {
				ready = append(ready, readiness{at: a, state: attemptClosed})
				continue
			}
			ready = append(ready, readiness{at: a, state: connectOutcome(a.fd)})
		}
		return ready, nil
	}
}

func (r *kqueueReactor) close() error {
	return unix.Close(r.kq)
}
