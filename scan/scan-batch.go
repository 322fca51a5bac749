//go:build linux || darwin

package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// BatchScanner probes ports in sequential windows of non-blocking connects
// multiplexed through a single readiness reactor. At most windowSize
// sockets are outstanding at any instant.
type BatchScanner struct {
	timeout    time.Duration
	windowSize int
	r          reactor
}

func NewBatchScanner(timeout time.Duration, parallelism int) *BatchScanner {
	return &BatchScanner{
		timeout:    timeout,
		windowSize: parallelism,
	}
}

// Start creates the readiness reactor. Failure here aborts before
// anything is probed.
func (s *BatchScanner) Start() error {
	r, err := newReactor()
	if err != nil {
		return err
	}
	s.r = r
	return nil
}

func (s *BatchScanner) Stop() {
	if s.r != nil {
		s.r.close()
		s.r = nil
	}
}

// Scan probes every port of the job, one window at a time. It returns a
// table covering every requested port, or an error and no table; partial
// results are never surfaced. The context is checked between windows only.
func (s *BatchScanner) Scan(ctx context.Context, job *Job) (*ResultTable, error) {

	if s.r == nil {
		return nil, fmt.Errorf("scanner not started")
	}

	table := NewResultTable(job.Host, job.Ports)

	var addr [4]byte
	copy(addr[:], job.Host.To4())

	for lo := 0; lo < len(job.Ports); lo += s.windowSize {

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		hi := lo + s.windowSize
		if hi > len(job.Ports) {
			hi = len(job.Ports)
		}

		if err := s.scanWindow(addr, job.Ports, lo, hi, table); err != nil {
			return nil, err
		}
	}

	return table, nil
}

// scanWindow admits every port in [lo,hi), then drives the reactor until
// each attempt is terminal or the window deadline passes. All attempts
// share one deadline, measured from window start. Every socket the window
// opened is released before returning, error paths included.
func (s *BatchScanner) scanWindow(addr [4]byte, ports []int, lo, hi int, table *ResultTable) error {

	deadline := time.Now().Add(s.timeout)

	window := make([]*attempt, 0, hi-lo)
	pending := 0

	for i := lo; i < hi; i++ {

		a := newAttempt(ports[i], i)

		if err := a.open(addr); err != nil {
			s.releaseWindow(window)
			return err
		}

		if a.state != attemptPending {
			// resolved by connect itself, fd already released
			logrus.Debugf("Port %d resolved immediately: %s", a.port, a.state)
			table.set(a.slot, a.state.portState())
			continue
		}

		if err := s.r.register(a); err != nil {
			a.close()
			s.releaseWindow(window)
			return err
		}
		window = append(window, a)
		pending++
	}

	for pending > 0 {

		ready, err := s.r.waitOnce(deadline)
		if err != nil {
			s.releaseWindow(window)
			return err
		}

		if len(ready) == 0 {
			// deadline elapsed with attempts still outstanding
			break
		}

		for _, ev := range ready {
			_ = s.r.deregister(ev.at)
			ev.at.state = ev.state
			ev.at.close()
			logrus.Debugf("Port %d %s", ev.at.port, ev.at.state)
			table.set(ev.at.slot, ev.state.portState())
			pending--
		}
	}

	for _, a := range window {
		if a.state != attemptPending {
			continue
		}
		_ = s.r.deregister(a)
		a.state = attemptTimedOut
		a.close()
		logrus.Debugf("Port %d %s", a.port, a.state)
		table.set(a.slot, a.state.portState())
	}

	return nil
}

// releaseWindow tears down pending attempts when a fatal error aborts the
// scan mid-window.
func (s *BatchScanner) releaseWindow(window []*attempt) {
	for _, a := range window {
		if a.state == attemptPending {
			_ = s.r.deregister(a)
			a.close()
		}
	}
}
