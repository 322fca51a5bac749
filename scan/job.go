package scan

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"time"
)

// ErrInvalidTarget is returned when the scan target is not a parseable
// IPv4 address literal.
var ErrInvalidTarget = errors.New("target is not a valid IPv4 address")

// Job describes one scan invocation. It is read-only once constructed.
type Job struct {
	Host        net.IP
	Ports       []int
	Timeout     time.Duration
	Parallelism int
}

// NewJob validates the target and normalises the port list (sorted
// ascending, duplicates removed). Any validation failure here aborts
// before a single socket is opened.
func NewJob(host string, ports []int, timeout time.Duration, parallelism int) (*Job, error) {

	ip := net.ParseIP(host)
	if ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidTarget, host)
	}

	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", timeout)
	}

	if parallelism <= 0 {
		return nil, fmt.Errorf("parallelism must be positive, got %d", parallelism)
	}

	if len(ports) == 0 {
		return nil, fmt.Errorf("no ports to scan")
	}

	sorted := make([]int, len(ports))
	copy(sorted, ports)
	sort.Ints(sorted)

	unique := sorted[:0]
	for i, port := range sorted {
		if port < 0 || port > 65535 {
			return nil, fmt.Errorf("port %d out of range 0-65535", port)
		}
		if i > 0 && port == sorted[i-1] {
			continue
		}
		unique = append(unique, port)
	}

	return &Job{
		Host:        ip.To4(),
		Ports:       unique,
		Timeout:     timeout,
		Parallelism: parallelism,
	}, nil
}
