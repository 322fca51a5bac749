//go:build linux || darwin

package scan

import (
	"context"
	"testing"
	"time"

	"github.com/phayes/freeport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchScannerRequiresStart(t *testing.T) {

	job, err := NewJob("127.0.0.1", []int{80}, time.Second, 1)
	require.Nil(t, err)

	scanner := NewBatchScanner(job.Timeout, job.Parallelism)
	_, err = scanner.Scan(context.Background(), job)
	assert.NotNil(t, err)
}

func TestBatchScannerOpenAndClosed(t *testing.T) {

	listener, openPort := listenTCP(t)
	defer listener.Close()

	closedPort, err := freeport.GetFreePort()
	require.Nil(t, err)

	job, err := NewJob("127.0.0.1", []int{openPort, closedPort}, time.Second, 4)
	require.Nil(t, err)

	scanner := NewBatchScanner(job.Timeout, job.Parallelism)
	require.Nil(t, scanner.Start())
	defer scanner.Stop()

	table, err := scanner.Scan(context.Background(), job)
	require.Nil(t, err)

	require.Equal(t, 2, table.Len())
	assert.Equal(t, PortOpen, table.StateOf(openPort))
	assert.Equal(t, PortClosed, table.StateOf(closedPort))
}

// A window narrower than the port list forces the scheduler through
// several sequential passes; every port must still end up with exactly one
// Open/Closed entry.
func TestBatchScannerWindowsSmallerThanPortList(t *testing.T) {

	listener, openPort := listenTCP(t)
	defer listener.Close()

	ports := []int{openPort}
	for i := 0; i < 6; i++ {
		p, err := freeport.GetFreePort()
		require.Nil(t, err)
		ports = append(ports, p)
	}

	job, err := NewJob("127.0.0.1", ports, 500*time.Millisecond, 2)
	require.Nil(t, err)

	scanner := NewBatchScanner(job.Timeout, job.Parallelism)
	require.Nil(t, scanner.Start())
	defer scanner.Stop()

	table, err := scanner.Scan(context.Background(), job)
	require.Nil(t, err)

	require.Equal(t, len(job.Ports), table.Len())
	for _, port := range job.Ports {
		state := table.StateOf(port)
		if port == openPort {
			assert.Equal(t, PortOpen, state)
		} else {
			assert.Equal(t, PortClosed, state)
		}
	}
}

func TestBatchScannerRefusalsResolveBeforeTimeout(t *testing.T) {

	closedPort, err := freeport.GetFreePort()
	require.Nil(t, err)

	job, err := NewJob("127.0.0.1", []int{closedPort}, 5*time.Second, 1)
	require.Nil(t, err)

	scanner := NewBatchScanner(job.Timeout, job.Parallelism)
	require.Nil(t, scanner.Start())
	defer scanner.Stop()

	start := time.Now()
	table, err := scanner.Scan(context.Background(), job)
	require.Nil(t, err)

	assert.Equal(t, PortClosed, table.StateOf(closedPort))
	assert.Less(t, time.Since(start), time.Second, "a refused connection should resolve well before the timeout")
}

func TestBatchScannerIdempotent(t *testing.T) {

	listener, openPort := listenTCP(t)
	defer listener.Close()

	closedPort, err := freeport.GetFreePort()
	require.Nil(t, err)

	job, err := NewJob("127.0.0.1", []int{openPort, closedPort}, time.Second, 2)
	require.Nil(t, err)

	scanner := NewBatchScanner(job.Timeout, job.Parallelism)
	require.Nil(t, scanner.Start())
	defer scanner.Stop()

	first, err := scanner.Scan(context.Background(), job)
	require.Nil(t, err)
	second, err := scanner.Scan(context.Background(), job)
	require.Nil(t, err)

	for _, port := range job.Ports {
		assert.Equal(t, first.StateOf(port), second.StateOf(port))
	}
}

// stubReactor accepts registrations but never reports readiness, so every
// pending attempt rides the window out to its deadline.
type stubReactor struct {
	registered []*attempt
}

func (r *stubReactor) register(a *attempt) error {
	r.registered = append(r.registered, a)
	return nil
}

func (r *stubReactor) deregister(a *attempt) error {
	return nil
}

func (r *stubReactor) waitOnce(deadline time.Time) ([]readiness, error) {
	time.Sleep(time.Until(deadline))
	return nil, nil
}

func (r *stubReactor) close() error {
	return nil
}

// A port that never responds must read Closed, and only once the window
// timeout has elapsed, not earlier.
func TestBatchScannerUnresponsivePortTimesOutAtDeadline(t *testing.T) {

	listener, port := listenTCP(t)
	defer listener.Close()

	job, err := NewJob("127.0.0.1", []int{port}, 300*time.Millisecond, 1)
	require.Nil(t, err)

	scanner := NewBatchScanner(job.Timeout, job.Parallelism)
	scanner.r = &stubReactor{}
	defer scanner.Stop()

	start := time.Now()
	table, err := scanner.Scan(context.Background(), job)
	require.Nil(t, err)
	elapsed := time.Since(start)

	assert.Equal(t, PortClosed, table.StateOf(port))
	assert.GreaterOrEqual(t, elapsed, job.Timeout, "port must not be declared timed out before the window deadline")
	assert.Less(t, elapsed, job.Timeout+time.Second)
}

func TestBatchScannerCancelledBetweenWindows(t *testing.T) {

	job, err := NewJob("127.0.0.1", []int{1, 2, 3}, time.Second, 1)
	require.Nil(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner := NewBatchScanner(job.Timeout, job.Parallelism)
	require.Nil(t, scanner.Start())
	defer scanner.Stop()

	table, err := scanner.Scan(ctx, job)
	assert.NotNil(t, err)
	assert.Nil(t, table)
}
