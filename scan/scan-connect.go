package scan

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ConnectScanner is the portable backend: a fixed pool of workers issuing
// blocking connects with a dial timeout. The pool size is what bounds the
// number of outstanding connections; each worker writes only its own
// port's slot in the table, so the workers never contend.
type ConnectScanner struct {
	timeout     time.Duration
	maxRoutines int
}

func NewConnectScanner(timeout time.Duration, parallelism int) *ConnectScanner {
	return &ConnectScanner{
		timeout:     timeout,
		maxRoutines: parallelism,
	}
}

func (s *ConnectScanner) Start() error {
	return nil
}

func (s *ConnectScanner) Stop() {

}

func (s *ConnectScanner) Scan(ctx context.Context, job *Job) (*ResultTable, error) {

	table := NewResultTable(job.Host, job.Ports)

	jobChan := make(chan int)
	wg := &sync.WaitGroup{}

	routines := s.maxRoutines
	if routines > len(job.Ports) {
		routines = len(job.Ports)
	}

	for i := 0; i < routines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for slot := range jobChan {
				state := s.scanPort(job.Host, job.Ports[slot])
				table.set(slot, state)
			}
		}()
	}

feed:
	for slot := range job.Ports {
		select {
		case <-ctx.Done():
			break feed
		case jobChan <- slot:
		}
	}
	close(jobChan)

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return table, nil
}

func (s *ConnectScanner) scanPort(host net.IP, port int) PortState {

	address := net.JoinHostPort(host.String(), strconv.Itoa(port))

	conn, err := net.DialTimeout("tcp", address, s.timeout)
	if err != nil {
		// refusal, timeout or unreachable: all of it reads as closed
		// to a connect scan
		logrus.Debugf("Port %d closed: %s", port, err)
		return PortClosed
	}
	conn.Close()

	logrus.Debugf("Port %d open", port)
	return PortOpen
}
