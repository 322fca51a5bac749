package scan

import "context"

// Scanner probes every port of a Job against its host and reports one final
// state per port. Start must be called before Scan; Stop releases whatever
// Start acquired.
type Scanner interface {
	Start() error
	Stop()
	Scan(ctx context.Context, job *Job) (*ResultTable, error)
}
