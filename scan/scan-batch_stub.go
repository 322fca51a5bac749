//go:build !linux && !darwin

package scan

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// BatchScanner needs a platform readiness facility; on platforms without
// one wired up, every call reports as much and the connect scanner is the
// backend to use instead.
type BatchScanner struct{}

func NewBatchScanner(timeout time.Duration, parallelism int) *BatchScanner {
	return &BatchScanner{}
}

func (s *BatchScanner) Start() error {
	return fmt.Errorf("batch scan is not supported on %s, use the connect scan type", runtime.GOOS)
}

func (s *BatchScanner) Stop() {}

func (s *BatchScanner) Scan(ctx context.Context, job *Job) (*ResultTable, error) {
	return nil, fmt.Errorf("batch scan is not supported on %s, use the connect scan type", runtime.GOOS)
}
