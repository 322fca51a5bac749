package scan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobNormalisesPorts(t *testing.T) {

	job, err := NewJob("127.0.0.1", []int{443, 80, 80, 22}, time.Second, 8)
	require.Nil(t, err)

	assert.Equal(t, []int{22, 80, 443}, job.Ports)
	assert.Equal(t, "127.0.0.1", job.Host.String())
}

func TestNewJobRejectsBadTargets(t *testing.T) {

	for _, target := range []string{"", "localhost", "300.0.0.1", "::1", "10.0.0"} {
		_, err := NewJob(target, []int{80}, time.Second, 8)
		require.NotNil(t, err, "expected error for target %q", target)
		assert.ErrorIs(t, err, ErrInvalidTarget)
	}
}

func TestNewJobRejectsBadParameters(t *testing.T) {

	_, err := NewJob("127.0.0.1", []int{80}, 0, 8)
	assert.NotNil(t, err)

	_, err = NewJob("127.0.0.1", []int{80}, time.Second, 0)
	assert.NotNil(t, err)

	_, err = NewJob("127.0.0.1", nil, time.Second, 8)
	assert.NotNil(t, err)

	_, err = NewJob("127.0.0.1", []int{70000}, time.Second, 8)
	assert.NotNil(t, err)

	_, err = NewJob("127.0.0.1", []int{-1}, time.Second, 8)
	assert.NotNil(t, err)
}
