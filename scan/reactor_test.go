//go:build linux || darwin

package scan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMillisCeilRoundsUp(t *testing.T) {
	assert.Equal(t, 0, millisCeil(0))
	assert.Equal(t, 0, millisCeil(-5*time.Millisecond))
	assert.Equal(t, 1, millisCeil(time.Nanosecond))
	assert.Equal(t, 2, millisCeil(2*time.Millisecond))
	assert.Equal(t, 3, millisCeil(2*time.Millisecond+time.Nanosecond))
}
