package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedReturnsPinnedInstant(t *testing.T) {
	at := time.Date(2024, 1, 1, 9, 30, 0, 0, time.Local)
	c := NewFixed(at)
	assert.Equal(t, at, c.Now())
	assert.Equal(t, at, c.Now())
}

func TestFromConfigFrozen(t *testing.T) {
	c := FromConfig("2024-01-01T09:30:00Z")
	fixed, ok := c.(Fixed)
	require.True(t, ok)
	assert.Equal(t, 9, fixed.Now().Hour())
}

func TestFromConfigFallsBackToSystem(t *testing.T) {
	_, ok := FromConfig("").(System)
	assert.True(t, ok)

	_, ok = FromConfig("not-a-timestamp").(System)
	assert.True(t, ok)
}
