package timer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdown_TickToZero(t *testing.T) {
	for _, n := range []int{1, 3, 60, 600} {
		c := New(n)
		require.True(t, c.Start())

		expiries := 0
		for i := 0; i < n; i++ {
			if c.Tick() {
				expiries++
			}
		}

		assert.Equal(t, 0, c.Remaining())
		assert.Equal(t, 1, expiries, "exactly one expiry for n=%d", n)
		assert.False(t, c.Running(), "reaching zero stops the clock")

		// An extra tick after expiry is a no-op.
		assert.False(t, c.Tick())
		assert.Equal(t, 0, c.Remaining())
	}
}

func TestCountdown_TickWhilePaused(t *testing.T) {
	c := New(10)
	require.True(t, c.Start())
	assert.False(t, c.Tick())
	assert.Equal(t, 9, c.Remaining())

	c.Pause()
	assert.False(t, c.Tick(), "ticks while paused are no-ops")
	assert.Equal(t, 9, c.Remaining())

	require.True(t, c.Start())
	assert.False(t, c.Tick())
	assert.Equal(t, 8, c.Remaining())
}

func TestCountdown_StartNoOps(t *testing.T) {
	c := New(5)
	require.True(t, c.Start())
	assert.False(t, c.Start(), "start while running is a no-op")

	for i := 0; i < 5; i++ {
		c.Tick()
	}
	assert.False(t, c.Start(), "start at zero is a no-op")
}

func TestCountdown_ResetRearmsExpiry(t *testing.T) {
	c := New(2)
	require.True(t, c.Start())
	c.Tick()
	assert.True(t, c.Tick(), "first run expires")

	c.Reset(2)
	assert.Equal(t, 2, c.Remaining())
	assert.Equal(t, 2, c.Initial())
	assert.False(t, c.Running())

	require.True(t, c.Start())
	c.Tick()
	assert.True(t, c.Tick(), "second run expires again after reset")
}

func TestCountdown_NegativeDurationClamped(t *testing.T) {
	c := New(-5)
	assert.Equal(t, 0, c.Remaining())
	assert.False(t, c.Start())
}
