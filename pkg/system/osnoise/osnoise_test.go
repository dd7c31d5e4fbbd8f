//go:build linux

package osnoise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_ReturnsLiveCounters(t *testing.T) {
	c, err := Read()
	require.NoError(t, err)
	// Any booted system has switched context at least once.
	assert.Positive(t, c.ContextSwitches)
	assert.Positive(t, c.Interrupts)
}

func TestDelta_Monotone(t *testing.T) {
	a, err := Read()
	require.NoError(t, err)
	b, err := Read()
	require.NoError(t, err)

	d := b.Delta(a)
	assert.LessOrEqual(t, d.ContextSwitches, b.ContextSwitches)
	assert.LessOrEqual(t, d.Interrupts, b.Interrupts)
}

func TestDelta_ClampsOnWrap(t *testing.T) {
	prev := Counters{ContextSwitches: 100, Interrupts: 100}
	cur := Counters{ContextSwitches: 50, Interrupts: 150}
	d := cur.Delta(prev)
	assert.Zero(t, d.ContextSwitches)
	assert.Equal(t, uint64(50), d.Interrupts)
}
