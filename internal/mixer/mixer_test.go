package mixer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrossfaderCenterAndEdges(t *testing.T) {
	m := New()

	m.SetCrossfader(0)
	gainA, gainB := m.Gains()
	assert.InDelta(t, math.Sqrt(0.5), gainA, 1e-9)
	assert.InDelta(t, math.Sqrt(0.5), gainB, 1e-9)

	m.SetCrossfader(-1)
	gainA, gainB = m.Gains()
	assert.InDelta(t, 1.0, gainA, 1e-9)
	assert.InDelta(t, 0.0, gainB, 1e-9)

	m.SetCrossfader(1)
	gainA, gainB = m.Gains()
	assert.InDelta(t, 0.0, gainA, 1e-9)
	assert.InDelta(t, 1.0, gainB, 1e-9)
}

func TestGainsObeyEqualPowerInvariant(t *testing.T) {
	m := New()
	for x := -1.0; x <= 1.0; x += 0.1 {
		m.SetCrossfader(x)
		gainA, gainB := m.Gains()
		assert.InDelta(t, 1.0, gainA*gainA+gainB*gainB, 1e-9)
	}
}
