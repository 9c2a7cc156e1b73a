package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vividhyeok/ole/internal/sample"
)

// impulseTrack builds a synthetic stereo impulse train: unit-amplitude
// impulses every spacing samples, for the given duration, as used by the
// §8 "BPM round-trip" scenario.
func impulseTrack(sr int, spacing int, seconds float64) *sample.Buffer {
	frames := int(float64(sr) * seconds)
	samples := make([]float32, frames*2)
	for i := 0; i < frames; i += spacing {
		samples[2*i] = 1.0
		samples[2*i+1] = 1.0
	}
	return &sample.Buffer{Samples: samples, SampleRate: sr}
}

func TestAnalyzeBeatGrid_BPMRoundTrip(t *testing.T) {
	sr := 44100
	spacing := int(float64(sr) * 60.0 / 128.0)
	buf := impulseTrack(sr, spacing, 30)

	grid, err := AnalyzeBeatGrid(buf)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, float64(grid.BPM), 127.0)
	assert.LessOrEqual(t, float64(grid.BPM), 129.0)
	assert.GreaterOrEqual(t, float64(grid.Confidence), 0.8)
}

func TestAnalyzeBeatGrid_InsufficientAudio(t *testing.T) {
	buf := &sample.Buffer{Samples: make([]float32, 100), SampleRate: 44100}
	_, err := AnalyzeBeatGrid(buf)
	assert.ErrorIs(t, err, ErrInsufficientAudio)
}

func TestBeatGridDerivedOps(t *testing.T) {
	grid := NewBeatGrid(120, 1000, 44100, 0.9)

	assert.InDelta(t, grid.SamplesPerBeat, grid.SamplesPerBeatAtTempo(1.0), 1e-9)
	assert.InDelta(t, grid.SamplesPerBeat/2, grid.SamplesPerBeatAtTempo(2.0), 1e-9)

	for n := 0.0; n < 8; n++ {
		pos := grid.PositionForBeat(n)
		assert.InDelta(t, 0, grid.PhaseAt(pos), 1e-9)
	}
}
