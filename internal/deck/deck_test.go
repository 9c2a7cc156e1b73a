package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vividhyeok/ole/internal/analysis"
	"github.com/vividhyeok/ole/internal/sample"
)

func silentBuffer(sr int, seconds float64) *sample.Buffer {
	frames := int(float64(sr) * seconds)
	return &sample.Buffer{Samples: make([]float32, frames*2), SampleRate: sr}
}

func TestDeckProcessZerosWhenStopped(t *testing.T) {
	d := New()
	d.Load(silentBuffer(44100, 2))
	out := make([]float32, 512)
	for i := range out {
		out[i] = 1
	}
	d.Process(out)
	for _, s := range out {
		assert.Zero(t, s)
	}
}

func TestDeckPlayAdvancesPosition(t *testing.T) {
	d := New()
	d.Load(silentBuffer(44100, 2))
	d.Play()
	require.Equal(t, Playing, d.State)

	out := make([]float32, 512)
	d.Process(out)
	assert.Greater(t, d.Position, 0.0)
}

func TestDeckSeekClamps(t *testing.T) {
	d := New()
	d.Load(silentBuffer(44100, 2))
	d.Seek(1000)
	assert.Equal(t, float64(d.Buffer.Len()), d.Position)

	d.Seek(-5)
	assert.Equal(t, 0.0, d.Position)
}

func TestDeckBeatjumpUsesGridTempo(t *testing.T) {
	d := New()
	d.Load(silentBuffer(44100, 10))
	d.BeatGrid = analysis.NewBeatGrid(120, 0, 44100, 1.0)
	d.SetTempo(2.0)

	before := d.Position
	d.Beatjump(1)
	assert.InDelta(t, before+d.BeatGrid.SamplesPerBeatAtTempo(2.0), d.Position, 1e-6)
}

func TestDeckCuePoints(t *testing.T) {
	d := New()
	d.Load(silentBuffer(44100, 5))
	d.Seek(1.0)
	d.SetCue(1)
	d.Seek(3.0)
	d.JumpCue(1)
	assert.InDelta(t, 1.0*44100*2, d.Position, 1e-6)
}

func TestSyncTransitionConvergesTempoAndDeactivates(t *testing.T) {
	d := New()
	d.Load(silentBuffer(44100, 10))
	d.SetTempo(1.0)
	d.StartSyncTransition(0.9375, 0, 500)

	for i := 0; i < 500; i++ {
		d.sync.Advance(1, d)
	}

	assert.InDelta(t, 0.9375, d.Tempo, 1e-9)
	assert.False(t, d.sync.Active())
}
