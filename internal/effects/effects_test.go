package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWetEnvelopeSettlesAfterDisable(t *testing.T) {
	b := NewBiquad(44100, 1000, 0.707)
	b.SetEnabled(true)
	samples := make([]float32, 2048)
	b.Process(samples)
	assert.True(t, b.Active())

	b.SetEnabled(false)
	for i := 0; i < 20000; i++ {
		buf := make([]float32, 2)
		b.Process(buf)
	}
	assert.False(t, b.Active())
}

func TestDelaySetLevelMapsPresetMs(t *testing.T) {
	d := NewDelay(44100, 1.0)
	d.SetLevel(5)
	for i := 0; i < 100000; i++ {
		d.delayMs.Next()
	}
	assert.InDelta(t, 500.0, d.delayMs.Value(), 1e-6)
	assert.Equal(t, 300.0, delayLevelsMs[2])
}

func TestReverbProducesFiniteOutput(t *testing.T) {
	r := NewReverb(44100)
	r.SetEnabled(true)
	samples := make([]float32, 1024)
	samples[0] = 1
	r.Process(samples)
	for _, s := range samples {
		assert.False(t, s != s) // not NaN
	}
}

func TestSVFModesAreDistinct(t *testing.T) {
	lp := NewSVF(44100, 1000, 0.5)
	lp.Mode = SVFLowpass
	lp.SetEnabled(true)

	hp := NewSVF(44100, 1000, 0.5)
	hp.Mode = SVFHighpass
	hp.SetEnabled(true)

	in := make([]float32, 256)
	for i := range in {
		if i%2 == 0 {
			in[i] = 1
		}
	}
	lpOut := append([]float32(nil), in...)
	hpOut := append([]float32(nil), in...)
	lp.Process(lpOut)
	hp.Process(hpOut)

	assert.NotEqual(t, lpOut, hpOut)
}
