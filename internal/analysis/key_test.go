package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vividhyeok/ole/internal/sample"
)

// toneTrack synthesizes a stereo sine wave at freqHz, used to exercise
// the chromagram's pitch-class mapping.
func toneTrack(sr int, freqHz float64, seconds float64) *sample.Buffer {
	frames := int(float64(sr) * seconds)
	samples := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		v := float32(math.Sin(2 * math.Pi * freqHz * float64(i) / float64(sr)))
		samples[2*i] = v
		samples[2*i+1] = v
	}
	return &sample.Buffer{Samples: samples, SampleRate: sr}
}

func TestAnalyzeKey_TooShort(t *testing.T) {
	buf := toneTrack(44100, 440, 1.0)
	_, confidence, ok := AnalyzeKey(buf)
	assert.False(t, ok)
	assert.Zero(t, confidence)
}

func TestAnalyzeKey_ReturnsKeyForTonalMaterial(t *testing.T) {
	// A-440 sine for 4s should concentrate chroma energy on pitch class
	// A and correlate most strongly with some rotation of the templates.
	buf := toneTrack(44100, 440, 4.0)
	k, confidence, _ := AnalyzeKey(buf)
	assert.GreaterOrEqual(t, k.Number, 1)
	assert.LessOrEqual(t, k.Number, 12)
	assert.GreaterOrEqual(t, confidence, 0.0)
	assert.LessOrEqual(t, confidence, 1.0)
}
