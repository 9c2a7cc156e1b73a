package mastering

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSR = 48000.0

func toneBuffer(sr int, freqHz float64, seconds float64, amp float32) []float32 {
	n := int(float64(sr) * seconds)
	buf := make([]float32, n*2)
	for i := 0; i < n; i++ {
		s := amp * float32(math.Sin(2*math.Pi*freqHz*float64(i)/float64(sr)))
		buf[2*i] = s
		buf[2*i+1] = s
	}
	return buf
}

func TestEQPassesThroughAtNearZeroGain(t *testing.T) {
	eq := NewThreeBandEQ(testSR)
	eq.SetGains(0, 0, 0)
	for i := 0; i < 10000; i++ {
		eq.Low.gainDB.Next()
		eq.Mid.gainDB.Next()
		eq.High.gainDB.Next()
	}

	in := toneBuffer(int(testSR), 1000, 0.05, 0.5)
	out := make([]float32, len(in))
	copy(out, in)

	eq.Process(out)

	for i := range in {
		assert.InDelta(t, in[i], out[i], 1e-5, "EQ at 0dB must be a pass-through")
	}
}

func TestEQAppliesGainWhenNonZero(t *testing.T) {
	eq := NewThreeBandEQ(testSR)
	eq.SetGains(3, 0, 0)
	in := toneBuffer(int(testSR), 80, 0.2, 0.3)
	out := make([]float32, len(in))
	copy(out, in)

	// let the smoother settle
	for i := 0; i < 10000; i++ {
		eq.Low.gainDB.Next()
	}

	eq.Process(out)

	diff := 0.0
	for i := range in {
		diff += math.Abs(float64(out[i] - in[i]))
	}
	assert.Greater(t, diff, 0.0, "boosting low shelf must change the signal")
}

func TestCompressorReducesGainAboveThreshold(t *testing.T) {
	c := NewCompressor(testSR)
	c.Threshold = -18
	c.Ratio = 4.0
	c.AttackMs = 1
	c.ReleaseMs = 50

	loud := toneBuffer(int(testSR), 200, 1.0, 0.95)
	c.Process(loud)

	require.Less(t, c.GainReductionDB, -0.5, "a loud tone held for a second must trigger measurable gain reduction")
}

func TestCompressorLeavesQuietSignalUnaffected(t *testing.T) {
	c := NewCompressor(testSR)
	quiet := toneBuffer(int(testSR), 200, 0.5, 0.01)
	c.Process(quiet)

	assert.InDelta(t, 0, c.GainReductionDB, 0.5, "a signal well under threshold should see negligible gain reduction")
}

func TestStereoEnhancerWidthInvariantOnMonoInput(t *testing.T) {
	e := NewStereoEnhancer(testSR)
	e.BaseWidth = 1.5
	in := toneBuffer(int(testSR), 5000, 0.05, 0.4) // identical L/R (mono content)
	out := make([]float32, len(in))
	copy(out, in)

	e.Process(out)

	// Mono input has zero side signal regardless of width, so L and R
	// should remain equal after processing.
	frames := len(out) / 2
	for i := 0; i < frames; i++ {
		assert.InDelta(t, out[2*i], out[2*i+1], 1e-4)
	}
}

func TestMeterFloorsAtMinus70LUFSForSilence(t *testing.T) {
	m := NewMeter(testSR)
	silence := make([]float32, int(testSR)*2) // 1s stereo silence
	m.Process(silence)

	assert.InDelta(t, -70, m.MomentaryLUFS, 0.01)
	assert.InDelta(t, -70, m.ShortTermLUFS, 0.01)
}

func TestMeterTruePeakTracksAmplitude(t *testing.T) {
	m := NewMeter(testSR)
	loud := toneBuffer(int(testSR), 1000, 0.1, 0.8)
	m.Process(loud)

	assert.InDelta(t, 0.8, m.TruePeak, 0.05)
}

func TestChainPresetsClampWithinSpec(t *testing.T) {
	c := NewChain(testSR)
	for _, p := range []Preset{PresetClean, PresetTechno, PresetHouse, PresetDnB} {
		c.SetPreset(p)
		assert.GreaterOrEqual(t, c.Stereo.BaseWidth, 0.5)
		assert.LessOrEqual(t, c.Stereo.BaseWidth, 1.5)
		assert.GreaterOrEqual(t, c.Saturation.Drive, 0.0)
		assert.LessOrEqual(t, c.Saturation.Drive, 0.3)
	}
}

func TestChainBypassLeavesAudioUnchangedButMeters(t *testing.T) {
	c := NewChain(testSR)
	c.Enabled = false
	in := toneBuffer(int(testSR), 1000, 0.5, 0.5)
	out := make([]float32, len(in))
	copy(out, in)

	c.Process(out)

	for i := range in {
		assert.Equal(t, in[i], out[i])
	}
	assert.Greater(t, c.Meter.MomentaryLUFS, -70.0)
}
