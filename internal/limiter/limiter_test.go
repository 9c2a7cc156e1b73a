package limiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const testSR = 48000.0

func TestSoftKneeLimiterHoldsDCWithinCeiling(t *testing.T) {
	l := NewLimiter(testSR)

	n := 512 + l.lookaheadSize + 2000
	samples := make([]float32, n*2)
	for i := 0; i < 512; i++ {
		samples[2*i] = 2.0
		samples[2*i+1] = 2.0
	}

	l.Process(samples)

	for i := l.lookaheadSize; i < n; i++ {
		assert.LessOrEqual(t, samples[2*i], float32(0.892), "sample %d left exceeds ceiling+knee bound", i)
		assert.GreaterOrEqual(t, samples[2*i], float32(-0.892))
		assert.LessOrEqual(t, samples[2*i+1], float32(0.892))
		assert.GreaterOrEqual(t, samples[2*i+1], float32(-0.892))
	}
}

func TestLimiterPassesQuietSignalUnchangedInGain(t *testing.T) {
	l := NewLimiter(testSR)
	n := 1000
	samples := make([]float32, n*2)
	for i := 0; i < n; i++ {
		samples[2*i] = 0.01
		samples[2*i+1] = -0.01
	}
	l.Process(samples)

	for i := l.lookaheadSize + 10; i < n; i++ {
		assert.InDelta(t, 0.01, samples[2*i], 0.001)
		assert.InDelta(t, -0.01, samples[2*i+1], 0.001)
	}
}

func TestPeakHoldStoresTruePeakNotGain(t *testing.T) {
	l := NewLimiter(testSR)

	// 0.5 sits below the knee threshold, so targetGain(0.5) == 1 — a
	// value far enough from 0.5 that pushing the gain instead of the
	// peak would be caught immediately.
	samples := []float32{0.5, 0.5}
	l.Process(samples)

	assert.Len(t, l.peakHold.entries, 1)
	assert.InDelta(t, 0.5, l.peakHold.entries[0].value, 0.05, "peak-hold buffer must store the detected peak, not the computed gain")
}

func TestPeakHoldAnticipatesUpcomingPeakBeforeDelayedOutput(t *testing.T) {
	l := NewLimiter(testSR)

	spikeAt := 50
	total := spikeAt + l.lookaheadSize + 50

	frame := make([]float32, 2)
	grAtStep := make([]float64, total)
	for i := 0; i < total; i++ {
		if i == spikeAt {
			frame[0], frame[1] = 3.0, 3.0
		} else {
			frame[0], frame[1] = 0.05, 0.05
		}
		l.Process(frame)
		grAtStep[i] = l.GainReductionDB
	}

	// The spike's own delayed output is emitted lookaheadSize steps
	// after it was pushed. Anticipatory hold must keep the gain
	// reduced for the entire window leading up to that point — if the
	// hold buffer stored gains instead of peaks (the bug), this window
	// would see no reduction at all until the spike's own step.
	for i := spikeAt; i < spikeAt+l.lookaheadSize; i++ {
		assert.Lessf(t, grAtStep[i], -0.1, "step %d should already reflect the held peak ahead of the spike's delayed output", i)
	}
}

func TestPeakHoldBufferSlidingMaximum(t *testing.T) {
	b := newPeakHoldBuffer(4)
	values := []float64{1, 5, 3, 2, 0, 0, 0}
	expectMax := []float64{1, 5, 5, 5, 5, 3, 2}

	for i, v := range values {
		got := b.push(v)
		assert.InDelta(t, expectMax[i], got, 1e-9, "window max mismatch at step %d", i)
	}
}

func TestTargetGainIsUnityBelowKneeThreshold(t *testing.T) {
	l := NewLimiter(testSR)
	assert.Equal(t, 1.0, l.targetGain(0.01))
}

func TestTargetGainClampsAtCeiling(t *testing.T) {
	l := NewLimiter(testSR)
	gain := l.targetGain(2.0)
	assert.InDelta(t, l.Ceiling/2.0, gain, 1e-9)
}
