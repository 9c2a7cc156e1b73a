package effects

import (
	"math"

	"github.com/vividhyeok/ole/internal/dsp"
)

const tapeStopBufferFrames = 8192

// TapeStop reads its circular input buffer at a fractional rate that
// decays toward 0 on trigger_stop and recovers toward 1 on
// trigger_start, with 4-point cubic interpolation (§4.4 "Tape-stop").
type TapeStop struct {
	WetBase

	sr          float64
	StopTime    float64 // seconds
	currentRate float64

	ring    []float32 // interleaved stereo
	writeAt int

	readPos float64

	stopping bool
}

// NewTapeStop constructs a tape-stop effect at the given sample rate.
func NewTapeStop(sr float64) *TapeStop {
	return &TapeStop{
		WetBase:     NewWetBase(),
		sr:          sr,
		StopTime:    2.0,
		currentRate: 1.0,
		ring:        make([]float32, tapeStopBufferFrames*2),
	}
}

// TriggerStop begins decaying the read rate toward 0.
func (t *TapeStop) TriggerStop() { t.stopping = true }

// TriggerStart begins recovering the read rate toward 1.
func (t *TapeStop) TriggerStart() { t.stopping = false }

// Process writes the input into the circular buffer and reads it back
// at the current (possibly decaying/recovering) rate.
func (t *TapeStop) Process(samples []float32) {
	frames := len(samples) / 2
	decayPerSample := math.Exp(-7 / (t.StopTime * t.sr))

	for i := 0; i < frames; i++ {
		wet := t.NextWet()

		t.ring[2*t.writeAt] = samples[2*i]
		t.ring[2*t.writeAt+1] = samples[2*i+1]
		t.writeAt = (t.writeAt + 1) % tapeStopBufferFrames

		if t.stopping {
			t.currentRate *= decayPerSample
		} else {
			t.currentRate = 1 - (1-t.currentRate)*decayPerSample
		}

		l, r := t.readTap()
		t.readPos += t.currentRate
		for t.readPos >= tapeStopBufferFrames {
			t.readPos -= tapeStopBufferFrames
		}

		in0 := float64(samples[2*i])
		in1 := float64(samples[2*i+1])
		samples[2*i] = float32(in0 + (l-in0)*wet)
		samples[2*i+1] = float32(in1 + (r-in1)*wet)
	}
}

func (t *TapeStop) readTap() (float64, float64) {
	base := int(math.Floor(t.readPos))
	frac := t.readPos - float64(base)

	idx := func(offset int) int {
		i := (base + offset) % tapeStopBufferFrames
		if i < 0 {
			i += tapeStopBufferFrames
		}
		return i
	}

	im1, i0, i1, i2 := idx(-1), idx(0), idx(1), idx(2)
	l := dsp.CubicInterp4(float64(t.ring[2*im1]), float64(t.ring[2*i0]), float64(t.ring[2*i1]), float64(t.ring[2*i2]), frac)
	r := dsp.CubicInterp4(float64(t.ring[2*im1+1]), float64(t.ring[2*i0+1]), float64(t.ring[2*i1+1]), float64(t.ring[2*i2+1]), frac)
	return l, r
}

// Reset clears the circular buffer and resumes full-rate playback.
func (t *TapeStop) Reset() {
	for i := range t.ring {
		t.ring[i] = 0
	}
	t.writeAt = 0
	t.readPos = 0
	t.currentRate = 1.0
	t.stopping = false
	t.ResetWet()
}
