package effects

import (
	"math"

	"github.com/vividhyeok/ole/internal/dsp"
)

// BiquadMode selects which RBJ cookbook response the filter computes.
type BiquadMode int

const (
	BiquadLowpass BiquadMode = iota
	BiquadBandpass
	BiquadHighpass
)

// biquadState holds the direct-form-I history for one channel.
type biquadState struct {
	x1, x2, y1, y2 float64
}

// Biquad is a standard RBJ cookbook lowpass/bandpass/highpass filter
// (§4.4 "Biquad filter"), with stereo state and per-sample coefficient
// smoothing for click-free parameter changes.
type Biquad struct {
	WetBase

	Mode   BiquadMode
	Cutoff *dsp.OnePole
	Q      float64
	sr     float64

	b0, b1, b2, a1, a2 float64

	left, right biquadState
}

// NewBiquad constructs a filter at the given sample rate with a starting
// cutoff in Hz and a fixed Q.
func NewBiquad(sr float64, cutoffHz, q float64) *Biquad {
	f := &Biquad{
		WetBase: NewWetBase(),
		sr:      sr,
		Q:       q,
		Cutoff:  dsp.NewOnePole(dsp.DefaultSmoothingCoeff, cutoffHz),
	}
	f.recompute(cutoffHz)
	return f
}

// SetCutoffLevel maps preset level 1..10 exponentially over
// [200Hz, 20kHz], per §4.4 "Biquad filter".
func (f *Biquad) SetCutoffLevel(level int) {
	if level < 1 {
		level = 1
	}
	if level > 10 {
		level = 10
	}
	t := float64(level-1) / 9
	hz := 200 * math.Pow(20000.0/200.0, t)
	f.Cutoff.SetTarget(hz)
}

func (f *Biquad) recompute(cutoffHz float64) {
	omega := 2 * math.Pi * cutoffHz / f.sr
	sinW, cosW := math.Sin(omega), math.Cos(omega)
	alpha := sinW / (2 * f.Q)

	var b0, b1, b2, a0, a1, a2 float64
	switch f.Mode {
	case BiquadHighpass:
		b0 = (1 + cosW) / 2
		b1 = -(1 + cosW)
		b2 = (1 + cosW) / 2
		a0 = 1 + alpha
		a1 = -2 * cosW
		a2 = 1 - alpha
	case BiquadBandpass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
		a0 = 1 + alpha
		a1 = -2 * cosW
		a2 = 1 - alpha
	default: // BiquadLowpass
		b0 = (1 - cosW) / 2
		b1 = 1 - cosW
		b2 = (1 - cosW) / 2
		a0 = 1 + alpha
		a1 = -2 * cosW
		a2 = 1 - alpha
	}

	f.b0, f.b1, f.b2 = b0/a0, b1/a0, b2/a0
	f.a1, f.a2 = a1/a0, a2/a0
}

// Process filters samples in place, smoothing the cutoff per sample and
// crossfading through the mandatory wet envelope.
func (f *Biquad) Process(samples []float32) {
	frames := len(samples) / 2
	for i := 0; i < frames; i++ {
		cutoff := f.Cutoff.Next()
		f.recompute(cutoff)
		wet := f.NextWet()

		in0 := float64(samples[2*i])
		in1 := float64(samples[2*i+1])

		out0 := f.b0*in0 + f.b1*f.left.x1 + f.b2*f.left.x2 - f.a1*f.left.y1 - f.a2*f.left.y2
		f.left.x2, f.left.x1 = f.left.x1, in0
		f.left.y2, f.left.y1 = f.left.y1, out0

		out1 := f.b0*in1 + f.b1*f.right.x1 + f.b2*f.right.x2 - f.a1*f.right.y1 - f.a2*f.right.y2
		f.right.x2, f.right.x1 = f.right.x1, in1
		f.right.y2, f.right.y1 = f.right.y1, out1

		samples[2*i] = float32(in0 + (out0-in0)*wet)
		samples[2*i+1] = float32(in1 + (out1-in1)*wet)
	}
}

// Reset clears filter and envelope state.
func (f *Biquad) Reset() {
	f.left = biquadState{}
	f.right = biquadState{}
	f.ResetWet()
}
