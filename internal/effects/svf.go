package effects

import (
	"math"

	"github.com/vividhyeok/ole/internal/dsp"
)

// SVFMode selects which Cytomic state-variable output the filter emits.
type SVFMode int

const (
	SVFLowpass SVFMode = iota
	SVFHighpass
	SVFBandpass
	SVFNotch
)

type svfState struct {
	ic1, ic2 float64
}

// SVF is a Cytomic trapezoidal-integration state-variable filter
// (§4.4 "State-variable filter"), offering LP/HP/BP/Notch outputs from
// a single two-integrator-loop core.
type SVF struct {
	WetBase

	Mode      SVFMode
	Cutoff    *dsp.OnePole
	Resonance *dsp.OnePole // 0..1, mapped to Q in [0.5, 20]
	sr        float64

	left, right svfState
}

// NewSVF constructs a filter at the given sample rate.
func NewSVF(sr float64, cutoffHz, resonance float64) *SVF {
	return &SVF{
		WetBase:   NewWetBase(),
		sr:        sr,
		Cutoff:    dsp.NewOnePole(dsp.DefaultSmoothingCoeff, cutoffHz),
		Resonance: dsp.NewOnePole(dsp.DefaultSmoothingCoeff, resonance),
	}
}

func (f *SVF) processChannel(s *svfState, x, g, k float64) float64 {
	a1 := 1 / (1 + g*(g+k))
	a2 := g * a1
	a3 := g * a2

	v3 := x - s.ic2
	v1 := a1*s.ic1 + a2*v3
	v2 := s.ic2 + a2*s.ic1 + a3*v3

	s.ic1 = 2*v1 - s.ic1
	s.ic2 = 2*v2 - s.ic2

	lp := v2
	hp := x - k*v1 - v2
	bp := v1
	notch := lp + hp

	switch f.Mode {
	case SVFHighpass:
		return hp
	case SVFBandpass:
		return bp
	case SVFNotch:
		return notch
	default:
		return lp
	}
}

// Process runs the two-integrator-loop filter in place.
func (f *SVF) Process(samples []float32) {
	frames := len(samples) / 2
	for i := 0; i < frames; i++ {
		cutoff := f.Cutoff.Next()
		resonance := f.Resonance.Next()
		wet := f.NextWet()

		g := math.Tan(math.Pi * cutoff / f.sr)
		q := 0.5 + resonance*(20-0.5)
		k := 1 / q

		in0 := float64(samples[2*i])
		in1 := float64(samples[2*i+1])

		out0 := f.processChannel(&f.left, in0, g, k)
		out1 := f.processChannel(&f.right, in1, g, k)

		samples[2*i] = float32(in0 + (out0-in0)*wet)
		samples[2*i+1] = float32(in1 + (out1-in1)*wet)
	}
}

// Reset clears integrator and envelope state.
func (f *SVF) Reset() {
	f.left = svfState{}
	f.right = svfState{}
	f.ResetWet()
}
