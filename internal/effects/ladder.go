package effects

import (
	"math"
	"math/rand"

	"github.com/vividhyeok/ole/internal/dsp"
)

// ladderStage holds the one-pole lowpass state for a single cascade
// stage on one channel.
type ladderStage struct {
	z float64
}

// Ladder is a four-pole Moog-style cascade with per-stage saturation
// and one-sample-delayed resonant feedback (§4.4 "Ladder filter").
type Ladder struct {
	WetBase

	Cutoff    *dsp.OnePole
	Resonance *dsp.OnePole
	sr        float64

	leftStages  [4]ladderStage
	rightStages [4]ladderStage

	leftFeedback, rightFeedback float64
	rng                         *rand.Rand
}

// NewLadder constructs a ladder filter at the given sample rate.
func NewLadder(sr float64, cutoffHz, resonance float64) *Ladder {
	return &Ladder{
		WetBase:   NewWetBase(),
		sr:        sr,
		Cutoff:    dsp.NewOnePole(dsp.DefaultSmoothingCoeff, cutoffHz),
		Resonance: dsp.NewOnePole(dsp.DefaultSmoothingCoeff, resonance),
		rng:       rand.New(rand.NewSource(1)),
	}
}

// saturate applies the rational-function tanh approximation
// x*(27+x^2)/(27+9x^2), per §4.4 "Ladder filter".
func saturate(x float64) float64 {
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}

func (l *Ladder) processChannel(stages *[4]ladderStage, feedback *float64, in, cutoff, resonance float64) float64 {
	resScale := 1 + 0.5*resonance
	k := 4 * resonance * resScale

	drift := (l.rng.Float64() - 0.5) * 1e-6
	x := in - k*saturate(*feedback) + drift

	g := cutoff / (cutoff + l.sr/(2*math.Pi))
	y := x
	for i := range stages {
		stages[i].z += g * (saturate(y) - stages[i].z)
		y = stages[i].z
	}

	*feedback = y
	return y / resScale
}

// Process runs the cascade in place through the mandatory wet envelope.
func (l *Ladder) Process(samples []float32) {
	frames := len(samples) / 2
	for i := 0; i < frames; i++ {
		cutoff := l.Cutoff.Next()
		resonance := l.Resonance.Next()
		wet := l.NextWet()

		in0 := float64(samples[2*i])
		in1 := float64(samples[2*i+1])

		out0 := l.processChannel(&l.leftStages, &l.leftFeedback, in0, cutoff, resonance)
		out1 := l.processChannel(&l.rightStages, &l.rightFeedback, in1, cutoff, resonance)

		samples[2*i] = float32(in0 + (out0-in0)*wet)
		samples[2*i+1] = float32(in1 + (out1-in1)*wet)
	}
}

// Reset clears stage/feedback state and the wet envelope.
func (l *Ladder) Reset() {
	l.leftStages = [4]ladderStage{}
	l.rightStages = [4]ladderStage{}
	l.leftFeedback, l.rightFeedback = 0, 0
	l.ResetWet()
}
