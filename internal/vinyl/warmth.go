package vinyl

import (
	"math"

	"github.com/vividhyeok/ole/internal/effects"
)

// Saturation selects the analog-warmth nonlinearity, per §4.4 "Vinyl
// emulation" ("tube/tape/transistor saturation (selectable)").
type Saturation int

const (
	SaturationTube Saturation = iota
	SaturationTape
	SaturationTransistor
)

func saturate(s Saturation, x float64) float64 {
	switch s {
	case SaturationTape:
		return math.Tanh(x * 1.4)
	case SaturationTransistor:
		if x > 0 {
			return 1 - math.Exp(-x)
		}
		return -1 + math.Exp(x)
	default: // SaturationTube
		return x - x*x*x/3*0.6
	}
}

// Warmth applies a RIAA-like low/high shelf blended against dry by
// riaaAmount, the selected saturation, a soft-knee peak compressor and
// output gain (§4.4 "Vinyl emulation" "Analog warmth").
type Warmth struct {
	lowShelf  *effects.Biquad
	highShelf *effects.Biquad

	RIAAAmount float64 // 0..1
	Saturation Saturation
	OutputGain float64

	compEnvelope float64
}

// NewWarmth constructs the RIAA shelving filters at the given sample
// rate: +~3.5dB low shelf at 300Hz, -2dB high shelf at 2500Hz. Each
// shelf is a 300Hz lowpass / 2500Hz highpass band added back onto the
// dry signal in Process.
func NewWarmth(sr float64) *Warmth {
	w := &Warmth{
		lowShelf:   effects.NewBiquad(sr, 300, 0.707),
		highShelf:  effects.NewBiquad(sr, 2500, 0.707),
		RIAAAmount: 0.5,
		OutputGain: 1.0,
	}
	w.lowShelf.Mode = effects.BiquadLowpass
	w.highShelf.Mode = effects.BiquadHighpass
	w.lowShelf.SetEnabled(true)
	w.highShelf.SetEnabled(true)
	return w
}

// Process applies the shelving blend, saturation, compression and
// output gain in place.
func (w *Warmth) Process(samples []float32) {
	lowBand := append([]float32(nil), samples...)
	w.lowShelf.Process(lowBand)
	highBand := append([]float32(nil), samples...)
	w.highShelf.Process(highBand)

	// shelf = dry + (gain-1) * band: +3.5dB below 300Hz, -2dB above 2500Hz.
	lowBoost := math.Pow(10, 3.5/20) - 1
	highCut := math.Pow(10, -2.0/20) - 1

	frames := len(samples) / 2
	for i := 0; i < frames; i++ {
		for ch := 0; ch < 2; ch++ {
			dry := float64(samples[2*i+ch])
			wet := dry + lowBoost*float64(lowBand[2*i+ch]) + highCut*float64(highBand[2*i+ch])
			blended := dry + (wet-dry)*w.RIAAAmount

			sat := saturate(w.Saturation, blended)
			compressed := w.compress(sat)

			samples[2*i+ch] = float32(compressed * w.OutputGain)
		}
	}
}

// compress applies a soft-knee peak compressor with a one-pole envelope
// follower.
func (w *Warmth) compress(x float64) float64 {
	const threshold = 0.7
	const ratio = 4.0
	const attack = 0.3
	const release = 0.01

	level := math.Abs(x)
	if level > w.compEnvelope {
		w.compEnvelope += (level - w.compEnvelope) * attack
	} else {
		w.compEnvelope += (level - w.compEnvelope) * release
	}

	if w.compEnvelope <= threshold {
		return x
	}
	excess := w.compEnvelope - threshold
	gain := (threshold + excess/ratio) / w.compEnvelope
	return x * gain
}
