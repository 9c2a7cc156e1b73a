package mastering

import (
	"math"

	"github.com/vividhyeok/ole/internal/dsp"
)

// sidechainHPF is a 2nd-order Butterworth high-pass at 60Hz used only
// on the detector path, preventing kick-driven pumping (§4.5 "Glue
// compressor", §9 "Sidechain high-pass in the compressor").
type sidechainHPF struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

func newSidechainHPF(sr float64) *sidechainHPF {
	h := &sidechainHPF{}
	freq := 60.0
	omega := 2 * math.Pi * freq / sr
	sinW, cosW := math.Sin(omega), math.Cos(omega)
	alpha := sinW / (2 * 0.7071)

	b0 := (1 + cosW) / 2
	b1 := -(1 + cosW)
	b2 := (1 + cosW) / 2
	a0 := 1 + alpha
	a1 := -2 * cosW
	a2 := 1 - alpha

	h.b0, h.b1, h.b2 = b0/a0, b1/a0, b2/a0
	h.a1, h.a2 = a1/a0, a2/a0
	return h
}

func (h *sidechainHPF) process(in float64) float64 {
	out := h.b0*in + h.b1*h.x1 + h.b2*h.x2 - h.a1*h.y1 - h.a2*h.y2
	h.x2, h.x1 = h.x1, in
	h.y2, h.y1 = h.y1, out
	return out
}

// Compressor is the glue compressor: soft-knee gain reduction on a
// high-passed sidechain, program-dependent release, optional lookahead
// and auto-makeup (§4.5 "Glue compressor").
type Compressor struct {
	sr float64

	Threshold float64 // dB, -20..0
	Ratio     float64 // 1.1..2.5
	KneeDB    float64
	AttackMs  float64
	ReleaseMs float64

	sidechainL, sidechainR *sidechainHPF
	envelope               float64 // dB domain gain reduction envelope

	lookahead     []float32 // interleaved stereo delay line
	lookaheadAt   int
	lookaheadSize int

	gainSmoother *dsp.OnePole

	GainReductionDB float64
}

// NewCompressor constructs a compressor at the given sample rate with
// the spec's defaults (6dB knee, 1ms lookahead).
func NewCompressor(sr float64) *Compressor {
	lookaheadFrames := int(0.001 * sr)
	if lookaheadFrames < 1 {
		lookaheadFrames = 1
	}
	return &Compressor{
		sr:            sr,
		Threshold:     -18,
		Ratio:         1.5,
		KneeDB:        6,
		AttackMs:      15,
		ReleaseMs:     150,
		sidechainL:    newSidechainHPF(sr),
		sidechainR:    newSidechainHPF(sr),
		lookahead:     make([]float32, lookaheadFrames*2),
		lookaheadSize: lookaheadFrames,
		gainSmoother:  dsp.NewOnePole(dsp.DefaultSmoothingCoeff, 1.0),
	}
}

func linToDB(x float64) float64 {
	if x < 1e-9 {
		x = 1e-9
	}
	return 20 * math.Log10(x)
}

func dBToLin(db float64) float64 {
	return math.Pow(10, db/20)
}

// Process applies the glue compressor to the interleaved stereo buffer
// in place, reading the detector off the high-passed sidechain and
// outputting the lookahead-delayed signal.
func (c *Compressor) Process(samples []float32) {
	frames := len(samples) / 2
	attackCoeff := math.Exp(-1 / (c.AttackMs / 1000 * c.sr))
	baseReleaseCoeff := math.Exp(-1 / (c.ReleaseMs / 1000 * c.sr))

	autoMakeupDB := math.Min(6, math.Abs(c.Threshold)*(1-1/c.Ratio)/4)
	makeupLinear := dBToLin(autoMakeupDB)

	for i := 0; i < frames; i++ {
		l := float64(samples[2*i])
		r := float64(samples[2*i+1])

		scL := c.sidechainL.process(l)
		scR := c.sidechainR.process(r)
		detector := math.Max(math.Abs(scL), math.Abs(scR))
		detectorDB := linToDB(detector)

		gr := c.softKneeGR(detectorDB)

		if gr < c.envelope {
			c.envelope += (gr - c.envelope) * (1 - attackCoeff)
		} else {
			releaseCoeff := math.Pow(baseReleaseCoeff, 1/(1+math.Min(1, -c.envelope/10)))
			c.envelope += (gr - c.envelope) * (1 - releaseCoeff)
		}

		c.gainSmoother.SetTarget(dBToLin(c.envelope) * makeupLinear)
		gain := c.gainSmoother.Next()
		c.GainReductionDB = c.envelope

		delayedL := float64(c.lookahead[2*c.lookaheadAt])
		delayedR := float64(c.lookahead[2*c.lookaheadAt+1])
		c.lookahead[2*c.lookaheadAt] = float32(l)
		c.lookahead[2*c.lookaheadAt+1] = float32(r)
		c.lookaheadAt = (c.lookaheadAt + 1) % c.lookaheadSize

		samples[2*i] = float32(delayedL * gain)
		samples[2*i+1] = float32(delayedR * gain)
	}
}

// softKneeGR computes gain reduction in dB per §4.5's three-region
// formula (below knee, in knee, above knee).
func (c *Compressor) softKneeGR(inputDB float64) float64 {
	half := c.KneeDB / 2
	switch {
	case inputDB < c.Threshold-half:
		return 0
	case inputDB > c.Threshold+half:
		return c.Threshold + (inputDB-c.Threshold)/c.Ratio - inputDB
	default:
		t := (inputDB - (c.Threshold - half)) / c.KneeDB
		fullGR := c.Threshold + (inputDB-c.Threshold)/c.Ratio - inputDB
		return fullGR * t * t
	}
}

// Reset clears filter, envelope and lookahead state.
func (c *Compressor) Reset() {
	*c.sidechainL = sidechainHPF{}
	*c.sidechainR = sidechainHPF{}
	c.envelope = 0
	for i := range c.lookahead {
		c.lookahead[i] = 0
	}
	c.lookaheadAt = 0
}
