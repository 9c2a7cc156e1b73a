package effects

import (
	"math"

	"github.com/vividhyeok/ole/internal/dsp"
)

// DelayInterpolation selects the fractional-tap read method.
type DelayInterpolation int

const (
	DelayOff DelayInterpolation = iota
	DelayLinear
	DelayLagrange
)

// DelayModulation presets the LFO depth/rate applied to the read tap.
type DelayModulation int

const (
	ModOff DelayModulation = iota
	ModSubtle
	ModClassic
	ModHeavy
)

var delayModPresets = map[DelayModulation]struct{ depthMs, rateHz float64 }{
	ModOff:     {0, 0},
	ModSubtle:  {0.5, 0.2},
	ModClassic: {2.0, 0.5},
	ModHeavy:   {6.0, 1.2},
}

// delayLevelsMs maps preset levels 1..5 to delay times, per §4.4 "Delay".
var delayLevelsMs = [5]float64{100, 200, 300, 400, 500}

// Delay is a stereo ring-buffer delay with fractional-tap interpolation,
// optional LFO modulation and a high-passed, soft-saturated feedback
// path (§4.4 "Delay").
type Delay struct {
	WetBase

	Interpolation DelayInterpolation
	Modulation    DelayModulation
	Feedback      float64 // 0..1
	delayMs       *dsp.OnePole

	sr       float64
	ring     []float32 // interleaved stereo
	writeAt  int
	capacity int // frames

	lfoPhase float64

	feedbackHPF *Biquad
}

// NewDelay constructs a delay with maxDelaySeconds of ring-buffer
// capacity at the given sample rate.
func NewDelay(sr float64, maxDelaySeconds float64) *Delay {
	capacity := int(maxDelaySeconds * sr)
	d := &Delay{
		WetBase:     NewWetBase(),
		sr:          sr,
		ring:        make([]float32, capacity*2),
		capacity:    capacity,
		delayMs:     dsp.NewOnePole(dsp.DefaultSmoothingCoeff, 300),
		Feedback:    0.35,
		feedbackHPF: NewBiquad(sr, 80, 0.707),
	}
	d.feedbackHPF.Mode = BiquadHighpass
	d.feedbackHPF.SetEnabled(true)
	return d
}

// SetLevel selects one of the five preset delay times (§4.4 "Delay").
func (d *Delay) SetLevel(level int) {
	if level < 1 {
		level = 1
	}
	if level > 5 {
		level = 5
	}
	d.delayMs.SetTarget(delayLevelsMs[level-1])
}

func saturateFeedback(x float64) float64 {
	return x / (1 + math.Abs(x))
}

// Process reads/writes the ring buffer in place, applying LFO modulation
// and the feedback path's HPF + saturation.
func (d *Delay) Process(samples []float32) {
	frames := len(samples) / 2
	preset := delayModPresets[d.Modulation]

	for i := 0; i < frames; i++ {
		delayMs := d.delayMs.Next()
		wet := d.NextWet()

		lfo := math.Sin(2*math.Pi*d.lfoPhase) * preset.depthMs
		d.lfoPhase += preset.rateHz / d.sr
		if d.lfoPhase > 1 {
			d.lfoPhase -= 1
		}

		effectiveMs := delayMs + lfo
		if effectiveMs < 0 {
			effectiveMs = 0
		}
		delaySamples := effectiveMs / 1000 * d.sr

		readPos := float64(d.writeAt) - delaySamples
		for readPos < 0 {
			readPos += float64(d.capacity)
		}

		l, r := d.readTap(readPos)

		in0 := float64(samples[2*i])
		in1 := float64(samples[2*i+1])

		fbSamples := [2]float32{float32(l), float32(r)}
		d.feedbackHPF.Process(fbSamples[:])
		fbL := saturateFeedback(float64(fbSamples[0])) * d.Feedback
		fbR := saturateFeedback(float64(fbSamples[1])) * d.Feedback

		d.ring[2*d.writeAt] = float32(in0 + fbL)
		d.ring[2*d.writeAt+1] = float32(in1 + fbR)
		d.writeAt = (d.writeAt + 1) % d.capacity

		samples[2*i] = float32(in0 + (l-in0)*wet)
		samples[2*i+1] = float32(in1 + (r-in1)*wet)
	}
}

func (d *Delay) readTap(pos float64) (float64, float64) {
	base := int(math.Floor(pos))
	frac := pos - float64(base)

	idx := func(offset int) int {
		i := (base + offset) % d.capacity
		if i < 0 {
			i += d.capacity
		}
		return i
	}

	switch d.Interpolation {
	case DelayOff:
		i := idx(0)
		return float64(d.ring[2*i]), float64(d.ring[2*i+1])
	case DelayLinear:
		i0, i1 := idx(0), idx(1)
		l := dsp.LinearInterp(float64(d.ring[2*i0]), float64(d.ring[2*i1]), frac)
		r := dsp.LinearInterp(float64(d.ring[2*i0+1]), float64(d.ring[2*i1+1]), frac)
		return l, r
	default: // DelayLagrange
		im1, i0, i1, i2 := idx(-1), idx(0), idx(1), idx(2)
		l := dsp.LagrangeInterp4(float64(d.ring[2*im1]), float64(d.ring[2*i0]), float64(d.ring[2*i1]), float64(d.ring[2*i2]), frac)
		r := dsp.LagrangeInterp4(float64(d.ring[2*im1+1]), float64(d.ring[2*i0+1]), float64(d.ring[2*i1+1]), float64(d.ring[2*i2+1]), frac)
		return l, r
	}
}

// Reset clears the ring buffer and envelope state.
func (d *Delay) Reset() {
	for i := range d.ring {
		d.ring[i] = 0
	}
	d.writeAt = 0
	d.lfoPhase = 0
	d.feedbackHPF.Reset()
	d.ResetWet()
}
