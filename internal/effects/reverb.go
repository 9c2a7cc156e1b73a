package effects

import "math"

const (
	numCombs    = 8
	numAllpass  = 4
	stereoSpread = 23 // samples at 44.1kHz, scaled to actual sr
)

// baseCombTuningsMs and baseAllpassTuningsMs are Freeverb's canonical
// comb/allpass delay lengths in milliseconds, scaled to the actual
// sample rate at construction (§4.4 "Reverb").
var baseCombTuningsMs = [numCombs]float64{
	1116.0 / 44100 * 1000, 1188.0 / 44100 * 1000, 1277.0 / 44100 * 1000, 1356.0 / 44100 * 1000,
	1422.0 / 44100 * 1000, 1491.0 / 44100 * 1000, 1557.0 / 44100 * 1000, 1617.0 / 44100 * 1000,
}

var baseAllpassTuningsMs = [numAllpass]float64{
	556.0 / 44100 * 1000, 441.0 / 44100 * 1000, 341.0 / 44100 * 1000, 225.0 / 44100 * 1000,
}

// reverbPresets maps levels 1..5 to (roomSize, damping, wet), per
// §4.4 "Reverb" "Levels 1-5 map to five presets".
var reverbPresets = [5]struct{ roomSize, damping, wet float64 }{
	{0.3, 0.5, 0.15},
	{0.5, 0.5, 0.25},
	{0.6, 0.4, 0.35},
	{0.75, 0.3, 0.45},
	{0.9, 0.2, 0.6},
}

type comb struct {
	buf     []float32
	idx     int
	filterZ float64
}

type allpass struct {
	buf []float32
	idx int
}

// Reverb is a Freeverb-style parallel-comb/series-allpass reverb with
// stereo-spread comb lengths and one-pole damping in each comb's
// feedback path (§4.4 "Reverb (Freeverb-style)").
type Reverb struct {
	WetBase

	RoomSize, Damping float64
	Width             float64

	sr float64

	combsL [numCombs]comb
	combsR [numCombs]comb
	apL    [numAllpass]allpass
	apR    [numAllpass]allpass

	feedback, wet1, wet2 float64
}

// NewReverb constructs a reverb scaled to sr, starting disabled at
// preset level 3.
func NewReverb(sr float64) *Reverb {
	r := &Reverb{WetBase: NewWetBase(), sr: sr, Width: 1.0}
	scale := sr / 44100

	for i := 0; i < numCombs; i++ {
		lenL := int(baseCombTuningsMs[i] / 1000 * sr)
		lenR := int((baseCombTuningsMs[i]/1000*sr + stereoSpread*scale))
		r.combsL[i] = comb{buf: make([]float32, lenL)}
		r.combsR[i] = comb{buf: make([]float32, lenR)}
	}
	for i := 0; i < numAllpass; i++ {
		lenL := int(baseAllpassTuningsMs[i] / 1000 * sr)
		lenR := int((baseAllpassTuningsMs[i]/1000*sr + stereoSpread*scale))
		r.apL[i] = allpass{buf: make([]float32, lenL)}
		r.apR[i] = allpass{buf: make([]float32, lenR)}
	}

	r.SetLevel(3)
	return r
}

// SetLevel applies one of the five (roomSize, damping, wet) presets.
func (r *Reverb) SetLevel(level int) {
	if level < 1 {
		level = 1
	}
	if level > 5 {
		level = 5
	}
	p := reverbPresets[level-1]
	r.SetParams(p.roomSize, p.damping, p.wet)
}

// SetParams sets room size/damping/wet and recomputes the cached
// coefficients (feedback, wet1, wet2) — only on parameter change, per
// §4.4 "Reverb".
func (r *Reverb) SetParams(roomSize, damping, wet float64) {
	r.RoomSize, r.Damping = roomSize, damping
	r.feedback = 0.24*roomSize + 0.6
	r.wet1 = wet * (0.5*r.Width + 0.5)
	r.wet2 = wet * 0.5 * (1 - r.Width)
}

func (c *comb) process(feedback, damping float64, x float32) float32 {
	out := c.buf[c.idx]
	c.filterZ = float64(out)*(1-damping) + c.filterZ*damping
	c.buf[c.idx] = x + float32(c.filterZ*feedback)
	c.idx++
	if c.idx >= len(c.buf) {
		c.idx = 0
	}
	return out
}

func (a *allpass) process(x float32) float32 {
	bufOut := a.buf[a.idx]
	out := -x + bufOut
	a.buf[a.idx] = x + bufOut*0.5
	a.idx++
	if a.idx >= len(a.buf) {
		a.idx = 0
	}
	return out
}

func softClip(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x - x*x*x/3
}

// Process runs the comb bank then the allpass series on each channel.
func (r *Reverb) Process(samples []float32) {
	frames := len(samples) / 2
	for i := 0; i < frames; i++ {
		wet := r.NextWet()

		inL := samples[2*i]
		inR := samples[2*i+1]
		input := (inL + inR) * 0.015 // Freeverb's fixed input gain

		var outL, outR float32
		for c := range r.combsL {
			outL += r.combsL[c].process(r.feedback, r.Damping, input)
		}
		for c := range r.combsR {
			outR += r.combsR[c].process(r.feedback, r.Damping, input)
		}

		for a := range r.apL {
			outL = r.apL[a].process(outL)
		}
		for a := range r.apR {
			outR = r.apR[a].process(outR)
		}

		wetL := softClip(float64(outL)*r.wet1 + float64(outR)*r.wet2)
		wetR := softClip(float64(outR)*r.wet1 + float64(outL)*r.wet2)

		samples[2*i] = float32(float64(inL) + (wetL-float64(inL))*wet)
		samples[2*i+1] = float32(float64(inR) + (wetR-float64(inR))*wet)
	}
}

// Reset clears every comb/allpass buffer and the wet envelope.
func (r *Reverb) Reset() {
	for i := range r.combsL {
		clearFloat32(r.combsL[i].buf)
		clearFloat32(r.combsR[i].buf)
		r.combsL[i].filterZ, r.combsR[i].filterZ = 0, 0
	}
	for i := range r.apL {
		clearFloat32(r.apL[i].buf)
		clearFloat32(r.apR[i].buf)
	}
	r.ResetWet()
}

func clearFloat32(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}
