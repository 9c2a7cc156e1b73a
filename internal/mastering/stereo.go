package mastering

import "math"

// lowSplit is a 2nd-order Butterworth lowpass used to split a channel
// into low/high bands ahead of the bass-mono split (§4.5 "Stereo
// enhancer").
type lowSplit struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

func newLowSplit(sr, freq float64) *lowSplit {
	s := &lowSplit{}
	s.recompute(sr, freq)
	return s
}

func (s *lowSplit) recompute(sr, freq float64) {
	omega := 2 * math.Pi * freq / sr
	sinW, cosW := math.Sin(omega), math.Cos(omega)
	alpha := sinW / (2 * 0.7071)

	b0 := (1 - cosW) / 2
	b1 := 1 - cosW
	b2 := (1 - cosW) / 2
	a0 := 1 + alpha
	a1 := -2 * cosW
	a2 := 1 - alpha

	s.b0, s.b1, s.b2 = b0/a0, b1/a0, b2/a0
	s.a1, s.a2 = a1/a0, a2/a0
}

func (s *lowSplit) process(in float64) float64 {
	out := s.b0*in + s.b1*s.x1 + s.b2*s.x2 - s.a1*s.y1 - s.a2*s.y2
	s.x2, s.x1 = s.x1, in
	s.y2, s.y1 = s.y1, out
	return out
}

// StereoEnhancer splits each channel into low/high bands, mono-sums the
// lows and applies a mid/side width to the highs with a high-frequency
// envelope-dependent boost (§4.5 "Stereo enhancer").
type StereoEnhancer struct {
	sr          float64
	SplitHz     float64 // 80..200, default 150
	BaseWidth   float64 // width floor, part of [0.5, 1.5]
	HFBoost     float64 // added to base_width by hf_env
	lowL, lowR  *lowSplit
	hfEnvAlpha  float64
	hfEnv       float64
}

// NewStereoEnhancer constructs the enhancer at the given sample rate
// with the spec default 150Hz split and unity width.
func NewStereoEnhancer(sr float64) *StereoEnhancer {
	const hfEnvMs = 10.0
	return &StereoEnhancer{
		sr:         sr,
		SplitHz:    150,
		BaseWidth:  1.0,
		HFBoost:    0,
		lowL:       newLowSplit(sr, 150),
		lowR:       newLowSplit(sr, 150),
		hfEnvAlpha: math.Exp(-1 / (hfEnvMs / 1000 * sr)),
	}
}

// SetSplitHz updates the low/high split frequency, clamped to [80, 200].
func (e *StereoEnhancer) SetSplitHz(hz float64) {
	if hz < 80 {
		hz = 80
	}
	if hz > 200 {
		hz = 200
	}
	e.SplitHz = hz
	e.lowL.recompute(e.sr, hz)
	e.lowR.recompute(e.sr, hz)
}

// Process applies the bass-mono split and width-adjusted mid/side
// encode/decode to the interleaved stereo buffer in place.
func (e *StereoEnhancer) Process(samples []float32) {
	frames := len(samples) / 2
	for i := 0; i < frames; i++ {
		l := float64(samples[2*i])
		r := float64(samples[2*i+1])

		lowL := e.lowL.process(l)
		lowR := e.lowR.process(r)
		highL := l - lowL
		highR := r - lowR

		monoLow := (lowL + lowR) / 2

		e.hfEnv = e.hfEnvAlpha*e.hfEnv + (1-e.hfEnvAlpha)*((math.Abs(highL)+math.Abs(highR))/2)

		width := e.BaseWidth + e.hfEnv*e.HFBoost
		if width < 0.5 {
			width = 0.5
		}
		if width > 1.5 {
			width = 1.5
		}

		mid := (highL + highR) / 2
		side := (highL - highR) / 2 * width

		outL := monoLow + mid + side
		outR := monoLow + mid - side

		samples[2*i] = float32(outL)
		samples[2*i+1] = float32(outR)
	}
}

// Reset clears filter and envelope state.
func (e *StereoEnhancer) Reset() {
	*e.lowL = lowSplit{}
	*e.lowR = lowSplit{}
	e.lowL.recompute(e.sr, e.SplitHz)
	e.lowR.recompute(e.sr, e.SplitHz)
	e.hfEnv = 0
}
