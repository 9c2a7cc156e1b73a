// Package mastering implements the fixed EQ -> compressor -> saturation
// -> stereo-enhancer -> limiter chain and its BS.1770 loudness meter
// (§4.5 "Mastering chain").
package mastering

import (
	"math"

	"github.com/vividhyeok/ole/internal/dsp"
)

// shelfBiquad is a single RBJ shelf/peaking filter with per-sample gain
// smoothing and a unit-pass-through short-circuit when |dB| < 0.01
// (§4.5 "Three-band EQ").
type shelfBiquad struct {
	freq, q float64
	gainDB  *dsp.OnePole
	sr      float64
	kind    shelfKind

	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
	x1R, x2R, y1R, y2R float64
}

type shelfKind int

const (
	shelfLow shelfKind = iota
	shelfPeak
	shelfHigh
)

func newShelf(sr, freq, q, startDB float64, kind shelfKind) *shelfBiquad {
	s := &shelfBiquad{freq: freq, q: q, sr: sr, kind: kind, gainDB: dsp.NewOnePole(dsp.DefaultSmoothingCoeff, startDB)}
	s.recompute(startDB)
	return s
}

func (s *shelfBiquad) recompute(dB float64) {
	if math.Abs(dB) < 0.01 {
		s.b0, s.b1, s.b2, s.a1, s.a2 = 1, 0, 0, 0, 0
		return
	}

	a := math.Pow(10, dB/40)
	omega := 2 * math.Pi * s.freq / s.sr
	sinW, cosW := math.Sin(omega), math.Cos(omega)
	alpha := sinW / (2 * s.q)

	var b0, b1, b2, a0, a1, a2 float64
	switch s.kind {
	case shelfLow:
		beta := math.Sqrt(a) / s.q
		b0 = a * ((a + 1) - (a-1)*cosW + beta*sinW)
		b1 = 2 * a * ((a - 1) - (a+1)*cosW)
		b2 = a * ((a + 1) - (a-1)*cosW - beta*sinW)
		a0 = (a + 1) + (a-1)*cosW + beta*sinW
		a1 = -2 * ((a - 1) + (a+1)*cosW)
		a2 = (a + 1) + (a-1)*cosW - beta*sinW
	case shelfHigh:
		beta := math.Sqrt(a) / s.q
		b0 = a * ((a + 1) + (a-1)*cosW + beta*sinW)
		b1 = -2 * a * ((a - 1) + (a+1)*cosW)
		b2 = a * ((a + 1) + (a-1)*cosW - beta*sinW)
		a0 = (a + 1) - (a-1)*cosW + beta*sinW
		a1 = 2 * ((a - 1) - (a+1)*cosW)
		a2 = (a + 1) - (a-1)*cosW - beta*sinW
	default: // shelfPeak
		alphaA := alpha / a
		alphaMulA := alpha * a
		b0 = 1 + alphaMulA
		b1 = -2 * cosW
		b2 = 1 - alphaMulA
		a0 = 1 + alphaA
		a1 = -2 * cosW
		a2 = 1 - alphaA
	}

	s.b0, s.b1, s.b2 = b0/a0, b1/a0, b2/a0
	s.a1, s.a2 = a1/a0, a2/a0
}

func (s *shelfBiquad) processSample(x1, x2, y1, y2 *float64, in float64) float64 {
	out := s.b0*in + s.b1**x1 + s.b2**x2 - s.a1**y1 - s.a2**y2
	*x2 = *x1
	*x1 = in
	*y2 = *y1
	*y1 = out
	return out
}

// ThreeBandEQ is the low-shelf/mid-peak/high-shelf stage (§4.5
// "Three-band EQ").
type ThreeBandEQ struct {
	Low  *shelfBiquad
	Mid  *shelfBiquad
	High *shelfBiquad
}

// NewThreeBandEQ constructs the EQ at the given sample rate with the
// spec's default frequencies and gains: 100Hz low shelf at +1dB, 3kHz
// mid peak (Q 0.7) at 0dB, 12kHz high shelf at +0.5dB.
func NewThreeBandEQ(sr float64) *ThreeBandEQ {
	return &ThreeBandEQ{
		Low:  newShelf(sr, 100, 0.707, 1.0, shelfLow),
		Mid:  newShelf(sr, 3000, 0.7, 0, shelfPeak),
		High: newShelf(sr, 12000, 0.707, 0.5, shelfHigh),
	}
}

// SetGains sets the three bands' target gains in dB, clamped to ±3dB.
func (eq *ThreeBandEQ) SetGains(lowDB, midDB, highDB float64) {
	eq.Low.gainDB.SetTarget(clampDB(lowDB))
	eq.Mid.gainDB.SetTarget(clampDB(midDB))
	eq.High.gainDB.SetTarget(clampDB(highDB))
}

func clampDB(db float64) float64 {
	if db < -3 {
		return -3
	}
	if db > 3 {
		return 3
	}
	return db
}

// Process runs all three bands in series on the interleaved stereo
// buffer in place.
func (eq *ThreeBandEQ) Process(samples []float32) {
	frames := len(samples) / 2
	for i := 0; i < frames; i++ {
		eq.Low.recompute(eq.Low.gainDB.Next())
		eq.Mid.recompute(eq.Mid.gainDB.Next())
		eq.High.recompute(eq.High.gainDB.Next())

		l := float64(samples[2*i])
		r := float64(samples[2*i+1])

		l = eq.Low.processSample(&eq.Low.x1, &eq.Low.x2, &eq.Low.y1, &eq.Low.y2, l)
		r = eq.Low.processSample(&eq.Low.x1R, &eq.Low.x2R, &eq.Low.y1R, &eq.Low.y2R, r)

		l = eq.Mid.processSample(&eq.Mid.x1, &eq.Mid.x2, &eq.Mid.y1, &eq.Mid.y2, l)
		r = eq.Mid.processSample(&eq.Mid.x1R, &eq.Mid.x2R, &eq.Mid.y1R, &eq.Mid.y2R, r)

		l = eq.High.processSample(&eq.High.x1, &eq.High.x2, &eq.High.y1, &eq.High.y2, l)
		r = eq.High.processSample(&eq.High.x1R, &eq.High.x2R, &eq.High.y1R, &eq.High.y2R, r)

		samples[2*i] = float32(l)
		samples[2*i+1] = float32(r)
	}
}
