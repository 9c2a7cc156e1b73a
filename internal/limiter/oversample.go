package limiter

import "math"

const (
	oversampleFactor = 4
	tapsPerPhase     = 16
	kaiserBeta       = 8.6
)

// phaseCoeffs holds the four polyphase branches of a Kaiser-windowed
// half-band interpolation filter, 16 taps each (§4.6 "True-peak
// detection"). Phase 0 is documented to pass the input sample through
// unfiltered rather than use its designed coefficients — see the
// limiter's peak detector, which special-cases it.
var phaseCoeffs = designPolyphase(oversampleFactor, tapsPerPhase)

func besselI0(x float64) float64 {
	sum := 1.0
	term := 1.0
	for k := 1; k < 32; k++ {
		term *= (x / (2 * float64(k))) * (x / (2 * float64(k)))
		sum += term
		if term < 1e-15*sum {
			break
		}
	}
	return sum
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-9 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// designPolyphase builds an R-branch, tapsPerBranch-tap polyphase
// decomposition of a windowed-sinc interpolation lowpass at cutoff
// 1/(2R), returning phaseCoeffs[phase][tap].
func designPolyphase(r, tapsPerBranch int) [][]float64 {
	n := r * tapsPerBranch
	m := float64(n-1) / 2
	fc := 1.0 / (2.0 * float64(r))

	proto := make([]float64, n)
	i0Beta := besselI0(kaiserBeta)
	for i := 0; i < n; i++ {
		x := (float64(i) - m) / m
		if x < -1 {
			x = -1
		}
		if x > 1 {
			x = 1
		}
		win := besselI0(kaiserBeta*math.Sqrt(1-x*x)) / i0Beta
		ideal := 2 * fc * sinc(2*fc*(float64(i)-m))
		proto[i] = ideal * win * float64(r)
	}

	phases := make([][]float64, r)
	for p := 0; p < r; p++ {
		branch := make([]float64, tapsPerBranch)
		for k := 0; k < tapsPerBranch; k++ {
			idx := p + k*r
			if idx < n {
				branch[k] = proto[idx]
			}
		}
		phases[p] = branch
	}
	return phases
}

// channelOversampler tracks per-channel input history to evaluate the
// polyphase interpolation branches for true-peak estimation.
type channelOversampler struct {
	history [tapsPerPhase]float64
}

func (c *channelOversampler) push(sample float64) {
	copy(c.history[1:], c.history[:tapsPerPhase-1])
	c.history[0] = sample
}

// interpolate evaluates phase p (1..oversampleFactor-1) against the
// current history window. Phase 0 is never called here — callers use
// the raw input sample directly per the documented passthrough.
func (c *channelOversampler) interpolate(phase int) float64 {
	coeffs := phaseCoeffs[phase]
	sum := 0.0
	for k := 0; k < tapsPerPhase; k++ {
		sum += coeffs[k] * c.history[k]
	}
	return sum
}

// peak pushes the new sample and returns the maximum absolute value
// across the raw sample (phase 0, documented passthrough) and the
// interpolated inter-sample phases 1..3.
func (c *channelOversampler) peak(sample float64) float64 {
	c.push(sample)
	peak := math.Abs(sample)
	for p := 1; p < oversampleFactor; p++ {
		if v := math.Abs(c.interpolate(p)); v > peak {
			peak = v
		}
	}
	return peak
}

func (c *channelOversampler) reset() {
	for i := range c.history {
		c.history[i] = 0
	}
}
