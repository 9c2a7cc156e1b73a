// Package limiter implements the true-peak limiter that guarantees
// output never exceeds a configurable ceiling (§4.6 "True-peak
// limiter").
package limiter

import "math"

const (
	defaultCeilingDBFS  = -1.0
	defaultKneeDB       = 1.5
	defaultLookaheadMs  = 5.0
	fastAttackMs        = 0.1
	fastReleaseMs       = 10.0
	slowAttackMs        = 2.0
	slowReleaseMs       = 80.0
	grHoldMs            = 500.0
	grDecayMs           = 500.0
)

func dbToLinear(db float64) float64 { return math.Pow(10, db/20) }

// Limiter is a brickwall true-peak limiter: 4x oversampled peak
// detection, a monotonic-deque peak-hold window, a soft-knee gain
// curve, and a two-stage fast/slow envelope feeding a lookahead-delayed
// output stage (§4.6).
type Limiter struct {
	sr float64

	Ceiling float64 // linear, default dbToLinear(-1)
	KneeDB  float64 // default 1.5

	oversampleL, oversampleR *channelOversampler
	peakHold                 *peakHoldBuffer

	fastCoeffAttack, fastCoeffRelease float64
	slowCoeffAttack, slowCoeffRelease float64
	fastEnv, slowEnv                  float64

	lookahead     []float32
	lookaheadAt   int
	lookaheadSize int

	GainReductionDB float64
	grPeak          float64
	grHoldLeft      int
	grHoldFrames    int
	grDecayPerFrame float64
}

// NewLimiter constructs a limiter at the given sample rate with the
// spec's defaults: -1dBFS ceiling, 1.5dB knee, 5ms lookahead.
func NewLimiter(sr float64) *Limiter {
	lookaheadFrames := int(defaultLookaheadMs / 1000 * sr)
	if lookaheadFrames < 1 {
		lookaheadFrames = 1
	}
	grHoldFrames := int(grHoldMs / 1000 * sr)

	l := &Limiter{
		sr:            sr,
		Ceiling:       dbToLinear(defaultCeilingDBFS),
		KneeDB:        defaultKneeDB,
		oversampleL:   &channelOversampler{},
		oversampleR:   &channelOversampler{},
		peakHold:      newPeakHoldBuffer(lookaheadFrames),
		lookahead:     make([]float32, lookaheadFrames*2),
		lookaheadSize: lookaheadFrames,
		fastEnv:       1,
		slowEnv:       1,
		grHoldFrames:  grHoldFrames,
	}
	l.fastCoeffAttack = math.Exp(-1 / (fastAttackMs / 1000 * sr))
	l.fastCoeffRelease = math.Exp(-1 / (fastReleaseMs / 1000 * sr))
	l.slowCoeffAttack = math.Exp(-1 / (slowAttackMs / 1000 * sr))
	l.slowCoeffRelease = math.Exp(-1 / (slowReleaseMs / 1000 * sr))
	l.grDecayPerFrame = 1.0 / (grDecayMs / 1000 * sr)
	return l
}

// SetCeilingDB sets the output ceiling in dBFS.
func (l *Limiter) SetCeilingDB(db float64) {
	l.Ceiling = dbToLinear(db)
}

// targetGain implements the soft-knee gain curve (§4.6 "Gain curve").
func (l *Limiter) targetGain(peak float64) float64 {
	if peak < 1e-9 {
		return 1
	}
	kneeRatio := math.Pow(10, l.KneeDB/20)
	kneeThreshold := l.Ceiling / kneeRatio

	if peak <= kneeThreshold {
		return 1
	}
	if peak >= l.Ceiling {
		return l.Ceiling / peak
	}

	kneeRange := l.Ceiling - kneeThreshold
	x := (peak - kneeThreshold) / kneeRange
	output := kneeThreshold + x*x*kneeRange
	gain := output / peak
	if gain > 1 {
		gain = 1
	}
	return gain
}

func (l *Limiter) stepEnvelope(current, target, attackCoeff, releaseCoeff float64) float64 {
	if target < current {
		return target + (current-target)*attackCoeff
	}
	return target + (current-target)*releaseCoeff
}

// Process applies true-peak limiting to the interleaved stereo buffer
// in place, per the §4.6 pipeline: detect, hold, envelope, delayed
// output, safety clamp. The peak-hold buffer holds the true peak
// values themselves (not gains), so its window maximum anticipates the
// loudest upcoming sample within the lookahead; the gain computed from
// that held peak is combined with the instantaneous target via min, so
// whichever calls for more reduction wins.
func (l *Limiter) Process(samples []float32) {
	frames := len(samples) / 2
	for i := 0; i < frames; i++ {
		inL := float64(samples[2*i])
		inR := float64(samples[2*i+1])

		peakL := l.oversampleL.peak(inL)
		peakR := l.oversampleR.peak(inR)
		peak := math.Max(peakL, peakR)

		target := l.targetGain(peak)
		heldPeak := l.peakHold.push(peak)
		heldTarget := l.targetGain(heldPeak)
		finalTarget := math.Min(heldTarget, target)

		l.fastEnv = l.stepEnvelope(l.fastEnv, finalTarget, l.fastCoeffAttack, l.fastCoeffRelease)
		l.slowEnv = l.stepEnvelope(l.slowEnv, finalTarget, l.slowCoeffAttack, l.slowCoeffRelease)

		gain := math.Min(l.fastEnv, l.slowEnv)
		if gain < 0.001 {
			gain = 0.001
		}
		if gain > 1.0 {
			gain = 1.0
		}

		grDB := 20 * math.Log10(gain)
		if grDB < l.grPeak {
			l.grPeak = grDB
			l.grHoldLeft = l.grHoldFrames
		} else if l.grHoldLeft > 0 {
			l.grHoldLeft--
		} else {
			l.grPeak += l.grDecayPerFrame
			if l.grPeak > 0 {
				l.grPeak = 0
			}
		}
		l.GainReductionDB = l.grPeak

		delayedL := float64(l.lookahead[2*l.lookaheadAt])
		delayedR := float64(l.lookahead[2*l.lookaheadAt+1])
		l.lookahead[2*l.lookaheadAt] = float32(inL)
		l.lookahead[2*l.lookaheadAt+1] = float32(inR)
		l.lookaheadAt = (l.lookaheadAt + 1) % l.lookaheadSize

		outL := delayedL * gain
		outR := delayedR * gain

		samples[2*i] = float32(clamp(outL, -l.Ceiling, l.Ceiling))
		samples[2*i+1] = float32(clamp(outR, -l.Ceiling, l.Ceiling))
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Reset clears all filter, envelope, hold and lookahead state.
func (l *Limiter) Reset() {
	l.oversampleL.reset()
	l.oversampleR.reset()
	l.peakHold.reset()
	l.fastEnv = 1
	l.slowEnv = 1
	l.grPeak = 0
	l.grHoldLeft = 0
	for i := range l.lookahead {
		l.lookahead[i] = 0
	}
	l.lookaheadAt = 0
}
