package effects

import (
	"math"

	"github.com/vividhyeok/ole/internal/dsp"
)

// VocoderFFTSize selects one of the three supported STFT sizes for the
// phase vocoder, per §4.4 "Phase vocoder (time-stretch)".
type VocoderFFTSize int

const (
	VocoderFFT1024 VocoderFFTSize = 1024
	VocoderFFT2048 VocoderFFTSize = 2048
	VocoderFFT4096 VocoderFFTSize = 4096
)

// transientThresholdRatio gates the spectral-flux transient detector: a
// frame whose flux exceeds this fraction of its own energy resets phase
// accumulators, per §4.4.
const transientThresholdRatio = 0.35

// vocoderChannel holds one channel's full STFT analysis/synthesis state:
// an input accumulator, the running output phase accumulators, and the
// overlap-add output ring.
type vocoderChannel struct {
	inputRing    []float32
	inputWriteAt int
	inputFilled  int
	analysisRead int

	prevMag   []float64
	prevPhase []float64
	outPhase  []float64

	outputRing    []float64
	outputWriteAt int
	outputReadAt  int
	outputFilled  int
}

// Vocoder is an STFT phase vocoder implementing time-stretch with
// transient-preserving phase reset and optional peak-locking
// (§4.4 "Phase vocoder (time-stretch)").
type Vocoder struct {
	WetBase

	fftSize   int
	hop       int // analysis hop (75% overlap => fftSize/4)
	sr        float64
	Ratio     float64 // stretch ratio R
	PeakLock  bool

	fft    *dsp.FFT
	window []float64

	left, right vocoderChannel
}

// NewVocoder constructs a vocoder at the given sample rate and FFT size.
func NewVocoder(sr float64, size VocoderFFTSize) *Vocoder {
	n := int(size)
	hop := n / 4
	v := &Vocoder{
		WetBase: NewWetBase(),
		fftSize: n,
		hop:     hop,
		sr:      sr,
		Ratio:   1.0,
		fft:     dsp.NewFFT(dsp.NextPow2(n)),
		window:  dsp.HannWindow(n),
	}
	v.left = newVocoderChannel(n)
	v.right = newVocoderChannel(n)
	return v
}

func newVocoderChannel(n int) vocoderChannel {
	return vocoderChannel{
		inputRing:  make([]float32, n*4),
		prevMag:    make([]float64, n/2+1),
		prevPhase:  make([]float64, n/2+1),
		outPhase:   make([]float64, n/2+1),
		outputRing: make([]float64, n*8),
	}
}

// Process consumes/produces interleaved stereo samples in place, driving
// the STFT analysis/synthesis pipeline as enough input accumulates.
func (v *Vocoder) Process(samples []float32) {
	frames := len(samples) / 2
	for i := 0; i < frames; i++ {
		wet := v.NextWet()

		v.feed(&v.left, samples[2*i])
		v.feed(&v.right, samples[2*i+1])

		for v.left.inputFilled >= v.fftSize && v.left.outputFilled < len(v.left.outputRing)-v.fftSize {
			v.analyzeAndSynthesize(&v.left)
		}
		for v.right.inputFilled >= v.fftSize && v.right.outputFilled < len(v.right.outputRing)-v.fftSize {
			v.analyzeAndSynthesize(&v.right)
		}

		outL := v.drain(&v.left)
		outR := v.drain(&v.right)

		in0 := float64(samples[2*i])
		in1 := float64(samples[2*i+1])
		samples[2*i] = float32(in0 + (outL-in0)*wet)
		samples[2*i+1] = float32(in1 + (outR-in1)*wet)
	}
}

func (v *Vocoder) feed(ch *vocoderChannel, x float32) {
	ch.inputRing[ch.inputWriteAt] = x
	ch.inputWriteAt = (ch.inputWriteAt + 1) % len(ch.inputRing)
	if ch.inputFilled < len(ch.inputRing) {
		ch.inputFilled++
	}
}

func (v *Vocoder) drain(ch *vocoderChannel) float64 {
	if ch.outputFilled == 0 {
		return 0
	}
	val := ch.outputRing[ch.outputReadAt]
	ch.outputRing[ch.outputReadAt] = 0
	ch.outputReadAt = (ch.outputReadAt + 1) % len(ch.outputRing)
	ch.outputFilled--
	return val
}

func wrapPhase(p float64) float64 {
	for p > math.Pi {
		p -= 2 * math.Pi
	}
	for p < -math.Pi {
		p += 2 * math.Pi
	}
	return p
}

// analyzeAndSynthesize runs one STFT analysis frame, advances the phase
// accumulators per §4.4's formulas, and overlap-adds the resynthesized
// frame into the channel's output ring at the stretch-scaled hop.
func (v *Vocoder) analyzeAndSynthesize(ch *vocoderChannel) {
	n := v.fftSize
	half := n/2 + 1
	frame := make([]complex128, v.fft.Size())

	readBase := (ch.analysisRead) % len(ch.inputRing)
	for j := 0; j < n; j++ {
		idx := (readBase + j) % len(ch.inputRing)
		frame[j] = complex(float64(ch.inputRing[idx])*v.window[j], 0)
	}

	var spec []complex128
	spec = v.fft.Forward(frame, spec)

	mag := make([]float64, half)
	phase := make([]float64, half)
	var fluxNum, energy float64
	for k := 0; k < half; k++ {
		re, im := real(spec[k]), imag(spec[k])
		mag[k] = math.Hypot(re, im)
		phase[k] = math.Atan2(im, re)
		energy += mag[k] * mag[k]
		d := mag[k] - ch.prevMag[k]
		if d > 0 {
			fluxNum += d * d
		}
	}

	isTransient := energy > 0 && fluxNum > transientThresholdRatio*energy

	outMag := make([]float64, half)
	for k := 0; k < half; k++ {
		omega := 2 * math.Pi * float64(k) * float64(v.hop) / float64(n)
		if isTransient {
			ch.outPhase[k] = phase[k]
		} else {
			deltaPhase := wrapPhase(phase[k]-ch.prevPhase[k]-omega) / float64(v.hop)
			ch.outPhase[k] += omega*v.Ratio + deltaPhase*(float64(v.hop)*v.Ratio)
		}
		outMag[k] = mag[k]
	}

	if v.PeakLock {
		applyPeakLocking(outMag, ch.outPhase)
	}

	copy(ch.prevMag, mag)
	copy(ch.prevPhase, phase)

	synthSpec := make([]complex128, v.fft.Size())
	for k := 0; k < half; k++ {
		synthSpec[k] = complex(outMag[k]*math.Cos(ch.outPhase[k]), outMag[k]*math.Sin(ch.outPhase[k]))
	}
	for k := half; k < v.fft.Size(); k++ {
		mirror := v.fft.Size() - k
		if mirror >= 0 && mirror < half {
			synthSpec[k] = complex(real(synthSpec[mirror]), -imag(synthSpec[mirror]))
		}
	}

	var timeDomain []complex128
	timeDomain = v.fft.Inverse(synthSpec, timeDomain)

	synthHop := int(math.Round(float64(v.hop) * v.Ratio))
	if synthHop < 1 {
		synthHop = 1
	}

	writeBase := ch.outputWriteAt
	for j := 0; j < n; j++ {
		idx := (writeBase + j) % len(ch.outputRing)
		ch.outputRing[idx] += real(timeDomain[j]) * v.window[j] / float64(n/synthHop)
	}
	ch.outputWriteAt = (ch.outputWriteAt + synthHop) % len(ch.outputRing)
	ch.outputFilled += synthHop

	ch.analysisRead = (ch.analysisRead + v.hop) % len(ch.inputRing)
	ch.inputFilled -= v.hop
}

// applyPeakLocking finds spectral maxima (bins greater than both ±2
// neighbors) and blends nearby bins' phases toward the peak's phase,
// with a radius proportional to the peak's magnitude (§4.4 "Phase
// vocoder" "Optional peak-locking").
func applyPeakLocking(mag []float64, phase []float64) {
	n := len(mag)
	for k := 2; k < n-2; k++ {
		if mag[k] <= mag[k-1] || mag[k] <= mag[k-2] || mag[k] <= mag[k+1] || mag[k] <= mag[k+2] {
			continue
		}
		radius := int(mag[k] / (mag[k] + 1) * 4)
		for d := 1; d <= radius; d++ {
			if k-d >= 0 {
				phase[k-d] = blendAngle(phase[k-d], phase[k], float64(d)/float64(radius+1))
			}
			if k+d < n {
				phase[k+d] = blendAngle(phase[k+d], phase[k], float64(d)/float64(radius+1))
			}
		}
	}
}

// blendAngle interpolates from a toward b by t via unit-circle
// interpolation, avoiding phase-wrap discontinuities.
func blendAngle(a, b, t float64) float64 {
	ax, ay := math.Cos(a), math.Sin(a)
	bx, by := math.Cos(b), math.Sin(b)
	x := ax + (bx-ax)*t
	y := ay + (by-ay)*t
	return math.Atan2(y, x)
}

// Reset clears all analysis/synthesis state.
func (v *Vocoder) Reset() {
	v.left = newVocoderChannel(v.fftSize)
	v.right = newVocoderChannel(v.fftSize)
	v.ResetWet()
}
