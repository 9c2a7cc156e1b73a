package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/vividhyeok/ole/internal/camelot"
	"github.com/vividhyeok/ole/internal/dsp"
	"github.com/vividhyeok/ole/internal/sample"
)

const (
	keyFFTSize  = 4096
	keyHop      = 2048
	chromaMinHz = 55.0
	chromaMaxHz = 4000.0
)

// shaathMajor and shaathMinor are the Sha'ath key-profile templates
// (index 0 = tonic), §4.2 "Key scoring".
var shaathMajor = [12]float64{6.6, 2.0, 3.5, 2.3, 4.6, 4.0, 2.5, 5.2, 2.4, 3.7, 2.3, 3.4}
var shaathMinor = [12]float64{6.5, 2.8, 3.5, 5.4, 2.7, 3.5, 2.5, 5.2, 4.0, 2.7, 4.3, 3.2}

// pitchClassNames names each chroma bin's root (index 0 = C), matching
// camelot.FromMusical's table via pitch class 0 = C.
var pitchClassNames = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

// AnalyzeKey computes the chromagram of buf and correlates it against the
// Sha'ath major/minor profiles across all 12 rotations, returning the
// best-matching Camelot key, its confidence, and whether confidence
// exceeds the reporting threshold, per §4.2.
func AnalyzeKey(buf *sample.Buffer) (camelot.Key, float64, bool) {
	if buf.DurationSeconds() < 2.0 {
		return camelot.Key{}, 0, false
	}

	chroma := chromagram(buf)
	if chroma == nil {
		return camelot.Key{}, 0, false
	}

	bestCorr := -1.0
	bestRoot := 0
	bestMajor := true

	rotated := make([]float64, 12)
	for root := 0; root < 12; root++ {
		for i := 0; i < 12; i++ {
			rotated[i] = chroma[(root+i)%12]
		}
		majorCorr := stat.Correlation(rotated, shaathMajor[:], nil)
		minorCorr := stat.Correlation(rotated, shaathMinor[:], nil)
		if majorCorr > bestCorr {
			bestCorr = majorCorr
			bestRoot = root
			bestMajor = true
		}
		if minorCorr > bestCorr {
			bestCorr = minorCorr
			bestRoot = root
			bestMajor = false
		}
	}

	confidence := clamp01((bestCorr + 1) / 2)

	musicalName := pitchClassNames[bestRoot]
	if !bestMajor {
		musicalName += "m"
	}
	k, ok := camelot.FromMusical(musicalName)
	if !ok {
		return camelot.Key{}, confidence, false
	}

	return k, confidence, confidence > 0.5
}

// chromagram computes the normalized 12-bin pitch-class energy profile of
// buf per §4.2 "Chromagram": FFT 4096/hop 2048, harmonic-weight/
// octave-decay bin weighting, averaged across frames and normalized to
// sum to 1.
func chromagram(buf *sample.Buffer) []float64 {
	mono := downmix(buf)
	n := len(mono)
	numFrames := (n - keyFFTSize) / keyHop
	if numFrames <= 0 {
		return nil
	}

	sr := buf.SampleRate
	nyquist := float64(sr) / 2
	window := dsp.HannWindow(keyFFTSize)
	fft := dsp.NewFFT(dsp.NextPow2(keyFFTSize))
	fftSize := fft.Size()
	half := fftSize/2 + 1

	// Precompute per-bin pitch class and weight (harmonic_weight *
	// octave_decay), or -1 pitch class for bins outside the audible
	// chroma range.
	pitchClass := make([]int, half)
	weight := make([]float64, half)
	for b := 0; b < half; b++ {
		f := float64(b) * float64(sr) / float64(fftSize)
		pitchClass[b] = -1
		if f < chromaMinHz || f > chromaMaxHz || f >= nyquist {
			continue
		}
		midi := 12*math.Log2(f/440.0) + 69
		rounded := math.Round(midi)
		harmonicWeight := math.Max(0, 1-2*math.Abs(midi-rounded))
		octaveDecay := math.Sqrt(500.0 / math.Max(f, 500.0))
		pc := int(rounded) % 12
		if pc < 0 {
			pc += 12
		}
		pitchClass[b] = pc
		weight[b] = harmonicWeight * octaveDecay
	}

	var chroma [12]float64
	frame := make([]complex128, fftSize)
	var spec []complex128
	mag := make([]float64, half)

	for i := 0; i < numFrames; i++ {
		start := i * keyHop
		for k := range frame {
			frame[k] = 0
		}
		for j := 0; j < keyFFTSize; j++ {
			frame[j] = complex(mono[start+j]*window[j], 0)
		}
		spec = fft.Forward(frame, spec)
		mag = dsp.Magnitudes(spec, mag)

		for b := 0; b < half; b++ {
			pc := pitchClass[b]
			if pc < 0 {
				continue
			}
			chroma[pc] += mag[b] * mag[b] * weight[b]
		}
	}

	sum := 0.0
	for i := range chroma {
		chroma[i] /= float64(numFrames)
		sum += chroma[i]
	}
	if sum <= 0 {
		return nil
	}
	out := make([]float64, 12)
	for i := range chroma {
		out[i] = chroma[i] / sum
	}
	return out
}
