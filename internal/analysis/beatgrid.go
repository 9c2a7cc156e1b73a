package analysis

import (
	"math"
	"sort"

	"github.com/vividhyeok/ole/internal/dsp"
	"github.com/vividhyeok/ole/internal/sample"
)

// BeatGrid is the derived tempo/phase model for a track (§3 "Beat grid").
type BeatGrid struct {
	BPM             float32
	FirstBeatOffset uint64 // samples
	SampleRate      uint32
	SamplesPerBeat  float64
	Confidence      float32
}

const (
	onsetFFTSize = 2048
	onsetHop     = 512
	minBPM       = 60.0
	maxBPM       = 200.0
)

// NewBeatGrid constructs a grid from its primitive fields, computing the
// derived samples_per_beat = (60/bpm)*sample_rate*2 (the *2 accounts for
// interleaved stereo sample positions rather than frame indices).
func NewBeatGrid(bpm float32, firstBeatOffset uint64, sampleRate uint32, confidence float32) BeatGrid {
	spb := (60.0 / float64(bpm)) * float64(sampleRate) * 2
	return BeatGrid{BPM: bpm, FirstBeatOffset: firstBeatOffset, SampleRate: sampleRate, SamplesPerBeat: spb, Confidence: confidence}
}

// BeatAt returns the fractional beat number of an interleaved sample
// position.
func (g BeatGrid) BeatAt(pos float64) float64 {
	if g.SamplesPerBeat <= 0 {
		return 0
	}
	return (pos - float64(g.FirstBeatOffset)) / g.SamplesPerBeat
}

// PhaseAt returns the fractional position within the current beat, [0,1).
func (g BeatGrid) PhaseAt(pos float64) float64 {
	b := g.BeatAt(pos)
	frac := b - math.Floor(b)
	if frac < 0 {
		frac += 1
	}
	return frac
}

// SamplesPerBeatAtTempo returns the beat period in samples when played
// back at the given tempo multiplier.
func (g BeatGrid) SamplesPerBeatAtTempo(tempo float64) float64 {
	if tempo <= 0 {
		return g.SamplesPerBeat
	}
	return g.SamplesPerBeat / tempo
}

// PositionForBeat returns the interleaved sample position of beat number n.
func (g BeatGrid) PositionForBeat(n float64) float64 {
	return float64(g.FirstBeatOffset) + n*g.SamplesPerBeat
}

// onsetEnvelope computes the normalized spectral-flux onset function for
// a mono downmix of buf, using FFT size onsetFFTSize and hop onsetHop,
// per §4.1 "Onset function".
func onsetEnvelope(buf *sample.Buffer) []float64 {
	mono := downmix(buf)
	n := len(mono)
	numFrames := (n - onsetFFTSize) / onsetHop
	if numFrames <= 0 {
		return nil
	}

	window := dsp.HannWindow(onsetFFTSize)
	fft := dsp.NewFFT(dsp.NextPow2(onsetFFTSize))
	fftSize := fft.Size()

	onset := make([]float64, numFrames)
	half := fftSize/2 + 1
	prevMag := make([]float64, half)
	mag := make([]float64, half)
	frame := make([]complex128, fftSize)
	var spec []complex128

	maxOnset := 0.0
	for i := 0; i < numFrames; i++ {
		start := i * onsetHop
		for k := range frame {
			frame[k] = 0
		}
		for j := 0; j < onsetFFTSize; j++ {
			frame[j] = complex(mono[start+j]*window[j], 0)
		}
		spec = fft.Forward(frame, spec)
		mag = dsp.Magnitudes(spec, mag)

		flux := 0.0
		for k := 0; k < half; k++ {
			d := mag[k] - prevMag[k]
			if d > 0 {
				flux += d
			}
		}
		onset[i] = flux
		if flux > maxOnset {
			maxOnset = flux
		}
		copy(prevMag, mag)
	}

	if maxOnset > 0 {
		for i := range onset {
			onset[i] /= maxOnset
		}
	}
	return onset
}

// downmix averages left/right channels to mono, zero-substituting a
// missing channel (a trailing sample with no right-channel partner is
// averaged with 0).
func downmix(buf *sample.Buffer) []float64 {
	s := buf.Samples
	frames := (len(s) + 1) / 2
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		l := float64(s[2*i])
		r := 0.0
		if 2*i+1 < len(s) {
			r = float64(s[2*i+1])
		}
		mono[i] = (l + r) / 2
	}
	return mono
}

// pickPeaksWithHop runs adaptive-threshold peak-picking on the onset
// envelope, enforcing a minimum spacing derived from the actual
// hop/sample-rate, per §4.1 "Peak picking".
func pickPeaksWithHop(onset []float64, sr int) []int {
	n := len(onset)
	if n == 0 {
		return nil
	}
	mean, stddev := meanStd(onset)
	threshold := mean + 0.5*stddev
	if threshold < 0.1 {
		threshold = 0.1
	}

	framesPerSec := float64(sr) / float64(onsetHop)
	minGap := int(math.Max(1, 0.05*framesPerSec))

	var peaks []int
	lastAccepted := -minGap - 1
	for i := 1; i < n-1; i++ {
		if onset[i] <= threshold {
			continue
		}
		if !(onset[i] > onset[i-1] && onset[i] >= onset[i+1]) {
			continue
		}
		if i-lastAccepted < minGap {
			continue
		}
		peaks = append(peaks, i)
		lastAccepted = i
	}
	return peaks
}

func meanStd(xs []float64) (mean, stddev float64) {
	n := float64(len(xs))
	if n == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean = sum / n
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	stddev = math.Sqrt(sq / n)
	return
}

// bpmResult carries the winning lag plus diagnostic correlations needed
// for octave disambiguation.
type bpmResult struct {
	lag        int
	corr       float64
	framesPerS float64
}

// estimateBPM performs the autocorrelation BPM search of §4.1 "BPM
// estimation" over the 60..200 BPM lag range, then octave-disambiguates.
func estimateBPM(onset []float64, sr int) (bpm float64, confidence float64, err error) {
	framesPerSec := float64(sr) / float64(onsetHop)
	minLag := int(framesPerSec * 60.0 / maxBPM)
	maxLag := int(framesPerSec * 60.0 / minBPM)
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(onset) {
		maxLag = len(onset) - 1
	}
	if maxLag < minLag {
		return 0, 0, ErrNoBpm
	}

	window := len(onset)
	if limit := 8 * maxLag; limit < window {
		window = limit
	}

	corrAt := func(lag int) float64 {
		var num, sa, sb float64
		count := 0
		for i := 0; i+lag < window && i+lag < len(onset); i++ {
			num += onset[i] * onset[i+lag]
			sa += onset[i] * onset[i]
			sb += onset[i+lag] * onset[i+lag]
			count++
		}
		if count == 0 || sa <= 0 || sb <= 0 {
			return 0
		}
		return num / math.Sqrt(sa*sb)
	}

	bestLag := -1
	bestCorr := -1.0
	for lag := minLag; lag <= maxLag; lag++ {
		c := corrAt(lag)
		if c > bestCorr {
			bestCorr = c
			bestLag = lag
		}
	}
	if bestLag <= 0 {
		return 0, 0, ErrNoBpm
	}

	rawBPM := 60.0 * framesPerSec / float64(bestLag)
	finalLag := bestLag

	switch {
	case rawBPM < 65:
		doubledLag := bestLag / 2
		if doubledLag >= minLag {
			finalLag = doubledLag
		}
	case rawBPM > 185:
		finalLag = bestLag * 2
	case rawBPM >= 65 && rawBPM <= 95:
		doubledLag := bestLag / 2
		if doubledLag >= 1 {
			doubledBPM := 60.0 * framesPerSec / float64(doubledLag)
			doubledCorr := corrAt(doubledLag)
			if doubledBPM >= 120 && doubledBPM <= 180 && bestCorr > 0 && doubledCorr/bestCorr > 0.7 {
				finalLag = doubledLag
			}
		}
	case rawBPM >= 170 && rawBPM <= 185:
		halvedLag := bestLag * 2
		halvedCorr := corrAt(halvedLag)
		if halvedCorr > 1.2*bestCorr {
			finalLag = halvedLag
		}
	}

	bpm = 60.0 * framesPerSec / float64(finalLag)
	confidence = clamp01(bestCorr)
	return bpm, confidence, nil
}

// firstDownbeat scores the first min(32,|peaks|) onset candidates against
// an equal-tempered beat grid and returns the sample position of the
// highest-scoring candidate, per §4.1 "First downbeat".
func firstDownbeat(peaks []int, bpm float64, sr int) uint64 {
	if len(peaks) == 0 {
		return 0
	}
	framesPerSec := float64(sr) / float64(onsetHop)
	beatInterval := 60.0 / bpm * framesPerSec
	tol := beatInterval / 6

	sorted := append([]int(nil), peaks...)
	sort.Ints(sorted)

	hasNear := func(target float64) bool {
		idx := sort.SearchInts(sorted, int(target))
		for _, i := range []int{idx - 1, idx, idx + 1} {
			if i < 0 || i >= len(sorted) {
				continue
			}
			if math.Abs(float64(sorted[i])-target) <= tol {
				return true
			}
		}
		return false
	}

	nCandidates := len(peaks)
	if nCandidates > 32 {
		nCandidates = 32
	}

	bestIdx := peaks[0]
	bestScore := -1.0
	for c := 0; c < nCandidates; c++ {
		o := float64(peaks[c])
		score := 0.0
		for beatNum := 0; beatNum < 16; beatNum++ {
			expected := o + float64(beatNum)*beatInterval
			if hasNear(expected) {
				score += 1.0 / float64(beatNum+1)
			}
		}
		if score > bestScore {
			bestScore = score
			bestIdx = peaks[c]
		}
	}

	return uint64(bestIdx) * uint64(onsetHop) * 2
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// AnalyzeBeatGrid runs onset detection, autocorrelation BPM estimation and
// first-downbeat scoring over buf, per §4.1 in full.
func AnalyzeBeatGrid(buf *sample.Buffer) (BeatGrid, error) {
	if buf.DurationSeconds() < 4.0 {
		return BeatGrid{}, ErrInsufficientAudio
	}

	onset := onsetEnvelope(buf)
	if len(onset) < 100 {
		return BeatGrid{}, ErrInsufficientAudio
	}

	bpm, confidence, err := estimateBPM(onset, buf.SampleRate)
	if err != nil {
		return BeatGrid{}, err
	}

	peaks := pickPeaksWithHop(onset, buf.SampleRate)
	if len(peaks) == 0 {
		return BeatGrid{}, ErrNoOnsets
	}

	offset := firstDownbeat(peaks, bpm, buf.SampleRate)
	return NewBeatGrid(float32(bpm), offset, uint32(buf.SampleRate), float32(confidence)), nil
}
