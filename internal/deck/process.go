package deck

import "math"

// Process fills output (interleaved stereo f32) with this deck's
// playback, advancing position by 2*tempo samples per frame and linearly
// interpolating between adjacent frames, per §4.3 "Process". If the
// deck isn't Playing or has no buffer, output is zeroed.
func (d *Deck) Process(output []float32) {
	if d.State != Playing || d.Buffer.Empty() {
		for i := range output {
			output[i] = 0
		}
		return
	}

	frames := len(output) / 2
	samples := d.Buffer.Samples
	n := len(samples)

	currentPeak := 0.0
	var monoSum float64

	for f := 0; f < frames; f++ {
		if d.sync != nil && d.sync.Active() {
			d.sync.Advance(1, d)
		}

		if d.Position+3 >= float64(n) {
			d.Stop()
			output[2*f] = 0
			output[2*f+1] = 0
			continue
		}

		idx := math.Floor(d.Position)
		frac := d.Position - idx
		i0 := int(idx)
		i1 := i0 + 2
		if i1+1 >= n {
			i1 = i0
		}

		left := lerp(float64(samples[i0]), float64(samples[i1]), frac) * d.Gain
		right := lerp(float64(samples[i0+1]), float64(samples[i1+1]), frac) * d.Gain

		output[2*f] = float32(left)
		output[2*f+1] = float32(right)

		mono := (left + right) / 2
		monoSum += mono
		if a := math.Abs(left); a > currentPeak {
			currentPeak = a
		}
		if a := math.Abs(right); a > currentPeak {
			currentPeak = a
		}

		speed := 1.0
		if d.SpeedModulator != nil {
			speed = d.SpeedModulator()
		}
		d.Position += 2 * d.Tempo * speed
	}

	d.accumulateSpectrum(output, frames)
	d.writeScope(output)

	d.PeakLevel = 0.95*d.PeakLevel + 0.05*currentPeak
	d.IsClipping = currentPeak > 0.99

	if currentPeak > d.PeakHold {
		d.PeakHold = currentPeak
		d.peakHoldCtr = peakHoldFrames
	} else if d.peakHoldCtr > 0 {
		d.peakHoldCtr--
	} else {
		d.PeakHold *= 0.995
	}
}

// peakHoldFrames is the hold length counted in Process calls: 86 calls
// of 512-frame buffers at 44.1kHz is about 1 second. The count is fixed,
// so the hold time scales with the callback buffer size and sample rate.
const peakHoldFrames = 86

func (d *Deck) accumulateSpectrum(output []float32, frames int) {
	if cap(d.SpectrumMono) < frames {
		d.SpectrumMono = make([]float32, frames)
	}
	d.SpectrumMono = d.SpectrumMono[:frames]
	for f := 0; f < frames; f++ {
		d.SpectrumMono[f] = (output[2*f] + output[2*f+1]) / 2
	}
}

func (d *Deck) writeScope(output []float32) {
	for _, s := range output {
		d.ScopeRing[d.scopeWriteAt] = s
		d.scopeWriteAt = (d.scopeWriteAt + 1) % scopeRingSize
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
