package analysis

import "github.com/vividhyeok/ole/internal/sample"

// OnlineBPMWindowSeconds bounds how much audio the streaming fallback
// detector looks at, per §4.3 "Load" ("an online BPM detector over the
// first 10 seconds").
const OnlineBPMWindowSeconds = 10

// EstimateOnlineBPM runs the same onset/autocorrelation primitives as
// AnalyzeBeatGrid but over only the first OnlineBPMWindowSeconds of
// audio, for use when the full offline beat-grid analysis returns an
// error (§4.3 "Load" fallback path).
func EstimateOnlineBPM(buf *sample.Buffer) (BeatGrid, error) {
	windowFrames := OnlineBPMWindowSeconds * buf.SampleRate
	if windowFrames > buf.Frames() {
		windowFrames = buf.Frames()
	}
	if windowFrames <= 0 {
		return BeatGrid{}, ErrInsufficientAudio
	}

	windowed := &sample.Buffer{
		Samples:    buf.Samples[:windowFrames*2],
		SampleRate: buf.SampleRate,
	}

	onset := onsetEnvelope(windowed)
	if len(onset) < 100 {
		return BeatGrid{}, ErrInsufficientAudio
	}

	bpm, confidence, err := estimateBPM(onset, windowed.SampleRate)
	if err != nil {
		return BeatGrid{}, err
	}

	// The streaming fallback has no reliable downbeat anchor over such a
	// short window; first beat is taken at position 0 and refined later
	// by the deck's beat-sync nudge controls.
	return NewBeatGrid(float32(bpm), 0, uint32(windowed.SampleRate), float32(confidence)), nil
}
