// Package sample defines the shared-immutable audio buffer type passed
// between the sample loader collaborator, the deck and the engine's state
// snapshots (§3 "Ownership", §9 "Shared immutable buffers").
package sample

// Buffer is an interleaved stereo 32-bit float sample buffer, constructed
// once by the external loader and shared by pointer thereafter. Go's
// garbage collector already reference-counts pointees, so a *Buffer
// passed across goroutines is the idiomatic analogue of an atomically
// reference-counted handle: nothing mutates it after construction, and
// reloading a deck simply replaces the pointer rather than the contents.
type Buffer struct {
	Samples    []float32
	SampleRate int

	// Name, WaveformOverview and EnhancedWaveform are opaque payloads
	// produced by the external loader (§6 "Sample loader contract") and
	// passed through to state snapshots for UI rendering; this package
	// does not interpret them.
	Name             string
	WaveformOverview []float32
	EnhancedWaveform []float32
}

// Frames returns the number of stereo frames (Samples is twice this).
func (b *Buffer) Frames() int {
	if b == nil {
		return 0
	}
	return len(b.Samples) / 2
}

// Len returns the raw sample count (interleaved L/R).
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Samples)
}

// DurationSeconds returns the buffer's playback duration.
func (b *Buffer) DurationSeconds() float64 {
	if b == nil || b.SampleRate == 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Empty reports whether the buffer carries no audio.
func (b *Buffer) Empty() bool {
	return b == nil || len(b.Samples) == 0
}
