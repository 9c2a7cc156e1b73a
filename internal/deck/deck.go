// Package deck implements a single playback deck: position tracking,
// tempo/gain control, cue points, sync transitions and the per-callback
// sample interpolation loop (§4.3 "Deck"). A Deck's mutable state is
// exclusively owned by the audio callback that calls Process; control
// methods (Play, Seek, SetTempo, ...) are called from the same engine
// goroutine between buffers, never concurrently with Process — the
// engine enforces this, matching the corpus's audio-thread-vs-control-
// thread split without locking inside the hot path.
package deck

import (
	"math"

	"github.com/vividhyeok/ole/internal/analysis"
	"github.com/vividhyeok/ole/internal/sample"
)

// PlayState is the deck's transport state.
type PlayState int

const (
	Stopped PlayState = iota
	Paused
	Playing
)

const scopeRingSize = 2048

// Deck holds one deck's playback position, tempo/gain, beat grid, cue
// points and scope/metering state.
type Deck struct {
	Buffer   *sample.Buffer
	BeatGrid analysis.BeatGrid

	State    PlayState
	Position float64 // interleaved sample index, fractional
	Tempo    float64 // 0.5..2.0
	Gain     float64 // 0..2

	Cues [8]float64 // sample positions, 0 = unset

	// Metering, updated after each Process call.
	PeakLevel   float64
	IsClipping  bool
	PeakHold    float64
	peakHoldCtr int

	ScopeRing    [scopeRingSize]float32
	scopeWriteAt int

	// Spectrum accumulator for the per-deck analyzer display: mono
	// downmix of the most recently processed buffer.
	SpectrumMono []float32

	// SpeedModulator, when set, is sampled once per frame and multiplies
	// the position advance alongside Tempo — the engine wires this to
	// the deck's vinyl insert's Motor/WowFlutter speed multiplier so
	// motor startup/stop and wow/flutter affect playback pitch, not just
	// the vinyl effect's audio coloration (§4.4 "Vinyl emulation").
	SpeedModulator func() float64

	sync *SyncTransition
}

// New constructs an empty, stopped deck with unity tempo and gain.
func New() *Deck {
	return &Deck{Tempo: 1.0, Gain: 1.0}
}

// Load replaces the sample buffer, resets position/state, and analyzes
// the first min(len, 60s) of audio for a beat grid, falling back to the
// online BPM detector over the first 10s if offline analysis fails
// (§4.3 "Load"). When both the offline analysis and the online
// fallback fail, it returns the fallback's error so callers can surface
// a load failure; the deck itself still loads and plays with an empty
// beat grid in that case.
func (d *Deck) Load(buf *sample.Buffer) error {
	d.Buffer = buf
	d.Position = 0
	d.State = Stopped
	d.PeakLevel, d.IsClipping, d.PeakHold, d.peakHoldCtr = 0, false, 0, 0
	d.sync = nil
	d.Cues = [8]float64{}

	windowFrames := 60 * buf.SampleRate
	if windowFrames > buf.Frames() {
		windowFrames = buf.Frames()
	}
	windowed := &sample.Buffer{Samples: buf.Samples[:windowFrames*2], SampleRate: buf.SampleRate}

	if grid, err := analysis.AnalyzeBeatGrid(windowed); err == nil {
		d.BeatGrid = grid
		return nil
	}
	grid, err := analysis.EstimateOnlineBPM(buf)
	if err != nil {
		d.BeatGrid = analysis.BeatGrid{}
		return err
	}
	d.BeatGrid = grid
	return nil
}

// Play, Pause, Stop and Toggle change transport state. Stop also resets
// the position.
func (d *Deck) Play() {
	if !d.Buffer.Empty() {
		d.State = Playing
	}
}

func (d *Deck) Pause() { d.State = Paused }

func (d *Deck) Stop() {
	d.State = Stopped
	d.Position = 0
}

func (d *Deck) Toggle() {
	if d.State == Playing {
		d.Pause()
	} else {
		d.Play()
	}
}

// Seek moves to an absolute position in seconds, clamped to the buffer.
func (d *Deck) Seek(seconds float64) {
	pos := seconds * float64(d.Buffer.SampleRate) * 2
	d.Position = clamp(pos, 0, float64(d.Buffer.Len()))
}

// Nudge moves the position by a relative number of seconds, clamped.
func (d *Deck) Nudge(seconds float64) {
	delta := seconds * float64(d.Buffer.SampleRate) * 2
	d.Position = clamp(d.Position+delta, 0, float64(d.Buffer.Len()))
}

// Beatjump moves by a number of beats at the current tempo, clamped
// to the buffer (§4.3 "Beat-jump").
func (d *Deck) Beatjump(beats float64) {
	delta := beats * d.BeatGrid.SamplesPerBeatAtTempo(d.Tempo)
	d.Position = clamp(d.Position+delta, 0, float64(d.Buffer.Len()))
}

// SetCue stores the current position at slot n (1..8).
func (d *Deck) SetCue(n int) {
	if n < 1 || n > 8 {
		return
	}
	d.Cues[n-1] = d.Position
}

// JumpCue seeks to the stored cue position at slot n (1..8); a no-op if
// unset.
func (d *Deck) JumpCue(n int) {
	if n < 1 || n > 8 || d.Cues[n-1] == 0 {
		return
	}
	d.Position = d.Cues[n-1]
}

// SetTempo clamps to [0.5, 2.0] per §6's command parameter range.
func (d *Deck) SetTempo(tempo float64) {
	d.Tempo = clamp(tempo, 0.5, 2.0)
}

// AdjustTempo applies a relative delta, clamped.
func (d *Deck) AdjustTempo(delta float64) {
	d.SetTempo(d.Tempo + delta)
}

// SetGain clamps to [0, 2].
func (d *Deck) SetGain(gain float64) {
	d.Gain = clamp(gain, 0, 2)
}

// AdjustGain applies a relative delta, clamped.
func (d *Deck) AdjustGain(delta float64) {
	d.SetGain(d.Gain + delta)
}

// SyncActive reports whether a sync transition is currently in
// progress on this deck.
func (d *Deck) SyncActive() bool {
	return d.sync.Active()
}

// CurrentBeat returns the fractional beat number at the current
// position.
func (d *Deck) CurrentBeat() float64 {
	return d.BeatGrid.BeatAt(d.Position)
}

// CurrentPhase returns the fractional position within the current beat.
func (d *Deck) CurrentPhase() float64 {
	return d.BeatGrid.PhaseAt(d.Position)
}

// PhaseOffsetToAlign returns the signed sample delta that would bring
// this deck's beat phase into alignment with targetPhase, taking the
// shorter wraparound direction (§4.3 "Phase offset for alignment").
func (d *Deck) PhaseOffsetToAlign(targetPhase float64) float64 {
	delta := targetPhase - d.CurrentPhase()
	delta = wrapSigned(delta)
	return delta * d.BeatGrid.SamplesPerBeatAtTempo(d.Tempo)
}

func wrapSigned(delta float64) float64 {
	delta -= math.Round(delta)
	return delta
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
