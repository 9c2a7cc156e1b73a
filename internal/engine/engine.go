// Package engine owns both decks, their insert chains, the mixer, the
// mastering chain and the true-peak limiter, and drives the full
// per-callback processing pipeline plus the command/event channel pair
// (§4.7 "Engine state and command bus").
package engine

import (
	"sync/atomic"

	"github.com/vividhyeok/ole/internal/deck"
	"github.com/vividhyeok/ole/internal/limiter"
	"github.com/vividhyeok/ole/internal/mastering"
	"github.com/vividhyeok/ole/internal/mixer"
)

// CommandQueueCapacity and EventQueueCapacity are the bounded channel
// sizes for the command/event bus (§4.7: "two bounded channels
// (capacity 1024)").
const (
	CommandQueueCapacity = 1024
	EventQueueCapacity   = 1024
)

// syncTransitionSeconds is the smart-sync transition duration
// (§4.7 "Smart sync": "over ~500ms").
const syncTransitionSeconds = 0.5

// Engine owns decks A and B, their effect chains, the mixer, mastering
// chain and limiter, and pre-allocated scratch buffers sized to at
// least twice the maximum callback frame count (§4.7 opening
// paragraph).
type Engine struct {
	sr float64

	DeckA, DeckB   *deck.Deck
	chainA, chainB *deckChain

	Mixer     *mixer.Mixer
	Mastering *mastering.Chain
	Limiter   *limiter.Limiter

	scratchA, scratchB []float32

	Commands chan Command
	Events   chan Event

	shutdown atomic.Bool
}

// New constructs an engine at the given sample rate with scratch
// buffers sized for maxCallbackFrames stereo frames.
func New(sr float64, maxCallbackFrames int) *Engine {
	d1, d2 := deck.New(), deck.New()
	c1, c2 := newDeckChain(sr), newDeckChain(sr)
	d1.SpeedModulator = c1.Vinyl.SpeedMultiplier
	d2.SpeedModulator = c2.Vinyl.SpeedMultiplier

	scratchLen := maxCallbackFrames * 2 * 2 // stereo, >= 2x max frames per §4.7
	if scratchLen < 2 {
		scratchLen = 2
	}

	return &Engine{
		sr:        sr,
		DeckA:     d1,
		DeckB:     d2,
		chainA:    c1,
		chainB:    c2,
		Mixer:     mixer.New(),
		Mastering: mastering.NewChain(sr),
		Limiter:   limiter.NewLimiter(sr),
		scratchA:  make([]float32, scratchLen),
		scratchB:  make([]float32, scratchLen),
		Commands:  make(chan Command, CommandQueueCapacity),
		Events:    make(chan Event, EventQueueCapacity),
	}
}

func (e *Engine) deck(id DeckID) *deck.Deck {
	if id == DeckB {
		return e.DeckB
	}
	return e.DeckA
}

func (e *Engine) chain(id DeckID) *deckChain {
	if id == DeckB {
		return e.chainB
	}
	return e.chainA
}

func (e *Engine) other(id DeckID) DeckID {
	if id == DeckB {
		return DeckA
	}
	return DeckB
}

// ShuttingDown reports whether a CmdShutdown has been applied.
func (e *Engine) ShuttingDown() bool { return e.shutdown.Load() }

// syncFrom implements smart sync: source is the deck named by the
// command, target is the other deck (§4.7 "Smart sync"). When both
// decks carry a beat grid, the target's tempo is set so its BPM matches
// the source's at the source's current tempo, and a ~500ms transition
// aligns phase; with a missing grid on either side, only tempo is
// matched (no transition, since phase alignment is meaningless without
// a grid).
func (e *Engine) syncFrom(sourceID DeckID) {
	source := e.deck(sourceID)
	targetID := e.other(sourceID)
	target := e.deck(targetID)

	if source.BeatGrid.BPM <= 0 || target.BeatGrid.BPM <= 0 {
		// Fallback: without a grid on both sides there is no BPM ratio
		// (or phase) to compute, so just match the transport tempo
		// directly (§4.7 "Smart sync": "Fallback when a grid is
		// missing: match tempos only.").
		target.SetTempo(source.Tempo)
		return
	}

	newTempo := clamp(float64(source.BeatGrid.BPM)*source.Tempo/float64(target.BeatGrid.BPM), 0.5, 2.0)
	phaseOffset := target.PhaseOffsetToAlign(source.CurrentPhase())
	// durationSamples is in units of Deck.Process's per-frame advance
	// calls (one per output frame), so it's frames, not interleaved
	// samples: 0.5s at the deck's sample rate.
	durationSamples := syncTransitionSeconds * float64(target.Buffer.SampleRate)

	target.StartSyncTransition(newTempo, phaseOffset, durationSamples)
}

// Process runs one callback buffer end to end: zero scratch, play both
// decks, apply each deck's insert chain, crossfade-mix into output,
// then run the mastering chain and limiter on the mix (§4.7 "Process").
func (e *Engine) Process(output []float32) {
	frames := len(output) / 2
	need := frames * 2
	if cap(e.scratchA) < need {
		e.scratchA = make([]float32, need)
		e.scratchB = make([]float32, need)
	}
	bufA := e.scratchA[:need]
	bufB := e.scratchB[:need]
	for i := range bufA {
		bufA[i] = 0
		bufB[i] = 0
	}

	e.DeckA.Process(bufA)
	e.DeckB.Process(bufB)

	e.chainA.process(bufA)
	e.chainB.process(bufB)

	e.Mixer.Mix(bufA, bufB, output)

	e.Mastering.Process(output)
	e.Limiter.Process(output)
}
