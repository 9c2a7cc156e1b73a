package engine

import (
	"context"
	"time"

	"github.com/vividhyeok/ole/internal/analysis"
	"github.com/vividhyeok/ole/internal/deck"
	"github.com/vividhyeok/ole/internal/mastering"
)

// publishHz is the state-snapshot rate (§4.7 "State publishing": "At
// ~30Hz").
const publishHz = 30

// EventKind tags the payload of an Event on the egress channel.
type EventKind int

const (
	EventStateUpdate EventKind = iota
	EventTrackLoaded
	EventError
)

// DeckState is an immutable snapshot of one deck's playback, cue and
// metering state for UI rendering (§4.7 "State publishing").
type DeckState struct {
	Playing     bool
	Position    float64
	Tempo       float64
	Gain        float64
	BeatGrid    analysis.BeatGrid
	Cues        [8]float64
	PeakLevel   float64
	IsClipping  bool
	PeakHold    float64
	Scope       [2048]float32
	Spectrum    []float32
	SyncActive    bool
	FilterKind    FilterKind
	FilterEnabled bool
}

// StateUpdate is the immutable 30Hz snapshot published to subscribers
// (§4.7 "State publishing").
type StateUpdate struct {
	DeckA, DeckB DeckState

	Crossfader   float64
	MasterVolume float64

	MasteringEnabled bool
	MasteringPreset  mastering.Preset
	LUFS             float64
	GainReductionDB  float64
}

// TrackLoaded reports a deck finished analyzing a newly loaded track.
type TrackLoaded struct {
	Deck     DeckID
	BeatGrid analysis.BeatGrid
}

// ErrorEvent carries an engine-detected error for UI display, e.g. a
// failed load.
type ErrorEvent struct {
	Deck    DeckID
	Message string
}

// Event is the tagged-union value carried on the egress channel.
type Event struct {
	Kind        EventKind
	StateUpdate StateUpdate
	TrackLoaded TrackLoaded
	Error       ErrorEvent
}

// Snapshot builds an immutable StateUpdate from current engine state.
func (e *Engine) Snapshot() StateUpdate {
	return StateUpdate{
		DeckA:            e.snapshotOneDeck(DeckA),
		DeckB:            e.snapshotOneDeck(DeckB),
		Crossfader:       e.Mixer.Crossfader,
		MasterVolume:     e.Mixer.MasterVolume,
		MasteringEnabled: e.Mastering.Enabled,
		MasteringPreset:  e.Mastering.Preset,
		LUFS:             e.Mastering.Meter.ShortTermLUFS,
		GainReductionDB:  e.Mastering.Compressor.GainReductionDB,
	}
}

func (e *Engine) snapshotOneDeck(id DeckID) DeckState {
	d := e.deck(id)
	c := e.chain(id)
	return DeckState{
		Playing:     d.State == deck.Playing,
		Position:    d.Position,
		Tempo:       d.Tempo,
		Gain:        d.Gain,
		BeatGrid:    d.BeatGrid,
		Cues:        d.Cues,
		PeakLevel:   d.PeakLevel,
		IsClipping:  d.IsClipping,
		PeakHold:    d.PeakHold,
		Scope:       d.ScopeRing,
		Spectrum:    append([]float32(nil), d.SpectrumMono...),
		SyncActive:    d.SyncActive(),
		FilterKind:    c.FilterKind,
		FilterEnabled: c.activeFilter().IsEnabled(),
	}
}

// PublishLoop runs the 30Hz non-blocking state-publish ticker until ctx
// is canceled or a CmdShutdown has been applied. Publishing never
// blocks: if Events is full, the snapshot is dropped (§4.7 "State
// publishing": "send non-blockingly; if the event channel is full,
// drop.").
func (e *Engine) PublishLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / publishHz)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if e.ShuttingDown() {
				return
			}
			e.emit(Event{Kind: EventStateUpdate, StateUpdate: e.Snapshot()})
		}
	}
}
