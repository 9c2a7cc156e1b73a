package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vividhyeok/ole/internal/analysis"
	"github.com/vividhyeok/ole/internal/deck"
	"github.com/vividhyeok/ole/internal/sample"
)

const testSR = 48000

func silentBuffer(sr int, seconds float64) *sample.Buffer {
	n := int(float64(sr) * seconds)
	return &sample.Buffer{Samples: make([]float32, n*2), SampleRate: sr}
}

func gridAt(sr int, bpm float32) analysis.BeatGrid {
	return analysis.NewBeatGrid(bpm, 0, uint32(sr), 1.0)
}

func TestSyncBToAConvergesTempoAndCompletesTransition(t *testing.T) {
	e := New(testSR, 512)

	e.DeckA.Buffer = silentBuffer(testSR, 30)
	e.DeckA.BeatGrid = gridAt(testSR, 120)
	e.DeckA.Tempo = 1.0
	e.DeckA.State = deck.Playing

	e.DeckB.Buffer = silentBuffer(testSR, 30)
	e.DeckB.BeatGrid = gridAt(testSR, 128)
	e.DeckB.Tempo = 1.0
	e.DeckB.State = deck.Playing

	// SyncBToA: A is the reference (source), B is adjusted (target).
	e.Apply(Command{Kind: CmdSync, Deck: DeckA})

	require.True(t, e.DeckB.SyncActive(), "sync transition should start on the target deck")

	out := make([]float32, 2)
	for i := 0; i < 60000; i++ {
		e.DeckB.Process(out)
	}

	assert.InDelta(t, 120.0/128.0, e.DeckB.Tempo, 0.01)
	assert.False(t, e.DeckB.SyncActive(), "transition should have completed and deactivated")
}

func TestSyncFallsBackToTempoMatchWithoutBeatGrid(t *testing.T) {
	e := New(testSR, 512)
	e.DeckA.Buffer = silentBuffer(testSR, 5)
	e.DeckA.Tempo = 1.2
	e.DeckB.Buffer = silentBuffer(testSR, 5)
	e.DeckB.Tempo = 1.0

	e.Apply(Command{Kind: CmdSync, Deck: DeckA})

	assert.InDelta(t, 1.2, e.DeckB.Tempo, 1e-9)
	assert.False(t, e.DeckB.SyncActive())
}

func TestProcessProducesFiniteOutput(t *testing.T) {
	e := New(testSR, 256)
	e.DeckA.Buffer = silentBuffer(testSR, 2)
	e.DeckA.State = deck.Playing
	e.DeckB.Buffer = silentBuffer(testSR, 2)
	e.DeckB.State = deck.Playing

	out := make([]float32, 256*2)
	for i := 0; i < 50; i++ {
		e.Process(out)
	}

	for _, s := range out {
		assert.False(t, math.IsNaN(float64(s)))
		assert.False(t, math.IsInf(float64(s), 0))
	}
}

func TestCrossfaderCommandsClamp(t *testing.T) {
	e := New(testSR, 256)
	e.Apply(Command{Kind: CmdSetCrossfader, Value: 5})
	assert.Equal(t, 1.0, e.Mixer.Crossfader)

	e.Apply(Command{Kind: CmdCenterCrossfader})
	assert.Equal(t, 0.0, e.Mixer.Crossfader)
}

func TestToggleFilterFlipsActiveFilterOnly(t *testing.T) {
	e := New(testSR, 256)
	before := e.chainA.Biquad.IsEnabled()
	e.Apply(Command{Kind: CmdToggleFilter, Deck: DeckA})
	assert.NotEqual(t, before, e.chainA.Biquad.IsEnabled())
	assert.False(t, e.chainA.Ladder.IsEnabled())
	assert.False(t, e.chainA.SVF.IsEnabled())
	assert.Equal(t, before, e.chainB.Biquad.IsEnabled())
}

func TestSetFilterModeSwitchesActiveFilter(t *testing.T) {
	e := New(testSR, 256)
	e.Apply(Command{Kind: CmdSetFilterMode, Deck: DeckA, FilterKind: FilterLadder})
	assert.Equal(t, FilterLadder, e.chainA.FilterKind)
	assert.Equal(t, e.chainA.Ladder, e.chainA.activeFilter())
}

func TestShutdownCommandSetsFlag(t *testing.T) {
	e := New(testSR, 256)
	assert.False(t, e.ShuttingDown())
	e.Apply(Command{Kind: CmdShutdown})
	assert.True(t, e.ShuttingDown())
}

func TestMasteringPresetCycling(t *testing.T) {
	e := New(testSR, 256)
	assert.Equal(t, 0, int(e.Mastering.Preset))
	e.Apply(Command{Kind: CmdCycleMasteringPreset})
	assert.Equal(t, 1, int(e.Mastering.Preset))
}
