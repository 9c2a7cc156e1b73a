package engine

import (
	"math"

	"github.com/vividhyeok/ole/internal/effects"
	"github.com/vividhyeok/ole/internal/vinyl"
)

// deckChain holds one deck's full insert chain: phase-vocoder time-
// stretch, vinyl emulation, the three selectable filter kinds, delay
// and reverb (§4.4 "Effects", §4.7 "Process").
//
// Process order is `vocoder -> vinyl -> active_filter -> delay ->
// reverb -> tapestop`. The spec's §4.7 "Process" line names only
// `vinyl -> active_filter -> delay -> reverb`; vocoder and tapestop are
// both toggled/triggered independently (§6 "Command channel") but
// unplaced by that line. Time-stretch runs first because it changes
// the material's time axis before any tone-shaping touches it;
// tape-stop runs last because it is a transport-level brake on the
// deck's own audio, not a tonal insert, and should catch everything
// upstream of it when the performer pulls the plug.
type deckChain struct {
	Vocoder *effects.Vocoder
	Vinyl   *vinyl.Vinyl

	FilterKind FilterKind
	Biquad     *effects.Biquad
	Ladder     *effects.Ladder
	SVF        *effects.SVF

	Delay    *effects.Delay
	Reverb   *effects.Reverb
	TapeStop *effects.TapeStop
}

func newDeckChain(sr float64) *deckChain {
	return &deckChain{
		Vocoder:    effects.NewVocoder(sr, effects.VocoderFFT2048),
		Vinyl:      vinyl.NewVinyl(sr),
		FilterKind: FilterBiquad,
		Biquad:     effects.NewBiquad(sr, 1000, 0.707),
		Ladder:     effects.NewLadder(sr, 1000, 0.2),
		SVF:        effects.NewSVF(sr, 1000, 0.5),
		Delay:      effects.NewDelay(sr, 0.6),
		Reverb:     effects.NewReverb(sr),
		TapeStop:   effects.NewTapeStop(sr),
	}
}

func (c *deckChain) activeFilter() effects.Effect {
	switch c.FilterKind {
	case FilterLadder:
		return c.Ladder
	case FilterSVF:
		return c.SVF
	default:
		return c.Biquad
	}
}

// filterLevelToHz maps a 0..10 preset level exponentially over
// [200Hz, 20kHz], the same range Biquad.SetCutoffLevel covers with its
// 1..10 levels (§4.4 "Biquad filter"). setFilterLevel applies it to all
// three filter kinds so SetFilterPreset behaves identically regardless
// of FilterKind.
func filterLevelToHz(level int) float64 {
	if level < 0 {
		level = 0
	}
	if level > 10 {
		level = 10
	}
	t := float64(level) / 10
	return 200 * math.Pow(20000.0/200.0, t)
}

func (c *deckChain) setFilterLevel(kind FilterKind, level int) {
	hz := filterLevelToHz(level)
	switch kind {
	case FilterLadder:
		c.Ladder.Cutoff.SetTarget(hz)
	case FilterSVF:
		c.SVF.Cutoff.SetTarget(hz)
	default:
		c.Biquad.Cutoff.SetTarget(hz)
	}
}

// process runs the full insert chain on buf in place. Every stage runs
// regardless of its own enabled state so wet-envelope tails finish
// fading even after a toggle disables it (§4.7 "Process": "Any effect
// bypassed by !enabled still runs wet-envelope smoothing until
// settled.").
func (c *deckChain) process(buf []float32) {
	c.Vocoder.Process(buf)
	c.Vinyl.Process(buf)
	c.activeFilter().Process(buf)
	c.Delay.Process(buf)
	c.Reverb.Process(buf)
	c.TapeStop.Process(buf)
}

func (c *deckChain) reset() {
	c.Vocoder.Reset()
	c.Vinyl.Reset()
	c.Biquad.Reset()
	c.Ladder.Reset()
	c.SVF.Reset()
	c.Delay.Reset()
	c.Reverb.Reset()
	c.TapeStop.Reset()
}
