package engine

import (
	"github.com/vividhyeok/ole/internal/effects"
	"github.com/vividhyeok/ole/internal/mastering"
	"github.com/vividhyeok/ole/internal/sample"
	"github.com/vividhyeok/ole/internal/vinyl"
)

// DeckID selects which deck a per-deck command targets.
type DeckID int

const (
	DeckA DeckID = iota
	DeckB
)

// FilterKind selects which deck-insert filter is the active one
// (§4.4 "Filters", §6 "SetFilterMode").
type FilterKind int

const (
	FilterBiquad FilterKind = iota
	FilterLadder
	FilterSVF
)

// CommandKind tags the payload carried by a Command (§6 "Command
// channel"). Per-deck commands carry Deck; global commands ignore it.
type CommandKind int

const (
	CmdLoad CommandKind = iota
	CmdPlay
	CmdPause
	CmdStop
	CmdToggleTransport
	CmdSeek
	CmdNudge
	CmdBeatjump
	CmdSetCue
	CmdJumpCue
	CmdSetTempo
	CmdAdjustTempo
	CmdSetGain
	CmdAdjustGain
	CmdSync // Deck names the SOURCE deck; the other deck is the sync target
	CmdSetCrossfader
	CmdMoveCrossfader
	CmdCenterCrossfader
	CmdSetMasterVolume
	CmdToggleFilter
	CmdToggleDelay
	CmdToggleReverb
	CmdToggleVinyl
	CmdToggleTimeStretch
	CmdSetFilterMode
	CmdSetFilterPreset
	CmdSetDelayLevel
	CmdSetReverbLevel
	CmdSetDelayModulation
	CmdSetVinylPreset
	CmdSetVinylWow
	CmdSetVinylNoise
	CmdSetVinylWarmth
	CmdSetTimeStretchRatio
	// CmdTriggerTapeStop/CmdReleaseTapeStop supplement the command
	// enumeration: tape-stop is a momentary performance gesture (brake
	// on trigger, speed recovery on release), not a persistent enabled
	// toggle like the other inserts, so it gets its own pair of verbs
	// rather than riding CmdToggle*.
	CmdTriggerTapeStop
	CmdReleaseTapeStop
	CmdToggleMastering
	CmdSetMasteringPreset
	CmdCycleMasteringPreset
	CmdShutdown
)

// Command is the tagged-union value carried on the ingress channel
// (§4.7 "Command handling", §6 "Command channel"). Every numeric field
// is clamped by the receiving setter rather than validated here —
// out-of-range values are never rejected (§6).
type Command struct {
	Kind CommandKind
	Deck DeckID

	Buffer *sample.Buffer // CmdLoad

	Seconds float64 // CmdSeek/CmdNudge
	Beats   float64 // CmdBeatjump
	Slot    int     // CmdSetCue/CmdJumpCue

	Value float64 // tempo/gain/crossfader/master volume/ratio deltas-or-targets
	Level int     // CmdSetFilterPreset/CmdSetDelayLevel/CmdSetReverbLevel

	FilterKind      FilterKind
	DelayModulation effects.DelayModulation
	VinylPreset     vinyl.Preset
	MasteringPreset mastering.Preset
}

// Apply dispatches a single command against the engine. It is called
// between callback buffers on the audio thread (§4.7 "Command
// handling") — never concurrently with Process.
func (e *Engine) Apply(cmd Command) {
	switch cmd.Kind {
	case CmdLoad:
		e.applyLoad(cmd.Deck, cmd.Buffer)
	case CmdPlay:
		e.deck(cmd.Deck).Play()
	case CmdPause:
		e.deck(cmd.Deck).Pause()
	case CmdStop:
		e.deck(cmd.Deck).Stop()
	case CmdToggleTransport:
		e.deck(cmd.Deck).Toggle()
	case CmdSeek:
		e.deck(cmd.Deck).Seek(cmd.Seconds)
	case CmdNudge:
		e.deck(cmd.Deck).Nudge(cmd.Seconds)
	case CmdBeatjump:
		e.deck(cmd.Deck).Beatjump(cmd.Beats)
	case CmdSetCue:
		e.deck(cmd.Deck).SetCue(cmd.Slot)
	case CmdJumpCue:
		e.deck(cmd.Deck).JumpCue(cmd.Slot)
	case CmdSetTempo:
		e.deck(cmd.Deck).SetTempo(cmd.Value)
	case CmdAdjustTempo:
		e.deck(cmd.Deck).AdjustTempo(cmd.Value)
	case CmdSetGain:
		e.deck(cmd.Deck).SetGain(cmd.Value)
	case CmdAdjustGain:
		e.deck(cmd.Deck).AdjustGain(cmd.Value)
	case CmdSync:
		e.syncFrom(cmd.Deck)
	case CmdSetCrossfader:
		e.Mixer.SetCrossfader(cmd.Value)
	case CmdMoveCrossfader:
		e.Mixer.MoveCrossfader(cmd.Value)
	case CmdCenterCrossfader:
		e.Mixer.CenterCrossfader()
	case CmdSetMasterVolume:
		e.Mixer.SetMasterVolume(cmd.Value)
	case CmdToggleFilter:
		e.chain(cmd.Deck).activeFilter().SetEnabled(!e.chain(cmd.Deck).activeFilter().IsEnabled())
	case CmdToggleDelay:
		c := e.chain(cmd.Deck)
		c.Delay.SetEnabled(!c.Delay.IsEnabled())
	case CmdToggleReverb:
		c := e.chain(cmd.Deck)
		c.Reverb.SetEnabled(!c.Reverb.IsEnabled())
	case CmdToggleVinyl:
		c := e.chain(cmd.Deck)
		c.Vinyl.SetEnabled(!c.Vinyl.IsEnabled())
	case CmdToggleTimeStretch:
		c := e.chain(cmd.Deck)
		c.Vocoder.SetEnabled(!c.Vocoder.IsEnabled())
	case CmdSetFilterMode:
		e.chain(cmd.Deck).FilterKind = cmd.FilterKind
	case CmdSetFilterPreset:
		e.chain(cmd.Deck).setFilterLevel(cmd.FilterKind, cmd.Level)
	case CmdSetDelayLevel:
		e.chain(cmd.Deck).Delay.SetLevel(cmd.Level)
	case CmdSetReverbLevel:
		e.chain(cmd.Deck).Reverb.SetLevel(cmd.Level)
	case CmdSetDelayModulation:
		e.chain(cmd.Deck).Delay.Modulation = cmd.DelayModulation
	case CmdSetVinylPreset:
		e.chain(cmd.Deck).Vinyl.SetPreset(cmd.VinylPreset)
	case CmdSetVinylWow:
		e.chain(cmd.Deck).Vinyl.WowFlutter.WowDepth = clampUnit(cmd.Value)
	case CmdSetVinylNoise:
		e.chain(cmd.Deck).Vinyl.Noise.Intensity = clampUnit(cmd.Value)
	case CmdSetVinylWarmth:
		e.chain(cmd.Deck).Vinyl.Warmth.RIAAAmount = clampUnit(cmd.Value)
	case CmdSetTimeStretchRatio:
		e.chain(cmd.Deck).Vocoder.Ratio = clamp(cmd.Value, 0.25, 4.0)
	case CmdTriggerTapeStop:
		c := e.chain(cmd.Deck)
		c.TapeStop.SetEnabled(true)
		c.TapeStop.TriggerStop()
	case CmdReleaseTapeStop:
		e.chain(cmd.Deck).TapeStop.TriggerStart()
	case CmdToggleMastering:
		e.Mastering.Enabled = !e.Mastering.Enabled
	case CmdSetMasteringPreset:
		e.Mastering.SetPreset(cmd.MasteringPreset)
	case CmdCycleMasteringPreset:
		e.Mastering.CyclePreset()
	case CmdShutdown:
		e.shutdown.Store(true)
	}
}

// applyLoad loads buf onto the named deck and publishes the outcome on
// the egress channel: TrackLoaded on success (with whichever beat grid
// Load settled on), ErrorEvent when both the offline analyzer and the
// online BPM fallback failed (§6 egress: "TrackLoaded{deck}",
// "Error(message)"). The send is non-blocking, matching the publish
// loop's own drop-on-full policy.
func (e *Engine) applyLoad(id DeckID, buf *sample.Buffer) {
	d := e.deck(id)
	if err := d.Load(buf); err != nil {
		e.emit(Event{Kind: EventError, Error: ErrorEvent{Deck: id, Message: err.Error()}})
		return
	}
	e.emit(Event{Kind: EventTrackLoaded, TrackLoaded: TrackLoaded{Deck: id, BeatGrid: d.BeatGrid}})
}

func (e *Engine) emit(ev Event) {
	select {
	case e.Events <- ev:
	default:
	}
}

func clampUnit(v float64) float64 { return clamp(v, 0, 1) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
