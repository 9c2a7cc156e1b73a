// Package effects implements the deck-insert DSP chain: filters (biquad,
// ladder, state-variable), delay, reverb, tape-stop and the phase-
// vocoder time-stretch (§4.4 "Effects"). Every effect shares the same
// contract so the engine can drive them uniformly without dynamic
// dispatch inside the audio callback.
package effects

import "github.com/vividhyeok/ole/internal/dsp"

// Effect is the common contract every deck insert implements. Process
// operates on an interleaved stereo buffer in place.
type Effect interface {
	Process(samples []float32)
	Reset()
	IsEnabled() bool
	SetEnabled(enabled bool)
}

// WetBase is embedded by every effect to provide the mandatory
// enable/disable wet-envelope smoothing: disabling ramps the wet target
// to 0 but keeps processing until the envelope settles below ~1e-4 so
// tails fade, and enabling ramps back to 1 the same way (§4.4 opening
// paragraph, §9 "Parameter smoothing is mandatory").
type WetBase struct {
	wet *dsp.WetEnvelope
}

// NewWetBase constructs a WetBase starting disabled (wet = 0).
func NewWetBase() WetBase {
	return WetBase{wet: dsp.NewWetEnvelope()}
}

func (w *WetBase) IsEnabled() bool { return w.wet.IsEnabled() }

func (w *WetBase) SetEnabled(enabled bool) { w.wet.SetEnabled(enabled) }

// NextWet advances and returns the current wet-mix coefficient.
func (w *WetBase) NextWet() float64 { return w.wet.Next() }

// Active reports whether the effect still needs to process (enabled, or
// its tail hasn't yet settled).
func (w *WetBase) Active() bool { return w.wet.Active() }

// ResetWet snaps the envelope immediately to its current enabled state.
func (w *WetBase) ResetWet() { w.wet.Reset() }
