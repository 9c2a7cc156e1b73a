// Package mixer implements the two-deck equal-power crossfader and
// master gain stage (§4.6 "Mixer state").
package mixer

import "math"

// Mixer holds the crossfader position and master volume.
type Mixer struct {
	Crossfader   float64 // -1..1
	MasterVolume float64 // 0..2
}

// New constructs a centered mixer at unity master volume.
func New() *Mixer {
	return &Mixer{Crossfader: 0, MasterVolume: 1.0}
}

// SetCrossfader clamps to [-1, 1].
func (m *Mixer) SetCrossfader(x float64) {
	m.Crossfader = clamp(x, -1, 1)
}

// MoveCrossfader applies a relative delta, clamped.
func (m *Mixer) MoveCrossfader(delta float64) {
	m.SetCrossfader(m.Crossfader + delta)
}

// CenterCrossfader resets to 0.
func (m *Mixer) CenterCrossfader() {
	m.Crossfader = 0
}

// SetMasterVolume clamps to [0, 2].
func (m *Mixer) SetMasterVolume(v float64) {
	m.MasterVolume = clamp(v, 0, 2)
}

// Gains returns the equal-power crossfader gains for decks A and B,
// satisfying gainA^2 + gainB^2 = 1 at every crossfader position
// (§4.6 "Mixer state").
func (m *Mixer) Gains() (gainA, gainB float64) {
	x := (m.Crossfader + 1) * math.Pi / 4
	return math.Cos(x), math.Sin(x)
}

// Mix sums bufA and bufB through the crossfader and master volume into
// output (all interleaved stereo, equal length).
func (m *Mixer) Mix(bufA, bufB, output []float32) {
	gainA, gainB := m.Gains()
	for i := range output {
		output[i] = float32((float64(bufA[i])*gainA + float64(bufB[i])*gainB) * m.MasterVolume)
	}
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
