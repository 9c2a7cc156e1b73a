package vinyl

import (
	"github.com/vividhyeok/ole/internal/dsp"
	"github.com/vividhyeok/ole/internal/effects"
)

// Vinyl composes the motor, wow/flutter, analog warmth and noise
// generator into a single deck insert implementing effects.Effect, run
// first in the per-deck chain (§4.7 "Process": "vinyl -> active_filter
// -> delay -> reverb").
type Vinyl struct {
	effects.WetBase

	Motor      *Motor
	WowFlutter *WowFlutter
	Warmth     *Warmth
	Noise      *Noise

	wowAmount    *dsp.OnePole
	warmthAmount *dsp.OnePole
	noiseAmount  *dsp.OnePole
}

// NewVinyl constructs a vinyl emulation chain at the given sample rate,
// starting at the Clean preset.
func NewVinyl(sr float64) *Vinyl {
	v := &Vinyl{
		WetBase:      effects.NewWetBase(),
		Motor:        NewMotor(sr),
		WowFlutter:   NewWowFlutter(sr, 0.05),
		Warmth:       NewWarmth(sr),
		Noise:        NewNoise(sr),
		wowAmount:    dsp.NewOnePole(dsp.DefaultSmoothingCoeff, 0.05),
		warmthAmount: dsp.NewOnePole(dsp.DefaultSmoothingCoeff, 0.1),
		noiseAmount:  dsp.NewOnePole(dsp.DefaultSmoothingCoeff, 0.02),
	}
	v.Motor.State = MotorRunning
	v.Warmth.RIAAAmount = presets[PresetClean].riaaAmount
	return v
}

// SetPreset applies one of the five named presets (§4.4 "Vinyl
// emulation" "Presets").
func (v *Vinyl) SetPreset(p Preset) {
	wow, warmth, riaa, noise := ApplyPreset(p)
	v.wowAmount.SetTarget(wow)
	v.warmthAmount.SetTarget(warmth)
	v.noiseAmount.SetTarget(noise)
	v.Warmth.RIAAAmount = riaa
}

// Process applies wow/flutter-modulated pitch to nothing here (the
// deck's read position is the actual pitch target; the deck samples
// SpeedMultiplier through its SpeedModulator when advancing position),
// then runs warmth and adds noise, crossfaded through the mandatory wet
// envelope.
func (v *Vinyl) Process(samples []float32) {
	frames := len(samples) / 2

	v.wowAmount.Next()
	v.warmthAmount.Next()

	warmthScratch := append([]float32(nil), samples...)
	v.Warmth.Process(warmthScratch)

	for i := 0; i < frames; i++ {
		wetEnv := v.NextWet()
		noiseAmount := v.noiseAmount.Next()
		noise := v.Noise.Next() * noiseAmount

		in0 := float64(samples[2*i])
		in1 := float64(samples[2*i+1])
		processed0 := float64(warmthScratch[2*i]) + noise
		processed1 := float64(warmthScratch[2*i+1]) + noise

		samples[2*i] = float32(in0 + (processed0-in0)*wetEnv)
		samples[2*i+1] = float32(in1 + (processed1-in1)*wetEnv)
	}
}

// SpeedMultiplier returns the combined motor+wow/flutter pitch
// multiplier for the current sample, consumed by the deck's read
// position advance.
func (v *Vinyl) SpeedMultiplier() float64 {
	motor := v.Motor.Next()
	if motor == 0 {
		return 0
	}
	wow := v.WowFlutter.Next()
	return motor * (1 + (wow-1)*v.wowAmount.Value())
}

// Reset clears the warmth compressor envelope and the wet envelope;
// motor, wow/flutter, shelving-filter and noise state are kept.
func (v *Vinyl) Reset() {
	v.Warmth.compEnvelope = 0
	v.ResetWet()
}
