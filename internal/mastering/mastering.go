package mastering

// Preset selects one of the spec's whole-chain mastering presets
// (§4.5 "Presets").
type Preset int

const (
	PresetOff Preset = iota
	PresetClean
	PresetTechno
	PresetHouse
	PresetDnB
)

type presetParams struct {
	lowDB, midDB, highDB float64
	ratio                float64
	satCurve             SaturationCurve
	satDrive             float64
	width                float64
	bassMonoHz           float64
}

var presets = map[Preset]presetParams{
	PresetClean: {
		lowDB: 0, midDB: 0, highDB: 0,
		ratio: 1.1, satCurve: SaturationTape, satDrive: 0,
		width: 1.0, bassMonoHz: 150,
	},
	PresetTechno: {
		lowDB: 1, midDB: 0, highDB: 0.5,
		ratio: 1.5, satCurve: SaturationTape, satDrive: 0.08,
		width: 1.05, bassMonoHz: 150,
	},
	PresetHouse: {
		lowDB: 1.5, midDB: 0, highDB: 1,
		ratio: 1.25, satCurve: SaturationTape, satDrive: 0.15,
		width: 1.10, bassMonoHz: 120,
	},
	PresetDnB: {
		lowDB: 0.5, midDB: -0.5, highDB: 1.5,
		ratio: 1.75, satCurve: SaturationTape, satDrive: 0.08,
		width: 1.0, bassMonoHz: 180,
	},
}

// Chain is the fixed-order mastering chain: EQ -> compressor ->
// saturation -> stereo enhancer -> limiter tap, with a BS.1770 meter
// tapping the signal after the enhancer for analysis only (§4.5
// "Mastering chain").
type Chain struct {
	Enabled bool
	Preset  Preset

	EQ         *ThreeBandEQ
	Compressor *Compressor
	Saturation *Saturation
	Stereo     *StereoEnhancer
	Meter      *Meter
}

// NewChain constructs a disabled, flat-preset mastering chain at the
// given sample rate.
func NewChain(sr float64) *Chain {
	return &Chain{
		Enabled:    false,
		Preset:     PresetOff,
		EQ:         NewThreeBandEQ(sr),
		Compressor: NewCompressor(sr),
		Saturation: NewSaturation(sr),
		Stereo:     NewStereoEnhancer(sr),
		Meter:      NewMeter(sr),
	}
}

// SetPreset applies a whole-chain preset's parameters across every
// stage. PresetOff leaves Enabled untouched but resets stages to flat.
func (c *Chain) SetPreset(p Preset) {
	c.Preset = p
	if p == PresetOff {
		c.EQ.SetGains(0, 0, 0)
		c.Compressor.Ratio = 1.0
		c.Saturation.Drive = 0
		c.Stereo.BaseWidth = 1.0
		c.Stereo.SetSplitHz(150)
		return
	}

	params, ok := presets[p]
	if !ok {
		return
	}
	c.EQ.SetGains(params.lowDB, params.midDB, params.highDB)
	c.Compressor.Ratio = params.ratio
	c.Saturation.Curve = params.satCurve
	c.Saturation.Drive = params.satDrive
	c.Stereo.BaseWidth = params.width
	c.Stereo.SetSplitHz(params.bassMonoHz)
}

// CyclePreset advances to the next preset in Off/Clean/Techno/House/DnB
// order, wrapping back to Off.
func (c *Chain) CyclePreset() {
	next := c.Preset + 1
	if next > PresetDnB {
		next = PresetOff
	}
	c.SetPreset(next)
}

// Process runs the fixed chain order on the interleaved stereo buffer
// in place when enabled, otherwise passes the signal through
// unmodified. The meter always analyzes the post-enhancer signal so
// UI loudness readouts stay live even while bypassed.
func (c *Chain) Process(samples []float32) {
	if !c.Enabled {
		c.Meter.Process(samples)
		return
	}

	c.EQ.Process(samples)
	c.Compressor.Process(samples)
	c.Saturation.Process(samples)
	c.Stereo.Process(samples)
	c.Meter.Process(samples)
}

// Reset clears all stage state.
func (c *Chain) Reset() {
	c.Compressor.Reset()
	c.Saturation.Reset()
	c.Stereo.Reset()
	c.Meter.Reset()
}
