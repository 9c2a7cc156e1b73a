package vinyl

import "math"

// xorshift64 is a minimal, fast PRNG for the noise generator — not
// cryptographic, chosen for speed inside the audio callback.
type xorshift64 struct {
	state uint64
}

func newXorshift64(seed uint64) *xorshift64 {
	if seed == 0 {
		seed = 0x9e3779b97f4a7c15
	}
	return &xorshift64{state: seed}
}

func (x *xorshift64) next() float64 {
	x.state ^= x.state << 13
	x.state ^= x.state >> 7
	x.state ^= x.state << 17
	// map to [-1, 1)
	return float64(int64(x.state))/float64(1<<63)
}

// pinkFilter is Paul Kellet's refined pink-noise filter, turning white
// noise into approximately 1/f "surface hiss" noise.
type pinkFilter struct {
	b0, b1, b2, b3, b4, b5, b6 float64
}

func (p *pinkFilter) process(white float64) float64 {
	p.b0 = 0.99886*p.b0 + white*0.0555179
	p.b1 = 0.99332*p.b1 + white*0.0750759
	p.b2 = 0.96900*p.b2 + white*0.1538520
	p.b3 = 0.86650*p.b3 + white*0.3104856
	p.b4 = 0.55000*p.b4 + white*0.5329522
	p.b5 = -0.7616*p.b5 - white*0.0168980
	out := p.b0 + p.b1 + p.b2 + p.b3 + p.b4 + p.b5 + p.b6 + white*0.5362
	p.b6 = white * 0.115926
	return out * 0.11
}

// Preset sets wow, warmth, RIAA amount and noise intensity together,
// per §4.4 "Vinyl emulation" ("Presets Clean/Warm/Vintage/Worn/Extreme").
type Preset int

const (
	PresetClean Preset = iota
	PresetWarm
	PresetVintage
	PresetWorn
	PresetExtreme
)

type presetParams struct {
	wow, warmth, riaaAmount, noiseIntensity float64
}

var presets = map[Preset]presetParams{
	PresetClean:   {wow: 0.05, warmth: 0.1, riaaAmount: 0.1, noiseIntensity: 0.02},
	PresetWarm:    {wow: 0.2, warmth: 0.4, riaaAmount: 0.4, noiseIntensity: 0.1},
	PresetVintage: {wow: 0.4, warmth: 0.6, riaaAmount: 0.6, noiseIntensity: 0.25},
	PresetWorn:    {wow: 0.6, warmth: 0.75, riaaAmount: 0.75, noiseIntensity: 0.45},
	PresetExtreme: {wow: 1.0, warmth: 1.0, riaaAmount: 1.0, noiseIntensity: 0.8},
}

// Noise generates surface hiss (white -> pink), Poisson-process
// crackle, and sparse pops with per-pop exponential decay
// (§4.4 "Vinyl emulation" "Noise generator").
type Noise struct {
	sr        float64
	rng       *xorshift64
	pink      pinkFilter
	Intensity float64

	popActive  bool
	popEnv     float64
	popDecay   float64
	sampleIdx  uint64
	nextPopAt  uint64
	nextCrackleAt uint64
}

// NewNoise constructs a noise generator at the given sample rate,
// seeded deterministically (the exact seed value is not load-bearing —
// only its statistical behavior is).
func NewNoise(sr float64) *Noise {
	n := &Noise{sr: sr, rng: newXorshift64(0x2545F4914F6CDD1D)}
	n.scheduleNextPop()
	n.scheduleNextCrackle()
	return n
}

func (n *Noise) scheduleNextPop() {
	// Poisson-ish spacing: exponential inter-arrival scaled to ~1 pop
	// every 2-6 seconds depending on intensity.
	meanSeconds := 6.0 - 4.0*n.Intensity
	if meanSeconds < 0.5 {
		meanSeconds = 0.5
	}
	u := (n.rng.next() + 1) / 2
	if u < 1e-9 {
		u = 1e-9
	}
	interval := -math.Log(u) * meanSeconds * n.sr
	n.nextPopAt = n.sampleIdx + uint64(interval)
}

func (n *Noise) scheduleNextCrackle() {
	meanSeconds := 0.3 / math.Max(n.Intensity, 0.05)
	u := (n.rng.next() + 1) / 2
	if u < 1e-9 {
		u = 1e-9
	}
	interval := -math.Log(u) * meanSeconds * n.sr
	n.nextCrackleAt = n.sampleIdx + uint64(interval)
}

// Next returns the next noise sample (hiss + crackle + pops), scaled by
// Intensity.
func (n *Noise) Next() float64 {
	white := n.rng.next()
	hiss := n.pink.process(white) * n.Intensity

	var crackle float64
	if n.sampleIdx >= n.nextCrackleAt {
		crackle = (n.rng.next()) * n.Intensity * 0.3
		n.scheduleNextCrackle()
	}

	var pop float64
	if n.sampleIdx >= n.nextPopAt {
		n.popActive = true
		n.popEnv = 1.0
		n.popDecay = math.Exp(-30.0 / n.sr)
		n.scheduleNextPop()
	}
	if n.popActive {
		pop = n.popEnv * n.rng.next() * n.Intensity
		n.popEnv *= n.popDecay
		if n.popEnv < 1e-4 {
			n.popActive = false
		}
	}

	n.sampleIdx++
	return hiss + crackle + pop
}

// ApplyPreset returns the (wow, warmth, riaaAmount, noiseIntensity)
// tuple for p.
func ApplyPreset(p Preset) (wow, warmth, riaaAmount, noiseIntensity float64) {
	pp := presets[p]
	return pp.wow, pp.warmth, pp.riaaAmount, pp.noiseIntensity
}
