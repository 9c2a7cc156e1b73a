package mastering

import "math"

// kWeightStage is a single biquad stage of the BS.1770 K-weighting
// filter (§4.5 "Loudness meter").
type kWeightStage struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

func (s *kWeightStage) process(in float64) float64 {
	out := s.b0*in + s.b1*s.x1 + s.b2*s.x2 - s.a1*s.y1 - s.a2*s.y2
	s.x2, s.x1 = s.x1, in
	s.y2, s.y1 = s.y1, out
	return out
}

// newShelfStage builds the high-shelf pre-filter. At 48kHz it uses the
// exact BS.1770 coefficients; at any other rate it falls back to the
// RBJ bilinear-transform derivation of the same target shelf (+4dB at
// ~1681Hz).
func newShelfStage(sr float64) *kWeightStage {
	if math.Abs(sr-48000) < 0.5 {
		return &kWeightStage{
			b0: 1.53512485958697, b1: -2.69169618940638, b2: 1.19839281085285,
			a1: -1.69065929318241, a2: 0.73248077421585,
		}
	}

	const freq = 1681.9744509555319
	const gainDB = 3.999843853973347
	const q = 0.7071752369554196

	a := math.Pow(10, gainDB/40)
	omega := 2 * math.Pi * freq / sr
	sinW, cosW := math.Sin(omega), math.Cos(omega)
	alpha := sinW / (2 * q)
	beta := math.Sqrt(a) / q

	b0 := a * ((a + 1) + (a-1)*cosW + beta*sinW)
	b1 := -2 * a * ((a - 1) + (a+1)*cosW)
	b2 := a * ((a + 1) + (a-1)*cosW - beta*sinW)
	a0 := (a + 1) - (a-1)*cosW + beta*sinW
	a1 := 2 * ((a - 1) - (a+1)*cosW)
	a2 := (a + 1) - (a-1)*cosW - beta*sinW

	return &kWeightStage{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}

// newRLBStage builds the RLB high-pass stage. At 48kHz it uses the
// exact BS.1770 coefficients; otherwise an RBJ high-pass at the same
// target frequency/Q.
func newRLBStage(sr float64) *kWeightStage {
	if math.Abs(sr-48000) < 0.5 {
		return &kWeightStage{
			b0: 1.0, b1: -2.0, b2: 1.0,
			a1: -1.99004745483398, a2: 0.99007225036621,
		}
	}

	const freq = 38.13547087602444
	const q = 0.5003270373238773

	omega := 2 * math.Pi * freq / sr
	sinW, cosW := math.Sin(omega), math.Cos(omega)
	alpha := sinW / (2 * q)

	b0 := (1 + cosW) / 2
	b1 := -(1 + cosW)
	b2 := (1 + cosW) / 2
	a0 := 1 + alpha
	a1 := -2 * cosW
	a2 := 1 - alpha

	return &kWeightStage{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}

// kWeightChannel applies the two-stage K-weighting filter to one
// channel.
type kWeightChannel struct {
	shelf *kWeightStage
	rlb   *kWeightStage
}

func newKWeightChannel(sr float64) *kWeightChannel {
	return &kWeightChannel{shelf: newShelfStage(sr), rlb: newRLBStage(sr)}
}

func (c *kWeightChannel) process(in float64) float64 {
	return c.rlb.process(c.shelf.process(in))
}

const (
	meterBlockMs    = 100
	momentaryBlocks = 4
	shortTermBlocks = 30
)

// Meter implements the ITU-R BS.1770 momentary/short-term loudness
// meter plus a simple true-peak estimate with hold and decay (§4.5
// "Loudness meter"). It taps the signal after the stereo enhancer for
// analysis only — it never modifies the audio.
type Meter struct {
	sr float64

	left, right *kWeightChannel

	blockSize   int
	blockAt     int
	blockSumSq  float64
	blocks      []float64
	blockWriteAt int
	blocksFilled int

	MomentaryLUFS float64
	ShortTermLUFS float64

	TruePeak     float64
	peakHoldLeft int
	holdFrames   int
	decayPerFrame float64
}

// NewMeter constructs a meter at the given sample rate.
func NewMeter(sr float64) *Meter {
	blockSize := int(float64(meterBlockMs) / 1000 * sr)
	if blockSize < 1 {
		blockSize = 1
	}
	holdFrames := int(sr) // 1s hold
	return &Meter{
		sr:            sr,
		left:          newKWeightChannel(sr),
		right:         newKWeightChannel(sr),
		blockSize:     blockSize,
		blocks:        make([]float64, shortTermBlocks),
		MomentaryLUFS: -70,
		ShortTermLUFS: -70,
		holdFrames:    holdFrames,
		decayPerFrame: 1.0 / float64(holdFrames) * 2, // decays over ~0.5s once the hold elapses
	}
}

func msToLUFS(ms float64) float64 {
	if ms < 1e-10 {
		return -70
	}
	lufs := -0.691 + 10*math.Log10(ms)
	if lufs < -70 {
		return -70
	}
	return lufs
}

// Process analyzes the interleaved stereo buffer, updating the
// momentary/short-term LUFS readings and the true-peak estimate. It
// does not modify samples.
func (m *Meter) Process(samples []float32) {
	frames := len(samples) / 2
	for i := 0; i < frames; i++ {
		l := float64(samples[2*i])
		r := float64(samples[2*i+1])

		peak := math.Max(math.Abs(l), math.Abs(r))
		if peak > m.TruePeak {
			m.TruePeak = peak
			m.peakHoldLeft = m.holdFrames
		} else if m.peakHoldLeft > 0 {
			m.peakHoldLeft--
		} else {
			m.TruePeak -= m.decayPerFrame
			if m.TruePeak < 0 {
				m.TruePeak = 0
			}
		}

		wl := m.left.process(l)
		wr := m.right.process(r)
		m.blockSumSq += wl*wl + wr*wr
		m.blockAt++

		if m.blockAt >= m.blockSize {
			blockMS := m.blockSumSq / float64(m.blockAt)
			m.blocks[m.blockWriteAt%shortTermBlocks] = blockMS
			m.blockWriteAt++
			if m.blocksFilled < shortTermBlocks {
				m.blocksFilled++
			}
			m.blockSumSq = 0
			m.blockAt = 0

			m.MomentaryLUFS = msToLUFS(m.averageLastN(momentaryBlocks))
			m.ShortTermLUFS = msToLUFS(m.averageLastN(shortTermBlocks))
		}
	}
}

func (m *Meter) averageLastN(n int) float64 {
	if n > m.blocksFilled {
		n = m.blocksFilled
	}
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		idx := (m.blockWriteAt - 1 - i + shortTermBlocks) % shortTermBlocks
		sum += m.blocks[idx]
	}
	return sum / float64(n)
}

// Reset clears filter, block-accumulator and peak-hold state.
func (m *Meter) Reset() {
	*m.left.shelf = kWeightStage{b0: m.left.shelf.b0, b1: m.left.shelf.b1, b2: m.left.shelf.b2, a1: m.left.shelf.a1, a2: m.left.shelf.a2}
	*m.left.rlb = kWeightStage{b0: m.left.rlb.b0, b1: m.left.rlb.b1, b2: m.left.rlb.b2, a1: m.left.rlb.a1, a2: m.left.rlb.a2}
	*m.right.shelf = kWeightStage{b0: m.right.shelf.b0, b1: m.right.shelf.b1, b2: m.right.shelf.b2, a1: m.right.shelf.a1, a2: m.right.shelf.a2}
	*m.right.rlb = kWeightStage{b0: m.right.rlb.b0, b1: m.right.rlb.b1, b2: m.right.rlb.b2, a1: m.right.rlb.a1, a2: m.right.rlb.a2}

	m.blockAt = 0
	m.blockSumSq = 0
	m.blockWriteAt = 0
	m.blocksFilled = 0
	for i := range m.blocks {
		m.blocks[i] = 0
	}
	m.MomentaryLUFS = -70
	m.ShortTermLUFS = -70
	m.TruePeak = 0
	m.peakHoldLeft = 0
}
