// Package vinyl implements turntable emulation: motor speed (startup/
// stop/momentum), wow/flutter pitch modulation, RIAA-style analog
// warmth and surface-noise generation (§4.4 "Vinyl emulation").
package vinyl

import "math"

// MotorState is the turntable motor's transport phase.
type MotorState int

const (
	MotorStopped MotorState = iota
	MotorStarting
	MotorRunning
	MotorStopping
)

// Motor produces a per-sample speed multiplier consumed by the deck's
// read position, modeling startup ramp, stop decay and momentum.
type Motor struct {
	sr         float64
	State      MotorState
	speed      float64 // current multiplier, 0..1
	StartTime  float64 // seconds to reach full speed
	StopTime   float64 // seconds to decay to stop
}

// NewMotor constructs a stopped motor at the given sample rate.
func NewMotor(sr float64) *Motor {
	return &Motor{sr: sr, StartTime: 0.7, StopTime: 1.2}
}

// Start begins the startup ramp.
func (m *Motor) Start() {
	if m.State != MotorRunning {
		m.State = MotorStarting
	}
}

// Stop begins the stop decay.
func (m *Motor) Stop() {
	if m.State != MotorStopped {
		m.State = MotorStopping
	}
}

// Next advances the motor by one sample and returns the current speed
// multiplier.
func (m *Motor) Next() float64 {
	switch m.State {
	case MotorStarting:
		rate := 1.0 / (m.StartTime * m.sr)
		m.speed += rate
		if m.speed >= 1 {
			m.speed = 1
			m.State = MotorRunning
		}
	case MotorStopping:
		decay := math.Exp(-5 / (m.StopTime * m.sr))
		m.speed *= decay
		if m.speed < 1e-4 {
			m.speed = 0
			m.State = MotorStopped
		}
	case MotorRunning:
		m.speed = 1
	case MotorStopped:
		m.speed = 0
	}
	return m.speed
}

// WowFlutter produces a small pitch-modulation multiplier from two
// superimposed sinusoidal LFOs, per §4.4 "Vinyl emulation".
type WowFlutter struct {
	sr                       float64
	wowPhase, flutterPhase   float64
	WowDepth, FlutterDepth   float64 // fraction of unity speed
	WowRateHz, FlutterRateHz float64
}

// NewWowFlutter constructs the pitch-modulation LFOs at default rates
// (0.5Hz wow, 6Hz flutter), scaled by Amount (0..1).
func NewWowFlutter(sr float64, amount float64) *WowFlutter {
	return &WowFlutter{
		sr:            sr,
		WowDepth:      0.003 * amount,
		FlutterDepth:  0.0015 * amount,
		WowRateHz:     0.5,
		FlutterRateHz: 6.0,
	}
}

// Next returns the next pitch-modulation multiplier (centered on 1.0).
func (w *WowFlutter) Next() float64 {
	wow := math.Sin(2*math.Pi*w.wowPhase) * w.WowDepth
	flutter := math.Sin(2*math.Pi*w.flutterPhase) * w.FlutterDepth

	w.wowPhase += w.WowRateHz / w.sr
	if w.wowPhase > 1 {
		w.wowPhase -= 1
	}
	w.flutterPhase += w.FlutterRateHz / w.sr
	if w.flutterPhase > 1 {
		w.flutterPhase -= 1
	}

	return 1 + wow + flutter
}
