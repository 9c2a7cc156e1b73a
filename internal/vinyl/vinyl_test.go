package vinyl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMotorStartupRampsToFullSpeed(t *testing.T) {
	m := NewMotor(44100)
	m.Start()
	for i := 0; i < int(m.StartTime*44100)+100; i++ {
		m.Next()
	}
	assert.Equal(t, MotorRunning, m.State)
	assert.Equal(t, 1.0, m.speed)
}

func TestMotorStopDecaysToZero(t *testing.T) {
	m := NewMotor(44100)
	m.State = MotorRunning
	m.speed = 1
	m.Stop()
	for i := 0; i < int(m.StopTime*44100)*3; i++ {
		m.Next()
	}
	assert.Equal(t, MotorStopped, m.State)
	assert.Equal(t, 0.0, m.speed)
}

func TestNoiseProducesFiniteSamples(t *testing.T) {
	n := NewNoise(44100)
	n.Intensity = 0.5
	for i := 0; i < 1000; i++ {
		v := n.Next()
		assert.False(t, v != v)
	}
}

func TestPresetsMapToDistinctIntensities(t *testing.T) {
	_, _, _, clean := ApplyPreset(PresetClean)
	_, _, _, extreme := ApplyPreset(PresetExtreme)
	assert.Less(t, clean, extreme)
}
