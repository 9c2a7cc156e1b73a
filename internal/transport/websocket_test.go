package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vividhyeok/ole/internal/engine"
)

func TestEventPayloadMarshalsStateUpdate(t *testing.T) {
	ev := engine.Event{
		Kind:        engine.EventStateUpdate,
		StateUpdate: engine.StateUpdate{Crossfader: 0.5},
	}

	out, err := MarshalForTest(ev)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"Crossfader":0.5`)
	assert.Contains(t, string(out), `"kind":0`)
}

func TestEventPayloadMarshalsError(t *testing.T) {
	ev := engine.Event{
		Kind:  engine.EventError,
		Error: engine.ErrorEvent{Deck: engine.DeckA, Message: "load failed"},
	}

	out, err := MarshalForTest(ev)
	require.NoError(t, err)
	assert.Contains(t, string(out), "load failed")
}

func TestNewHubStartsEmpty(t *testing.T) {
	h := NewHub()
	assert.Empty(t, h.clients)
}
