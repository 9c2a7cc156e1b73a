package camelot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	k, ok := Parse("8A")
	require.True(t, ok)
	assert.Equal(t, Key{Number: 8, IsMajor: false}, k)

	k, ok = Parse("12B")
	require.True(t, ok)
	assert.Equal(t, Key{Number: 12, IsMajor: true}, k)

	_, ok = Parse("13A")
	assert.False(t, ok)

	_, ok = Parse("0B")
	assert.False(t, ok)

	_, ok = Parse("xx")
	assert.False(t, ok)
}

func TestMusicalRoundTrip(t *testing.T) {
	for n := 1; n <= 12; n++ {
		for _, major := range []bool{true, false} {
			k := Key{Number: n, IsMajor: major}
			name := k.Musical()
			back, ok := FromMusical(name)
			require.True(t, ok, "round trip failed for %v (%s)", k, name)
			assert.Equal(t, k, back)
		}
	}
}

func TestCompatibleKeys(t *testing.T) {
	k := Key{Number: 8, IsMajor: false}
	compat := CompatibleKeys(k)

	assert.Contains(t, compat, k)
	assert.Contains(t, compat, Key{Number: 8, IsMajor: true})
	assert.Contains(t, compat, Key{Number: 9, IsMajor: false})
	assert.Contains(t, compat, Key{Number: 7, IsMajor: false})

	for _, c := range compat {
		assert.True(t, k.Compatible(c))
	}
}

func TestDistanceWraps(t *testing.T) {
	a := Key{Number: 1, IsMajor: false}
	b := Key{Number: 12, IsMajor: false}
	assert.Equal(t, 1, Distance(a, b))
}
