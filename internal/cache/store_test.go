package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stretchr/testify/assert"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test-cache.db")
	s, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCacheInvalidation(t *testing.T) {
	s := openTestStore(t)

	bpm := 128.0
	record := Record{
		Path:         "/music/track.flac",
		FileSize:     1000,
		ModifiedTime: 1700000000,
		DurationSecs: 210.5,
		BPM:          &bpm,
		Title:        "Track",
		Artist:       "Artist",
		AnalyzedAt:   1700000100,
	}
	require.NoError(t, s.Store(record))

	got, ok := s.Get("/music/track.flac", 1000, 1700000000)
	require.True(t, ok)
	assert.Equal(t, record.Path, got.Path)
	assert.Equal(t, *record.BPM, *got.BPM)

	_, ok = s.Get("/music/track.flac", 1001, 1700000000)
	assert.False(t, ok)
}

func TestCacheCountAndClear(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Store(Record{Path: "/a.mp3", FileSize: 1, ModifiedTime: 1, AnalyzedAt: 1}))
	require.NoError(t, s.Store(Record{Path: "/b.mp3", FileSize: 2, ModifiedTime: 2, AnalyzedAt: 2}))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.Remove("/a.mp3"))
	n, err = s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.Clear())
	n, err = s.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCacheGetAllSortedKeyThenBPM(t *testing.T) {
	s := openTestStore(t)

	bpmA, bpmB, bpmC := 140.0, 120.0, 128.0
	keyA, keyB := "8A", "9A"

	require.NoError(t, s.Store(Record{Path: "/c.mp3", FileSize: 1, ModifiedTime: 1, BPM: &bpmC, AnalyzedAt: 1}))
	require.NoError(t, s.Store(Record{Path: "/a.mp3", FileSize: 1, ModifiedTime: 1, Key: &keyA, BPM: &bpmA, AnalyzedAt: 1}))
	require.NoError(t, s.Store(Record{Path: "/b.mp3", FileSize: 1, ModifiedTime: 1, Key: &keyB, BPM: &bpmB, AnalyzedAt: 1}))

	all, err := s.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "/a.mp3", all[0].Path)
	assert.Equal(t, "/b.mp3", all[1].Path)
	assert.Equal(t, "/c.mp3", all[2].Path)
}
