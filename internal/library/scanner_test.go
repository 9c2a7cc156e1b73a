package library

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vividhyeok/ole/internal/cache"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }

func TestSortRecordsKeyThenBPM(t *testing.T) {
	records := []cache.Record{
		{Path: "/z.mp3", BPM: f64Ptr(140)},
		{Path: "/a.mp3", Key: strPtr("9A"), BPM: f64Ptr(120)},
		{Path: "/b.mp3", Key: strPtr("8A"), BPM: f64Ptr(130)},
		{Path: "/c.mp3", Key: strPtr("8A"), BPM: f64Ptr(125)},
	}

	sortRecords(records)

	assert.Equal(t, "/c.mp3", records[0].Path)
	assert.Equal(t, "/b.mp3", records[1].Path)
	assert.Equal(t, "/a.mp3", records[2].Path)
	assert.Equal(t, "/z.mp3", records[3].Path)
}
