// Package cache is the durable analysis memoization store (§3 "Analysis
// cache record", §6 "Cache store"), keyed by (path, file_size,
// modified_time): any change to size or mtime invalidates the record.
package cache

// Record is one memoized analysis result.
type Record struct {
	Path          string
	FileSize      int64
	ModifiedTime  int64
	DurationSecs  float64
	BPM           *float64
	BPMConfidence *float64
	Key           *string
	KeyConfidence *float64
	Title         string
	Artist        string
	AnalyzedAt    int64
}

// Matches reports whether a record is still valid for the given
// (size, mtime) pair.
func (r Record) Matches(fileSize, modifiedTime int64) bool {
	return r.FileSize == fileSize && r.ModifiedTime == modifiedTime
}
