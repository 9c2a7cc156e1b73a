// Package library implements the directory scanner that walks a music
// library, partitions files into cached/uncached against the analysis
// cache, and analyzes the uncached ones over a worker pool (§4.8
// "Library scanner").
package library

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vividhyeok/ole/internal/analysis"
	"github.com/vividhyeok/ole/internal/cache"
	"github.com/vividhyeok/ole/internal/sample"
)

// SupportedExtensions lists the accepted audio file extensions.
var SupportedExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".wav":  true,
	".ogg":  true,
	".m4a":  true,
	".aac":  true,
}

// maxAnalysisWindowSeconds bounds how much of a file the scanner
// analyzes, per §4.8 ("first min(len, 60·sr) samples").
const maxAnalysisWindowSeconds = 60

// Config describes a scan request.
type Config struct {
	Roots     []string
	Recursive bool
	Workers   int
}

// Progress is one incremental scan update.
type Progress struct {
	JobID     string
	Path      string
	Status    string // cached, done, error
	Error     string
	Processed int
	Total     int
}

// Result is the final scan outcome.
type Result struct {
	JobID       string
	Records     []cache.Record
	NewAnalyzed int
	Cached      int
	Failed      int
}

// Scanner walks directories, analyzes uncached files, and writes results
// through the shared cache store.
type Scanner struct {
	store  *cache.Store
	loader sample.Loader
}

// NewScanner builds a Scanner backed by store for memoization and loader
// for decoding uncached files.
func NewScanner(store *cache.Store, loader sample.Loader) *Scanner {
	return &Scanner{store: store, loader: loader}
}

// Scan runs synchronously, sending progress on the progress channel
// (closed on return) and returning the final merged, sorted Result.
func (s *Scanner) Scan(ctx context.Context, cfg Config, progress chan<- Progress) (Result, error) {
	defer close(progress)

	jobID := uuid.NewString()
	paths := s.collectPaths(cfg)
	total := len(paths)

	type job struct {
		path string
	}
	type outcome struct {
		path   string
		record cache.Record
		cached bool
		err    error
	}

	jobs := make(chan job, total)
	results := make(chan outcome, total)

	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				select {
				case <-ctx.Done():
					results <- outcome{path: j.path, err: ctx.Err()}
					continue
				default:
				}
				rec, cached, err := s.analyzeOne(j.path)
				results <- outcome{path: j.path, record: rec, cached: cached, err: err}
			}
		}()
	}

	for _, p := range paths {
		jobs <- job{path: p}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var records []cache.Record
	processed, newAnalyzed, cachedCount, failed := 0, 0, 0, 0

	for i := 0; i < total; i++ {
		o, ok := <-results
		if !ok {
			break
		}
		processed++
		switch {
		case o.err != nil:
			failed++
			progress <- Progress{JobID: jobID, Path: o.path, Status: "error", Error: o.err.Error(), Processed: processed, Total: total}
		case o.cached:
			cachedCount++
			records = append(records, o.record)
			progress <- Progress{JobID: jobID, Path: o.record.Path, Status: "cached", Processed: processed, Total: total}
		default:
			newAnalyzed++
			records = append(records, o.record)
			progress <- Progress{JobID: jobID, Path: o.record.Path, Status: "done", Processed: processed, Total: total}
		}
	}

	sortRecords(records)

	return Result{JobID: jobID, Records: records, NewAnalyzed: newAnalyzed, Cached: cachedCount, Failed: failed}, nil
}

// ScanAsync starts a scan in the background, returning a progress
// receiver and a cancel function. Dropping the receiver does not cancel
// the scan; calling cancel does (§5 "Cancellation").
func (s *Scanner) ScanAsync(cfg Config) (<-chan Progress, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	progress := make(chan Progress, 256)

	go func() {
		if _, err := s.Scan(ctx, cfg, progress); err != nil {
			log.Warn("library scan failed", "error", err)
		}
	}()

	return progress, cancel
}

func (s *Scanner) collectPaths(cfg Config) []string {
	var paths []string
	for _, root := range cfg.Roots {
		_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if !cfg.Recursive && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			ext := strings.ToLower(filepath.Ext(path))
			if SupportedExtensions[ext] {
				paths = append(paths, path)
			}
			return nil
		})
	}
	return paths
}

// analyzeOne loads a cached record if the (size, mtime) key still
// matches, otherwise decodes and runs both analyzers, writing the fresh
// record back to the cache.
func (s *Scanner) analyzeOne(path string) (cache.Record, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return cache.Record{}, false, err
	}
	size := info.Size()
	mtime := info.ModTime().Unix()

	if rec, ok := s.store.Get(path, size, mtime); ok {
		return rec, true, nil
	}

	buf, err := s.loader.Load(path)
	if err != nil {
		return cache.Record{}, false, err
	}

	windowFrames := maxAnalysisWindowSeconds * buf.SampleRate
	if windowFrames > buf.Frames() {
		windowFrames = buf.Frames()
	}
	windowed := &sample.Buffer{Samples: buf.Samples[:windowFrames*2], SampleRate: buf.SampleRate}

	rec := cache.Record{
		Path:         path,
		FileSize:     size,
		ModifiedTime: mtime,
		DurationSecs: buf.DurationSeconds(),
		Title:        buf.Name,
	}

	if grid, err := analysis.AnalyzeBeatGrid(windowed); err == nil {
		bpm := float64(grid.BPM)
		conf := float64(grid.Confidence)
		rec.BPM = &bpm
		rec.BPMConfidence = &conf
	}

	if key, confidence, ok := analysis.AnalyzeKey(windowed); ok {
		keyStr := key.String()
		rec.Key = &keyStr
		rec.KeyConfidence = &confidence
	}

	if err := s.store.Store(rec); err != nil {
		log.Warn("failed to store analysis record", "path", path, "error", err)
	}

	return rec, false, nil
}

// sortRecords orders by key (nulls last) then BPM ascending (nulls
// last), per §4.8 / §6 "final merged list" ordering.
func sortRecords(records []cache.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if (a.Key == nil) != (b.Key == nil) {
			return a.Key != nil
		}
		if a.Key != nil && b.Key != nil && *a.Key != *b.Key {
			return *a.Key < *b.Key
		}
		if (a.BPM == nil) != (b.BPM == nil) {
			return a.BPM != nil
		}
		if a.BPM != nil && b.BPM != nil {
			return *a.BPM < *b.BPM
		}
		return a.Path < b.Path
	})
}
