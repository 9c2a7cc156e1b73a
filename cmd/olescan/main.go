// Command olescan walks a music library, analyzes uncached tracks and
// prints the merged, sorted result (§4.8 "Library scanner").
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/vividhyeok/ole/internal/cache"
	"github.com/vividhyeok/ole/internal/config"
	"github.com/vividhyeok/ole/internal/library"
	"github.com/vividhyeok/ole/internal/sample"
)

func main() {
	cfg := config.Parse()

	if cfg.LibraryDir == "" {
		fmt.Fprintln(os.Stderr, "usage: olescan -library <dir> [flags]")
		os.Exit(2)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatal("failed to create data dir", "path", cfg.DataDir, "error", err)
	}

	store, err := cache.Open(cache.DefaultPath(cfg.DataDir))
	if err != nil {
		log.Fatal("failed to open analysis cache", "error", err)
	}
	defer store.Close()

	loader := sample.NewFFmpegLoader(cfg.SampleRate)
	scanner := library.NewScanner(store, loader)

	progress := make(chan library.Progress, 256)
	done := make(chan library.Result, 1)
	errCh := make(chan error, 1)

	go func() {
		res, err := scanner.Scan(context.Background(), library.Config{
			Roots:     []string{cfg.LibraryDir},
			Recursive: cfg.Recursive,
			Workers:   cfg.Workers,
		}, progress)
		if err != nil {
			errCh <- err
			return
		}
		done <- res
	}()

	for p := range progress {
		switch p.Status {
		case "error":
			fmt.Printf("[%d/%d] ERROR %s: %s\n", p.Processed, p.Total, p.Path, p.Error)
		default:
			fmt.Printf("[%d/%d] %s %s\n", p.Processed, p.Total, p.Status, p.Path)
		}
	}

	select {
	case err := <-errCh:
		log.Fatal("scan failed", "error", err)
	case res := <-done:
		fmt.Printf("\n%d cached, %d analyzed, %d failed\n", res.Cached, res.NewAnalyzed, res.Failed)
		for _, rec := range res.Records {
			key := "-"
			if rec.Key != nil {
				key = *rec.Key
			}
			bpm := "-"
			if rec.BPM != nil {
				bpm = fmt.Sprintf("%.1f", *rec.BPM)
			}
			fmt.Printf("%-8s %-6s %s\n", key, bpm, rec.Path)
		}
	}
}
