// Package config parses process-level flags into a Config, the only
// configuration surface the engine and its cmd entry points use
// (§3 "Deliberately OUT of scope": "process-level configuration" is a
// collaborator boundary, not something this package's callers
// implement themselves).
package config

import (
	"flag"
	"os"
)

// Config holds the flags shared by cmd/oled and cmd/olescan.
type Config struct {
	// Audio settings
	SampleRate        int
	CallbackFrames    int
	OutputDevice      string

	// Library/cache settings
	DataDir    string
	LibraryDir string
	Recursive  bool
	Workers    int

	// Transport settings
	WebSocketAddr string

	// ffmpeg settings
	FFmpegPath string

	LogLevel string
}

// Parse parses os.Args into a Config, applying OLE_DATA_DIR-aware
// defaults the way the corpus's own config loaders do.
func Parse() *Config {
	cfg := &Config{}

	flag.IntVar(&cfg.SampleRate, "sample-rate", 48000, "audio output sample rate in Hz")
	flag.IntVar(&cfg.CallbackFrames, "callback-frames", 512, "audio callback buffer size in frames")
	flag.StringVar(&cfg.OutputDevice, "output-device", "", "output audio device name (not read by oled, which always opens the system default output device)")

	flag.StringVar(&cfg.DataDir, "data-dir", defaultDataDir(), "root directory for the analysis cache database")
	flag.StringVar(&cfg.LibraryDir, "library", "", "root directory to scan for tracks")
	flag.BoolVar(&cfg.Recursive, "recursive", true, "scan library directories recursively")
	flag.IntVar(&cfg.Workers, "workers", 4, "concurrent analysis workers during a library scan")

	flag.StringVar(&cfg.WebSocketAddr, "ws-addr", ":7890", "address the state-publishing websocket listens on")

	flag.StringVar(&cfg.FFmpegPath, "ffmpeg", "", "path to ffmpeg executable (default: $FFMPEG_PATH or $PATH lookup)")

	flag.StringVar(&cfg.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")

	flag.Parse()

	if cfg.FFmpegPath != "" {
		os.Setenv("FFMPEG_PATH", cfg.FFmpegPath)
	}

	return cfg
}

func defaultDataDir() string {
	if dir := os.Getenv("OLE_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ole"
	}
	return home + "/.ole"
}
