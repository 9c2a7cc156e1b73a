package sample

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
)

// FFmpegLoader implements Loader by shelling out to ffmpeg to decode an
// arbitrary input file to interleaved stereo f32 PCM at a fixed sample
// rate. This is the concrete collaborator behind §6's "Sample loader
// contract" — the engine package never imports it directly.
type FFmpegLoader struct {
	// BinaryPath is the ffmpeg executable to invoke; defaults to "ffmpeg"
	// on PATH, overridable for test harnesses or bundled binaries.
	BinaryPath string
	// SampleRate is the output sample rate; the engine and analyzers are
	// sample-rate agnostic, so this just needs to be consistent.
	SampleRate int
}

// NewFFmpegLoader builds a loader targeting the given output sample rate,
// using ffmpeg from PATH unless FFMPEG_PATH is set.
func NewFFmpegLoader(sampleRate int) *FFmpegLoader {
	bin := "ffmpeg"
	if p := os.Getenv("FFMPEG_PATH"); p != "" {
		bin = p
	}
	return &FFmpegLoader{BinaryPath: bin, SampleRate: sampleRate}
}

// Load decodes path to a stereo Buffer via ffmpeg.
func (l *FFmpegLoader) Load(path string) (*Buffer, error) {
	sr := l.SampleRate
	if sr <= 0 {
		sr = 44100
	}

	cmd := exec.Command(l.BinaryPath,
		"-v", "error",
		"-i", path,
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ac", "2",
		"-ar", fmt.Sprintf("%d", sr),
		"-",
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("sample: ffmpeg pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("sample: ffmpeg start: %w (%s)", err, stderr.String())
	}

	data, err := io.ReadAll(stdout)
	if err != nil {
		return nil, fmt.Errorf("sample: ffmpeg read: %w", err)
	}
	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("sample: ffmpeg decode %s: %w (%s)", path, err, stderr.String())
	}

	numSamples := len(data) / 4
	if numSamples == 0 {
		return nil, fmt.Errorf("sample: no audio decoded from %s", path)
	}

	samples := make([]float32, numSamples)
	for i := 0; i < numSamples; i++ {
		bits := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
		samples[i] = math.Float32frombits(bits)
	}

	return &Buffer{
		Samples:    samples,
		SampleRate: sr,
		Name:       filepath.Base(path),
	}, nil
}
