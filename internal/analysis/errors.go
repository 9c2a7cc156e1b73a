package analysis

import "errors"

// Failure modes for the offline analyzers (§7 "Error taxonomy"). These
// degrade gracefully rather than panic: callers fall back to an online
// BPM detector or simply report no key.
var (
	ErrInsufficientAudio = errors.New("analysis: insufficient audio")
	ErrNoBpm             = errors.New("analysis: no bpm found")
	ErrNoOnsets          = errors.New("analysis: no onsets detected")
)
