package deck

// SyncTransition smoothly interpolates a deck's tempo (and applies a
// one-shot phase correction) toward a target over a fixed duration, per
// §4.3 "Sync transition".
type SyncTransition struct {
	StartTempo         float64
	TargetTempo        float64
	TargetPhaseOffset  float64
	AppliedPhaseOffset float64
	DurationSamples    float64
	SamplesProcessed   float64
	active             bool
}

// StartSyncTransition begins a new transition on the deck toward
// targetTempo, with a total phase correction of targetPhaseOffset
// samples to be applied smoothly over durationSamples.
func (d *Deck) StartSyncTransition(targetTempo, targetPhaseOffset, durationSamples float64) {
	d.sync = &SyncTransition{
		StartTempo:        d.Tempo,
		TargetTempo:       targetTempo,
		TargetPhaseOffset: targetPhaseOffset,
		DurationSamples:   durationSamples,
		active:            true,
	}
}

// Active reports whether a sync transition is in progress.
func (t *SyncTransition) Active() bool {
	return t != nil && t.active
}

// easeInOutQuad is the transition's easing function: e(t) = 2t^2 for
// t < 0.5, else 1 - (2-2t)^2/2 (§4.3 "Sync transition").
func easeInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	u := 2 - 2*t
	return 1 - u*u/2
}

// Advance progresses the transition by sampleCount frames (the deck's
// Process loop calls this once per output frame with sampleCount=1),
// updating the deck's tempo and applying the incremental phase offset
// to its position.
func (t *SyncTransition) Advance(sampleCount float64, d *Deck) {
	if !t.active {
		return
	}

	t.SamplesProcessed += sampleCount
	progress := t.SamplesProcessed / t.DurationSamples
	if progress > 1 {
		progress = 1
	}

	e := easeInOutQuad(progress)
	d.Tempo = t.StartTempo + (t.TargetTempo-t.StartTempo)*e

	totalOffsetAtE := t.TargetPhaseOffset * e
	increment := totalOffsetAtE - t.AppliedPhaseOffset
	d.Position += increment
	t.AppliedPhaseOffset = totalOffsetAtE

	if d.Position < 0 {
		d.Position = 0
	}
	if maxPos := float64(d.Buffer.Len()); d.Position > maxPos {
		d.Position = maxPos
	}

	if progress >= 1 {
		d.Tempo = t.TargetTempo
		t.active = false
	}
}
