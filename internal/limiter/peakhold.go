package limiter

// peakHoldEntry is one value/expiration pair in the monotonic deque.
type peakHoldEntry struct {
	value     float64
	expiresAt int64
}

// peakHoldBuffer is an O(1)-amortized sliding-window-maximum structure:
// a monotonic decreasing deque of (value, expiration) pairs (§4.6
// "Peak-hold buffer"). On push, front entries whose expiration has
// passed are dropped, then back entries with value <= the new peak are
// dropped before it is appended, so the deque stays monotonic and its
// front is always the current window's maximum.
type peakHoldBuffer struct {
	windowSamples int64
	clock         int64
	entries       []peakHoldEntry
}

func newPeakHoldBuffer(windowSamples int) *peakHoldBuffer {
	return &peakHoldBuffer{windowSamples: int64(windowSamples)}
}

// push advances the clock by one sample, inserts value, evicts expired
// and dominated entries, and returns the current window maximum.
func (b *peakHoldBuffer) push(value float64) float64 {
	b.clock++

	for len(b.entries) > 0 && b.entries[0].expiresAt <= b.clock {
		b.entries = b.entries[1:]
	}

	for len(b.entries) > 0 && b.entries[len(b.entries)-1].value <= value {
		b.entries = b.entries[:len(b.entries)-1]
	}

	b.entries = append(b.entries, peakHoldEntry{value: value, expiresAt: b.clock + b.windowSamples})

	return b.entries[0].value
}

func (b *peakHoldBuffer) reset() {
	b.clock = 0
	b.entries = b.entries[:0]
}
