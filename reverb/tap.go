package reverb

import (
	"math"
	"sync"
)

// Tap is a read-only monitoring point. The audio path publishes each
// block under a try-lock: when a reader currently holds the snapshot,
// the publish is skipped instead of waiting, so monitoring never
// stalls processing and readers always observe a complete block.
type Tap struct {
	mu  sync.Mutex
	buf []float32
	n   int
}

func newTap(maxBlock int) *Tap {
	return &Tap{buf: make([]float32, maxBlock)}
}

// publish copies block into the snapshot buffer. Called from the audio
// path only; never waits and never allocates. A concurrent reader
// drops this block from monitoring.
func (t *Tap) publish(block []float32) {
	if !t.mu.TryLock() {
		return
	}
	t.n = copy(t.buf, block)
	t.mu.Unlock()
}

// Latest copies the most recent snapshot into dst and returns the
// number of samples copied. Returns 0 before the first published
// block.
func (t *Tap) Latest(dst []float32) int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return copy(dst, t.buf[:t.n])
}

// Peak returns the absolute peak of the latest snapshot, or 0 when no
// block has been published yet.
func (t *Tap) Peak() float64 {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	var peak float64
	for _, s := range t.buf[:t.n] {
		if v := math.Abs(float64(s)); v > peak {
			peak = v
		}
	}
	return peak
}
