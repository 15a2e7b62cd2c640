package reverb

import (
	"math"
	"testing"
)

func publishLevel(t *Tap, level float32, n int) {
	block := make([]float32, n)
	for i := range block {
		block[i] = level
	}
	t.publish(block)
}

func TestLimiterTripsAboveThreshold(t *testing.T) {
	tap := newTap(64)
	var mutes, notifies int
	l := NewSafetyLimiter(tap, func() { mutes++ }, func() { notifies++ })

	publishLevel(tap, 1.4, 64)
	if l.Poll() {
		t.Fatal("tripped below the threshold")
	}
	if l.Tripped() {
		t.Fatal("Tripped() true without an overload")
	}

	publishLevel(tap, 1.6, 64)
	if !l.Poll() {
		t.Fatal("did not trip at 1.6")
	}
	if !l.Tripped() {
		t.Fatal("Tripped() false after trip")
	}
	if mutes != 1 || notifies != 1 {
		t.Fatalf("mutes=%d notifies=%d after trip, want 1, 1", mutes, notifies)
	}
}

func TestLimiterNotifiesOnce(t *testing.T) {
	tap := newTap(64)
	var notifies int
	l := NewSafetyLimiter(tap, nil, func() { notifies++ })

	publishLevel(tap, 2.0, 64)
	for i := 0; i < 5; i++ {
		if !l.Poll() {
			t.Fatalf("poll %d returned false while tripped", i)
		}
	}
	if notifies != 1 {
		t.Errorf("notifies = %d, want exactly 1", notifies)
	}
}

func TestLimiterRearm(t *testing.T) {
	tap := newTap(64)
	var notifies int
	l := NewSafetyLimiter(tap, nil, func() { notifies++ })

	publishLevel(tap, 2.0, 64)
	l.Poll()
	l.Rearm()
	if l.Tripped() {
		t.Fatal("still tripped after Rearm")
	}

	// Stale overload block still present: the rearmed limiter fires
	// again.
	if !l.Poll() {
		t.Fatal("rearmed limiter ignored an overloaded block")
	}
	if notifies != 2 {
		t.Errorf("notifies = %d, want 2 (once per trip)", notifies)
	}

	publishLevel(tap, 0.5, 64)
	l.Rearm()
	if l.Poll() {
		t.Error("tripped on an in-range block after Rearm")
	}
}

func TestLimiterToleratesNilTapAndCallbacks(t *testing.T) {
	l := NewSafetyLimiter(nil, nil, nil)
	if l.Poll() {
		t.Error("tripped with no tap wired")
	}

	tap := newTap(16)
	l = NewSafetyLimiter(tap, nil, nil)
	publishLevel(tap, 3.0, 16)
	if !l.Poll() {
		t.Error("nil callbacks prevented the trip")
	}
}

func TestTapLatestAndPeak(t *testing.T) {
	tap := newTap(8)
	dst := make([]float32, 8)
	if n := tap.Latest(dst); n != 0 {
		t.Fatalf("Latest before any publish returned %d samples", n)
	}
	if tap.Peak() != 0 {
		t.Fatalf("Peak before any publish = %g", tap.Peak())
	}

	tap.publish([]float32{0.1, -0.9, 0.4})
	if n := tap.Latest(dst); n != 3 {
		t.Fatalf("Latest returned %d samples, want 3", n)
	}
	if dst[1] != -0.9 {
		t.Errorf("Latest copied %g at index 1, want -0.9", dst[1])
	}
	if got := tap.Peak(); math.Abs(got-0.9) > 1e-6 {
		t.Errorf("Peak = %g, want 0.9", got)
	}

	var nilTap *Tap
	if nilTap.Latest(dst) != 0 || nilTap.Peak() != 0 {
		t.Error("nil tap accessors not safe")
	}
}
