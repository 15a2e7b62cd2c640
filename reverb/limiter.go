package reverb

import "sync/atomic"

// SafetyThreshold is the absolute output peak that trips the watchdog,
// 1.5x full scale (about +3.5 dBFS). Runaway acoustic feedback blows
// past this within a few blocks; ordinary program material does not.
const SafetyThreshold = 1.5

// SafetyLimiter is a best-effort feedback watchdog. It is polled from
// a low-priority control-plane timer, never from the audio path: each
// poll inspects the latest post-master block and, on overload, mutes
// the master gain instantaneously and raises a one-shot notification.
// A tripped limiter stays inert until Rearm.
type SafetyLimiter struct {
	threshold float64
	tripped   atomic.Bool

	tap    *Tap
	mute   func()
	notify func()
}

// NewSafetyLimiter wires the watchdog to a monitoring tap. mute is
// invoked exactly once per trip before notify; either callback may be
// nil. The tap may also be nil (graph not built yet); polling then
// does nothing.
func NewSafetyLimiter(tap *Tap, mute, notify func()) *SafetyLimiter {
	return &SafetyLimiter{
		threshold: SafetyThreshold,
		tap:       tap,
		mute:      mute,
		notify:    notify,
	}
}

// Poll samples the monitoring tap once. It returns true when the
// limiter is (or just became) tripped. Poll never panics and never
// blocks.
func (l *SafetyLimiter) Poll() bool {
	if l.tripped.Load() {
		return true
	}
	if l.tap.Peak() <= l.threshold {
		return false
	}
	if !l.tripped.CompareAndSwap(false, true) {
		return true
	}
	if l.mute != nil {
		l.mute()
	}
	if l.notify != nil {
		l.notify()
	}
	return true
}

// Tripped reports whether the limiter has fired since the last rearm.
func (l *SafetyLimiter) Tripped() bool {
	return l.tripped.Load()
}

// Rearm clears the tripped state so polling resumes. The caller is
// responsible for restoring the master gain.
func (l *SafetyLimiter) Rearm() {
	l.tripped.Store(false)
}
