package reverb

import "github.com/cwbudde/algo-approx"

// DefaultSmoothingTau is the time constant for control-value smoothing.
const DefaultSmoothingTau = 0.05 // seconds

// Smoothed pairs a target control value with the currently applied
// value, which approaches the target with a first-order exponential
// lag. Smoothing keeps gain changes free of audible steps; the only
// caller allowed to skip it is the safety mute, via Set.
type Smoothed struct {
	value  float64
	target float64
}

// NewSmoothed returns a Smoothed already settled at v.
func NewSmoothed(v float64) Smoothed {
	return Smoothed{value: v, target: v}
}

// SetTarget records a new goal without touching the applied value.
func (s *Smoothed) SetTarget(v float64) {
	s.target = v
}

// Set applies v instantaneously, bypassing smoothing.
func (s *Smoothed) Set(v float64) {
	s.value = v
	s.target = v
}

// Tick advances the applied value one step toward the target using the
// given coefficient (see SmoothingCoeff) and returns it.
func (s *Smoothed) Tick(coeff float64) float64 {
	s.value += (s.target - s.value) * coeff
	return s.value
}

// Value returns the currently applied value.
func (s *Smoothed) Value() float64 {
	return s.value
}

// Target returns the current goal value.
func (s *Smoothed) Target() float64 {
	return s.target
}

// SmoothingCoeff computes the per-tick coefficient 1-e^(-dt/tau) for a
// tick interval dt. The applied value converges to within 1% of the
// target after roughly 5*tau of elapsed time regardless of dt. Runs
// once per processed block, so it uses the fast exp approximation.
func SmoothingCoeff(dt, tau float64) float64 {
	if tau <= 0 || dt <= 0 {
		return 1
	}
	return clamp(1-float64(approx.FastExp(float32(-dt/tau))), 0, 1)
}
