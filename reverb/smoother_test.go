package reverb

import (
	"math"
	"testing"
)

func TestSmoothedStepResponse(t *testing.T) {
	const (
		dt  = 0.001
		tau = DefaultSmoothingTau
	)
	coeff := SmoothingCoeff(dt, tau)

	s := NewSmoothed(0)
	s.SetTarget(1)

	prev := s.Value()
	var at2Tau, at5Tau float64
	steps := int(5 * tau / dt)
	for i := 1; i <= steps; i++ {
		v := s.Tick(coeff)
		if v < prev {
			t.Fatalf("step %d: value %g regressed below %g", i, v, prev)
		}
		if v > 1 {
			t.Fatalf("step %d: value %g overshot the target", i, v)
		}
		prev = v
		if i == int(2*tau/dt) {
			at2Tau = v
		}
	}
	at5Tau = s.Value()

	if at2Tau >= 0.99 {
		t.Errorf("reached %g at 2*tau, expected the lag to still be visible", at2Tau)
	}
	if at5Tau < 0.99 {
		t.Errorf("only reached %g after 5*tau, want >= 0.99", at5Tau)
	}
}

func TestSmoothedSetIsImmediate(t *testing.T) {
	s := NewSmoothed(0.7)
	s.SetTarget(0.2)
	if s.Value() != 0.7 {
		t.Fatalf("SetTarget changed the applied value to %g", s.Value())
	}

	s.Set(0)
	if s.Value() != 0 || s.Target() != 0 {
		t.Errorf("Set(0) left value=%g target=%g", s.Value(), s.Target())
	}
	if got := s.Tick(0.5); got != 0 {
		t.Errorf("Tick after Set(0) moved to %g", got)
	}
}

func TestSmoothingCoeffTracksExactExponential(t *testing.T) {
	for _, dt := range []float64{1.0 / 48000, 64.0 / 48000, 128.0 / 48000, 0.01} {
		want := 1 - math.Exp(-dt/DefaultSmoothingTau)
		got := SmoothingCoeff(dt, DefaultSmoothingTau)
		if math.Abs(got-want) > 0.02*want+1e-6 {
			t.Errorf("SmoothingCoeff(%g) = %g, want ~%g", dt, got, want)
		}
	}
}

func TestSmoothingCoeffDegenerateInputs(t *testing.T) {
	if got := SmoothingCoeff(0.001, 0); got != 1 {
		t.Errorf("tau=0: coeff = %g, want 1", got)
	}
	if got := SmoothingCoeff(0, 0.05); got != 1 {
		t.Errorf("dt=0: coeff = %g, want 1", got)
	}
	c := SmoothingCoeff(0.001, 0.05)
	if c <= 0 || c >= 1 {
		t.Errorf("coeff = %g, want in (0,1)", c)
	}
}
