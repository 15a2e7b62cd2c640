package reverb

import "math"

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// flushDenormal zeroes values small enough to force denormal math in
// feedback loops.
func flushDenormal(x float64) float64 {
	if math.Abs(x) < 1e-23 {
		return 0
	}
	return x
}

// scaleLength rescales a delay tuning calibrated at 44.1 kHz to the
// operating sample rate.
func scaleLength(base int, sampleRate int) int {
	n := int(math.Round(float64(base) * float64(sampleRate) / 44100.0))
	if n < 2 {
		n = 2
	}
	return n
}
