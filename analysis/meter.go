// Package analysis provides metering and objective distance
// measurements for rendered and monitored audio.
package analysis

import (
	"math"

	"github.com/cwbudde/algo-approx"
)

// Peak returns the absolute peak of a monitored block.
func Peak(samples []float32) float64 {
	var peak float64
	for _, s := range samples {
		if v := math.Abs(float64(s)); v > peak {
			peak = v
		}
	}
	return peak
}

// RMS returns the root-mean-square level of a monitored block.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// DBToLin converts decibels to a linear factor using the fast exp
// approximation; accurate to well under metering tolerances.
func DBToLin(db float64) float64 {
	const ln10over20 = 0.11512925464970228
	return float64(approx.FastExp(float32(db * ln10over20)))
}

// LinToDB converts a linear level to decibels, with a floor for
// silence.
func LinToDB(v float64) float64 {
	if v <= 1e-12 {
		return -240
	}
	return 20 * math.Log10(v)
}

// EnvelopeDB computes the windowed RMS envelope of a signal in dB.
// window is the length of each analysis window in samples.
func EnvelopeDB(samples []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	n := len(samples) / window
	env := make([]float64, 0, n)
	for i := 0; i+window <= len(samples); i += window {
		var sum float64
		for _, v := range samples[i : i+window] {
			sum += v * v
		}
		env = append(env, LinToDB(math.Sqrt(sum/float64(window))))
	}
	return env
}

// EstimateDecayTime estimates the RT60 of a decaying signal by fitting
// a line to the dB envelope between the peak and the usable range
// above the noise floor, then extrapolating to -60 dB. Returns 0 when
// no decay slope can be measured.
func EstimateDecayTime(samples []float64, sampleRate int) float64 {
	if sampleRate <= 0 || len(samples) == 0 {
		return 0
	}
	window := sampleRate / 100 // 10 ms
	if window < 1 {
		window = 1
	}
	env := EnvelopeDB(samples, window)
	if len(env) < 3 {
		return 0
	}

	peakIdx := 0
	for i, v := range env {
		if v > env[peakIdx] {
			peakIdx = i
		}
	}
	peakDB := env[peakIdx]

	// Fit over the stretch that has decayed between 5 and 45 dB below
	// the peak, the usual usable region before the noise floor.
	var n, sx, sy, sxx, sxy float64
	for i := peakIdx; i < len(env); i++ {
		drop := peakDB - env[i]
		if drop < 5 {
			continue
		}
		if drop > 45 {
			break
		}
		x := float64(i-peakIdx) * float64(window) / float64(sampleRate)
		y := env[i]
		n++
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	if n < 2 {
		return 0
	}
	denom := n*sxx - sx*sx
	if denom == 0 {
		return 0
	}
	slope := (n*sxy - sx*sy) / denom // dB per second, negative
	if slope >= -1e-9 {
		return 0
	}
	return -60 / slope
}
