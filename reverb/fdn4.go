package reverb

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/delay"
)

// Near-prime delay tunings calibrated at 44.1 kHz; prime lengths avoid
// resonant coupling between lines.
var fdn4Tunings = [4]int{1123, 1259, 1511, 1733}

// fdn4State is the four-line feedback delay network. The four lines
// are cross-coupled through a Householder mix (subtract sum/2 from
// each line before re-injection), which preserves energy, and each
// line carries a one-pole lowpass that absorbs high frequencies
// faster than the nominal RT60.
type fdn4State struct {
	lines [4]*delay.Line
	lens  [4]int
	gains [4]float64

	lowpass   [4]float64
	dampCoeff float64

	// Spin/wander oscillator. The phase advances and the wander value
	// is computed every sample, but it is not applied to any delay
	// read offset yet.
	// TODO: apply wander to the line read offsets once the detune
	// behavior is decided.
	lfoPhase    float64
	lfoStep     float64
	wanderDepth float64
	wander      float64
}

func (s *fdn4State) init(sampleRate int) error {
	for i, base := range fdn4Tunings {
		n := scaleLength(base, sampleRate)
		line, err := delay.New(n)
		if err != nil {
			return err
		}
		s.lines[i] = line
		s.lens[i] = n
	}
	return nil
}

func (s *fdn4State) update(p *Params, sampleRate float64) {
	for i, n := range s.lens {
		s.gains[i] = feedbackGain(n, p.ReverbDuration, sampleRate)
	}
	s.dampCoeff = math.Min(0.95, 1.0/p.BassMultiplier)
	s.lfoStep = 2 * math.Pi * p.SpinRate / sampleRate
	s.wanderDepth = p.WanderDepth
}

func (s *fdn4State) process(in float64) (left, right float64) {
	var outs [4]float64
	var sum float64
	for i := range s.lines {
		outs[i] = s.lines[i].Read(s.lens[i])
		sum += outs[i]
	}

	s.lfoPhase += s.lfoStep
	if s.lfoPhase > 2*math.Pi {
		s.lfoPhase -= 2 * math.Pi
	}
	s.wander = s.wanderDepth * math.Sin(s.lfoPhase)

	c := s.dampCoeff
	for i := range s.lines {
		x := in + s.gains[i]*(outs[i]-0.5*sum)
		s.lowpass[i] = flushDenormal((1-c)*x + c*s.lowpass[i])
		s.lines[i].Write(s.lowpass[i])
	}

	left = 0.5 * (outs[0] + outs[2])
	right = 0.5 * (outs[1] + outs[3])
	return left, right
}

func (s *fdn4State) reset() {
	for i := range s.lines {
		s.lines[i].Reset()
		s.lowpass[i] = 0
	}
	s.lfoPhase = 0
	s.wander = 0
}
