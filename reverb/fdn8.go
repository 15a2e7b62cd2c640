package reverb

import "github.com/cwbudde/algo-dsp/dsp/delay"

// Prime delay tunings at 44.1 kHz for the eight-line network.
var fdn8Tunings = [8]int{1031, 1151, 1279, 1409, 1523, 1657, 1789, 1931}

// hiDampingScale maps the HiDamping control onto the feedback gain
// reduction. Kept below 1 so the damped gain stays positive.
const hiDampingScale = 0.3

// fdn8State is the eight-line feedback delay network. Unlike the
// four-line tank it has no filter state inside the loop: damping is
// folded into the feedback gains, AirAmount scales the Householder
// cross-mix term, and EarlyLateBalance blends the tank output against
// the pre-delayed dry tap.
type fdn8State struct {
	lines [8]*delay.Line
	lens  [8]int
	gains [8]float64

	air     float64
	balance float64
}

func (s *fdn8State) init(sampleRate int) error {
	for i, base := range fdn8Tunings {
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

func (s *fdn8State) update(p *Params, sampleRate float64) {
	damp := 1 - p.HiDamping*hiDampingScale
	for i, n := range s.lens {
		s.gains[i] = feedbackGain(n, p.ReverbDuration, sampleRate) * damp
	}
	s.air = p.AirAmount
	s.balance = p.EarlyLateBalance
}

func (s *fdn8State) process(in float64) (left, right float64) {
	var outs [8]float64
	var sum float64
	for i := range s.lines {
		outs[i] = s.lines[i].Read(s.lens[i])
		sum += outs[i]
	}

	// Householder mix for N=8 subtracts sum/4; AirAmount thins the
	// cross-feedback without touching the per-line recirculation.
	cross := s.air * 0.25 * sum
	for i := range s.lines {
		s.lines[i].Write(flushDenormal(in + s.gains[i]*(outs[i]-cross)))
	}

	tankL := 0.25 * (outs[0] + outs[2] + outs[4] + outs[6])
	tankR := 0.25 * (outs[1] + outs[3] + outs[5] + outs[7])

	left = s.balance*tankL + (1-s.balance)*in
	right = s.balance*tankR + (1-s.balance)*in
	return left, right
}

func (s *fdn8State) reset() {
	for i := range s.lines {
		s.lines[i].Reset()
	}
}
