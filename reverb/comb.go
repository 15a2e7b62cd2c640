package reverb

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/delay"
)

// Freeverb comb tunings at 44.1 kHz; the right channel reads slightly
// longer lines for stereo decorrelation.
var combTunings = [4]int{1116, 1188, 1277, 1356}

const combStereoSpread = 23

// combState is a bank of four parallel feedback combs per channel.
// RoomSize scales the effective read length of every comb and Density
// scales the RT60-derived feedback, so low density decays faster than
// the nominal RT60. There is no damping filter inside the loop; tone
// shaping is left to the surrounding band-limit filters.
type combState struct {
	left  [4]*delay.Line
	right [4]*delay.Line

	baseLeft  [4]int
	baseRight [4]int

	effLeft  [4]int
	effRight [4]int

	fbLeft  [4]float64
	fbRight [4]float64
}

func (s *combState) init(sampleRate int) error {
	spread := scaleLength(combStereoSpread, sampleRate)
	for i, base := range combTunings {
		l := scaleLength(base, sampleRate)
		r := l + spread

		// Buffers sized for the maximum room scale.
		lineL, err := delay.New(int(math.Ceil(float64(l)*maxRoomSize)) + 2)
		if err != nil {
			return err
		}
		lineR, err := delay.New(int(math.Ceil(float64(r)*maxRoomSize)) + 2)
		if err != nil {
			return err
		}

		s.left[i] = lineL
		s.right[i] = lineR
		s.baseLeft[i] = l
		s.baseRight[i] = r
		s.effLeft[i] = l
		s.effRight[i] = r
	}
	return nil
}

func (s *combState) update(p *Params, sampleRate float64) {
	for i := range combTunings {
		s.effLeft[i] = effectiveCombLength(s.baseLeft[i], p.RoomSize, s.left[i].Len())
		s.effRight[i] = effectiveCombLength(s.baseRight[i], p.RoomSize, s.right[i].Len())

		s.fbLeft[i] = feedbackGain(s.effLeft[i], p.ReverbDuration, sampleRate) * p.Density
		s.fbRight[i] = feedbackGain(s.effRight[i], p.ReverbDuration, sampleRate) * p.Density
	}
}

func effectiveCombLength(base int, roomSize float64, bufLen int) int {
	n := int(math.Round(float64(base) * roomSize))
	if n < 2 {
		n = 2
	}
	if n > bufLen {
		n = bufLen
	}
	return n
}

func (s *combState) process(in float64) (left, right float64) {
	var sumL, sumR float64
	for i := range s.left {
		outL := s.left[i].Read(s.effLeft[i])
		s.left[i].Write(flushDenormal(in + s.fbLeft[i]*outL))
		sumL += outL

		outR := s.right[i].Read(s.effRight[i])
		s.right[i].Write(flushDenormal(in + s.fbRight[i]*outR))
		sumR += outR
	}
	return sumL * 0.25, sumR * 0.25
}

func (s *combState) reset() {
	for i := range s.left {
		s.left[i].Reset()
		s.right[i].Reset()
	}
}
