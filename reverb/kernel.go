package reverb

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/delay"
)

// Kernel is the per-sample reverberation core. It owns one tank per
// algorithm variant plus a shared pre-delay line; Process advances
// only the tank selected by the last Update. Inactive tanks keep their
// buffer history frozen, so switching algorithms mid-stream resumes
// whatever state the newly active tank last held.
//
// All buffers are sized for a fixed sample rate at construction.
// Changing the sample rate requires a new Kernel.
type Kernel struct {
	sampleRate float64
	algorithm  Algorithm

	pre       *delay.Line
	preOffset int

	fdn4 fdn4State
	comb combState
	fdn8 fdn8State
}

// NewKernel allocates all delay lines for the given sample rate.
func NewKernel(sampleRate int) (*Kernel, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0: %d", sampleRate)
	}
	k := &Kernel{
		sampleRate: float64(sampleRate),
		algorithm:  DefaultAlgorithm,
	}

	// Pre-delay buffer holds at least one second of signal.
	pre, err := delay.New(sampleRate + 1)
	if err != nil {
		return nil, err
	}
	k.pre = pre

	if err := k.fdn4.init(sampleRate); err != nil {
		return nil, err
	}
	if err := k.comb.init(sampleRate); err != nil {
		return nil, err
	}
	if err := k.fdn8.init(sampleRate); err != nil {
		return nil, err
	}

	p := NewDefaultParams()
	k.Update(&p)
	return k, nil
}

// Update applies a parameter snapshot. Called once per block with
// already-smoothed values; it derives feedback gains, damping
// coefficients and the pre-delay read offset.
func (k *Kernel) Update(p *Params) {
	alg := p.Algorithm
	if alg < 0 || alg >= numAlgorithms {
		alg = DefaultAlgorithm
	}
	k.algorithm = alg

	offset := int(math.Floor(p.PreDelay * k.sampleRate))
	maxOffset := k.pre.Len() - 1
	if offset < 0 {
		offset = 0
	}
	if offset > maxOffset {
		offset = maxOffset
	}
	k.preOffset = offset

	k.fdn4.update(p, k.sampleRate)
	k.comb.update(p, k.sampleRate)
	k.fdn8.update(p, k.sampleRate)
}

// Process consumes one input sample and produces a stereo pair.
func (k *Kernel) Process(in float64) (left, right float64) {
	k.pre.Write(in)
	d := k.pre.Read(k.preOffset + 1)

	switch k.algorithm {
	case AlgorithmComb:
		return k.comb.process(d)
	case AlgorithmFDN8:
		return k.fdn8.process(d)
	default:
		return k.fdn4.process(d)
	}
}

// Reset clears every tank and the pre-delay line.
func (k *Kernel) Reset() {
	k.pre.Reset()
	k.fdn4.reset()
	k.comb.reset()
	k.fdn8.reset()
}

// Algorithm returns the currently active variant.
func (k *Kernel) Algorithm() Algorithm {
	return k.algorithm
}

// feedbackGain derives a per-pass feedback gain from the classic
// -60 dB per RT60 criterion: g = 10^(-3*L / (RT60*fs)). RT60 is
// clamped to MinReverbDuration, so 0 < g < 1 for every valid line
// length.
func feedbackGain(length int, rt60, sampleRate float64) float64 {
	if rt60 < MinReverbDuration {
		rt60 = MinReverbDuration
	}
	return math.Pow(10, -3.0*float64(length)/(rt60*sampleRate))
}
