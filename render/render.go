// Package render executes the live signal topology as a deterministic
// batch job against a finite input buffer.
package render

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-reverb/reverb"
)

// TailGuardSeconds is the fixed margin appended after the nominal RT60
// tail so the decay is fully captured.
const TailGuardSeconds = 0.5

const renderBlockSize = 128

// Buffer is a completed offline render: interleaved stereo float
// samples, immutable once returned.
type Buffer struct {
	Data        []float32
	NumChannels int
	SampleRate  int
}

// Frames returns the per-channel frame count.
func (b *Buffer) Frames() int {
	return len(b.Data) / b.NumChannels
}

// Render processes a decoded mono input through an isolated instance
// of the signal graph and returns the stereo result. The output length
// is inputDuration + RT60 + TailGuardSeconds, rounded up to whole
// samples. Parameters apply without smoothing ramp-in, and a bypassed
// snapshot skips the dry/wet paths entirely, leaving only the bypass
// and master gains.
//
// Render shares no state with live sessions; a concurrent engine is
// unaffected.
func Render(input []float64, p reverb.Params, sampleRate int) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("render sample rate must be > 0: %d", sampleRate)
	}
	p.Clamp()

	fs := float64(sampleRate)
	tail := int(math.Ceil((p.ReverbDuration + TailGuardSeconds) * fs))
	total := len(input) + tail

	out := &Buffer{
		Data:        make([]float32, total*2),
		NumChannels: 2,
		SampleRate:  sampleRate,
	}

	if p.Bypass {
		master := float32(p.MasterGain)
		for i, v := range input {
			s := float32(v) * master
			out.Data[2*i] = s
			out.Data[2*i+1] = s
		}
		return out, nil
	}

	graph, err := reverb.NewGraph(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("render graph: %w", err)
	}
	graph.ApplyImmediate(&p)

	inBlock := make([]float32, renderBlockSize)
	outBlock := make([]float32, renderBlockSize*2)

	for pos := 0; pos < total; pos += renderBlockSize {
		n := renderBlockSize
		if pos+n > total {
			n = total - pos
		}
		for i := 0; i < n; i++ {
			if pos+i < len(input) {
				inBlock[i] = float32(input[pos+i])
			} else {
				inBlock[i] = 0
			}
		}
		graph.ProcessBlock(inBlock[:n], outBlock[:2*n])
		copy(out.Data[2*pos:2*(pos+n)], outBlock[:2*n])
	}
	return out, nil
}
