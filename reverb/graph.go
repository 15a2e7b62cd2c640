package reverb

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

const butterworthQ = 0.70710678118654752440

// Graph wires the fixed processing topology around the kernel:
//
//	source ─┬─ dry gain ──────────────────────────┐
//	        ├─ highpass → lowpass → kernel → wet ──┼─ master → out
//	        └─ bypass gain ────────────────────────┘
//
// Blocks are mono float32 in, interleaved stereo float32 out. All gain
// transitions go through Smoothed values; the only instantaneous step
// is the safety mute.
type Graph struct {
	sampleRate float64
	kernel     *Kernel

	highpass  *biquad.Section
	lowpass   *biquad.Section
	lowCutHz  float64
	highCutHz float64

	dry    Smoothed
	wet    Smoothed
	bypass Smoothed
	master Smoothed

	muted atomic.Bool

	params Params
}

// NewGraph builds the topology for a fixed sample rate and settles the
// smoothers at the default parameter set.
func NewGraph(sampleRate int) (*Graph, error) {
	kernel, err := NewKernel(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("build kernel: %w", err)
	}

	p := NewDefaultParams()
	g := &Graph{
		sampleRate: float64(sampleRate),
		kernel:     kernel,
		highpass:   biquad.NewSection(design.Highpass(p.LowCutHz, butterworthQ, float64(sampleRate))),
		lowpass:    biquad.NewSection(design.Lowpass(p.HighCutHz, butterworthQ, float64(sampleRate))),
		lowCutHz:   p.LowCutHz,
		highCutHz:  p.HighCutHz,
	}
	g.ApplyImmediate(&p)
	return g, nil
}

// Apply ingests a parameter snapshot by moving smoother targets.
// Bypass is mutually exclusive with the dry/wet paths: engaging it
// ramps dry and wet to zero and the bypass gain to unity; clearing it
// restores the last user-set gains.
func (g *Graph) Apply(p *Params) {
	g.params = *p
	if p.Bypass {
		g.dry.SetTarget(0)
		g.wet.SetTarget(0)
		g.bypass.SetTarget(1)
	} else {
		g.dry.SetTarget(p.DryGain)
		g.wet.SetTarget(p.WetGain)
		g.bypass.SetTarget(0)
	}
	g.master.SetTarget(p.MasterGain)

	g.kernel.Update(p)
	g.updateFilters(p.LowCutHz, p.HighCutHz)
}

// ApplyImmediate applies a snapshot without smoothing. Used at session
// start and by the offline renderer, where a ramp-in from silence
// would color the output.
func (g *Graph) ApplyImmediate(p *Params) {
	g.Apply(p)
	g.dry.Set(g.dry.Target())
	g.wet.Set(g.wet.Target())
	g.bypass.Set(g.bypass.Target())
	g.master.Set(g.master.Target())
}

// updateFilters retunes the band-limit biquads in place, preserving
// filter state so cutoff moves do not click.
func (g *Graph) updateFilters(lowCut, highCut float64) {
	if math.Abs(lowCut-g.lowCutHz) > 1e-9 {
		g.highpass.Coefficients = design.Highpass(lowCut, butterworthQ, g.sampleRate)
		g.lowCutHz = lowCut
	}
	if math.Abs(highCut-g.highCutHz) > 1e-9 {
		g.lowpass.Coefficients = design.Lowpass(highCut, butterworthQ, g.sampleRate)
		g.highCutHz = highCut
	}
}

// ProcessBlock renders len(in) mono frames into len(in)*2 interleaved
// stereo frames. Gains tick once per block; the kernel runs per
// sample. No allocation on this path.
func (g *Graph) ProcessBlock(in []float32, out []float32) {
	n := len(in)
	if n == 0 || len(out) < 2*n {
		return
	}

	coeff := SmoothingCoeff(float64(n)/g.sampleRate, DefaultSmoothingTau)
	dryG := g.dry.Tick(coeff)
	wetG := g.wet.Tick(coeff)
	bypG := g.bypass.Tick(coeff)
	masterG := g.master.Tick(coeff)
	if g.muted.Load() {
		// Safety mute bypasses smoothing entirely.
		g.master.Set(0)
		masterG = 0
	}

	for i := 0; i < n; i++ {
		x := float64(in[i])

		w := g.lowpass.ProcessSample(g.highpass.ProcessSample(x))
		l, r := g.kernel.Process(w)

		mixL := (x*dryG + l*wetG + x*bypG) * masterG
		mixR := (x*dryG + r*wetG + x*bypG) * masterG
		out[2*i] = float32(mixL)
		out[2*i+1] = float32(mixR)
	}
}

// ForceMute zeroes the master gain without smoothing, effective at the
// next processed block. Only the safety limiter calls this.
func (g *Graph) ForceMute() {
	g.muted.Store(true)
}

// Unmute clears the safety mute; the master gain then smooths back to
// its parameter target.
func (g *Graph) Unmute() {
	g.muted.Store(false)
	g.master.SetTarget(g.params.MasterGain)
}

// Muted reports whether the safety mute is engaged.
func (g *Graph) Muted() bool {
	return g.muted.Load()
}

// Kernel exposes the graph's reverb core.
func (g *Graph) Kernel() *Kernel {
	return g.kernel
}
