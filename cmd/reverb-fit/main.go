// Command reverb-fit searches for reverb parameters whose impulse
// response best matches a reference tail, using seeded Mayfly
// optimization rounds over normalized candidate vectors.
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/cwbudde/algo-reverb/analysis"
	"github.com/cwbudde/algo-reverb/preset"
	"github.com/cwbudde/algo-reverb/render"
	"github.com/cwbudde/algo-reverb/reverb"
	"github.com/cwbudde/algo-reverb/wavio"
	"github.com/cwbudde/mayfly"
)

type knobDef struct {
	Name string
	Min  float64
	Max  float64
}

func main() {
	referencePath := flag.String("reference", "reference/tail.wav", "Reference WAV path")
	presetPath := flag.String("preset", "", "Base preset JSON path (optional)")
	outputPreset := flag.String("output-preset", "fitted.json", "Path to write the best fitted preset")
	outputIR := flag.String("output-ir", "", "Optional path to write the best impulse response WAV")
	algorithm := flag.String("algorithm", "fdn4", "Algorithm to fit: fdn4|comb|fdn8")
	sampleRate := flag.Int("sample-rate", 48000, "Render/analysis sample rate")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 60.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 2000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 20, "Print progress every N evaluations")

	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 200, "Target eval budget per Mayfly round")
	flag.Parse()

	if *maxEvals < 1 {
		die("max-evals must be >= 1")
	}
	if *mayflyPop < 2 {
		*mayflyPop = 2
	}
	if *mayflyRoundEvals < *mayflyPop*2 {
		*mayflyRoundEvals = *mayflyPop * 2
	}

	baseParams := reverb.NewDefaultParams()
	if *presetPath != "" {
		var err error
		baseParams, err = preset.Load(*presetPath)
		if err != nil {
			die("failed to load preset: %v", err)
		}
	}
	baseParams.Algorithm = reverb.ParseAlgorithm(*algorithm)
	// Fit the pure tail: the reference is assumed to be wet-only.
	baseParams.WetGain = 1.0
	baseParams.DryGain = 0.0
	baseParams.Bypass = false

	ref, refSR, err := wavio.ReadMono(*referencePath)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	ref, err = wavio.ResampleIfNeeded(ref, refSR, *sampleRate)
	if err != nil {
		die("failed to resample reference: %v", err)
	}

	defs := knobDefs(baseParams.Algorithm)
	impulse := make([]float64, *sampleRate/10)
	impulse[0] = 1.0

	evaluate := func(vals []float64) (analysis.Metrics, reverb.Params, *render.Buffer, error) {
		params := applyKnobs(baseParams, defs, vals)
		buf, err := render.Render(impulse, params, *sampleRate)
		if err != nil {
			return analysis.Metrics{}, params, nil, err
		}
		mono := stereoToMono(buf.Data)
		return analysis.Compare(ref, mono, *sampleRate), params, buf, nil
	}

	start := time.Now()
	deadline := start.Add(time.Duration(*timeBudget * float64(time.Second)))
	evals := 0

	best := initialKnobs(baseParams, defs)
	bestM, bestParams, bestBuf, err := evaluate(best)
	if err != nil {
		die("initial evaluation failed: %v", err)
	}
	evals++
	fmt.Printf("Start score=%.4f similarity=%.2f%%\n", bestM.Score, bestM.Similarity*100.0)

	round := 0
	for evals < *maxEvals && time.Now().Before(deadline) {
		round++
		remaining := *maxEvals - evals
		budget := minInt(*mayflyRoundEvals, remaining)
		iters := maxInt(1, budget/(2*(*mayflyPop)))

		cfg, err := newMayflyConfig(strings.ToLower(*mayflyVariant), *mayflyPop, len(defs), iters)
		if err != nil {
			die("invalid mayfly variant: %v", err)
		}
		cfg.Rand = rand.New(rand.NewSource(*seed + int64(round)*7919))

		cfg.ObjectiveFunc = func(pos []float64) float64 {
			if evals >= *maxEvals || time.Now().After(deadline) {
				return bestM.Score + 1.0
			}
			vals := fromNormalized(pos, defs)
			m, params, buf, err := evaluate(vals)
			evals++
			if err != nil {
				return bestM.Score + 0.8
			}
			if m.Score < bestM.Score {
				best = vals
				bestM = m
				bestParams = params
				bestBuf = buf
				fmt.Printf("Improved eval=%d score=%.4f sim=%.2f%% rt60=%.2fs\n",
					evals, bestM.Score, bestM.Similarity*100.0, params.ReverbDuration)
			}
			if evals%*reportEvery == 0 {
				fmt.Printf("Progress round=%d eval=%d elapsed=%.1fs best=%.4f\n",
					round, evals, time.Since(start).Seconds(), bestM.Score)
			}
			return m.Score
		}

		if _, err := runMayfly(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "mayfly round %d failed: %v\n", round, err)
			continue
		}
	}

	if err := preset.Save(*outputPreset, bestParams); err != nil {
		die("failed to write preset: %v", err)
	}
	fmt.Printf("Wrote %s (score=%.4f, %d evals, %.1fs)\n",
		*outputPreset, bestM.Score, evals, time.Since(start).Seconds())

	if *outputIR != "" && bestBuf != nil {
		if err := wavio.EncodeFile(*outputIR, bestBuf.Data, bestBuf.NumChannels, bestBuf.SampleRate); err != nil {
			die("failed to write IR: %v", err)
		}
		fmt.Printf("Wrote %s\n", *outputIR)
	}
}

// knobDefs lists the tunable controls for the selected algorithm.
func knobDefs(alg reverb.Algorithm) []knobDef {
	defs := []knobDef{
		{Name: "reverb_duration_s", Min: 0.1, Max: 10.0},
		{Name: "pre_delay_s", Min: 0.0, Max: 0.2},
	}
	switch alg {
	case reverb.AlgorithmComb:
		defs = append(defs,
			knobDef{Name: "density", Min: 0.0, Max: 1.0},
			knobDef{Name: "room_size", Min: 0.1, Max: 2.0},
		)
	case reverb.AlgorithmFDN8:
		defs = append(defs,
			knobDef{Name: "air_amount", Min: 0.0, Max: 1.0},
			knobDef{Name: "early_late_balance", Min: 0.0, Max: 1.0},
			knobDef{Name: "hi_damping", Min: 0.0, Max: 1.0},
		)
	default:
		defs = append(defs,
			knobDef{Name: "bass_multiplier", Min: 0.1, Max: 4.0},
		)
	}
	return defs
}

func applyKnobs(base reverb.Params, defs []knobDef, vals []float64) reverb.Params {
	p := base
	for i, def := range defs {
		if i >= len(vals) {
			break
		}
		v := vals[i]
		switch def.Name {
		case "reverb_duration_s":
			p.ReverbDuration = v
		case "pre_delay_s":
			p.PreDelay = v
		case "density":
			p.Density = v
		case "room_size":
			p.RoomSize = v
		case "air_amount":
			p.AirAmount = v
		case "early_late_balance":
			p.EarlyLateBalance = v
		case "hi_damping":
			p.HiDamping = v
		case "bass_multiplier":
			p.BassMultiplier = v
		}
	}
	p.Clamp()
	return p
}

func initialKnobs(base reverb.Params, defs []knobDef) []float64 {
	vals := make([]float64, len(defs))
	for i, def := range defs {
		switch def.Name {
		case "reverb_duration_s":
			vals[i] = base.ReverbDuration
		case "pre_delay_s":
			vals[i] = base.PreDelay
		case "density":
			vals[i] = base.Density
		case "room_size":
			vals[i] = base.RoomSize
		case "air_amount":
			vals[i] = base.AirAmount
		case "early_late_balance":
			vals[i] = base.EarlyLateBalance
		case "hi_damping":
			vals[i] = base.HiDamping
		case "bass_multiplier":
			vals[i] = base.BassMultiplier
		}
	}
	return vals
}

func fromNormalized(pos []float64, defs []knobDef) []float64 {
	vals := make([]float64, len(defs))
	for i := range defs {
		x := 0.0
		if i < len(pos) {
			x = math.Min(math.Max(pos[i], 0), 1)
		}
		vals[i] = defs[i].Min + x*(defs[i].Max-defs[i].Min)
	}
	return vals
}

func newMayflyConfig(variant string, pop, dims, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = maxInt(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}

func stereoToMono(interleaved []float32) []float64 {
	n := len(interleaved) / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = 0.5 * (float64(interleaved[2*i]) + float64(interleaved[2*i+1]))
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
