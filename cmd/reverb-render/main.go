// Command reverb-render runs the offline renderer: it decodes an input
// WAV (or synthesizes a unit impulse), processes it through the reverb
// graph with a preset, and writes the stereo result as a 16-bit PCM
// WAV artifact.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-reverb/preset"
	"github.com/cwbudde/algo-reverb/render"
	"github.com/cwbudde/algo-reverb/reverb"
	"github.com/cwbudde/algo-reverb/wavio"
)

func main() {
	inputPath := flag.String("input", "", "Input WAV path (empty renders a unit impulse)")
	impulseLen := flag.Float64("impulse-duration", 0.1, "Impulse input duration in seconds when no -input is given")
	presetPath := flag.String("preset", "", "Preset JSON file path (optional)")
	output := flag.String("output", "output.wav", "Output WAV file path")
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")

	rt60 := flag.Float64("rt60", -1, "Reverb duration override in seconds (RT60)")
	algorithm := flag.String("algorithm", "", "Algorithm override: fdn4|comb|fdn8")
	wet := flag.Float64("wet", -1, "Wet gain override")
	dry := flag.Float64("dry", -1, "Dry gain override")
	preDelay := flag.Float64("predelay", -1, "Pre-delay override in seconds")
	bypass := flag.Bool("bypass", false, "Render with the bypass path engaged")
	flag.Parse()

	params := reverb.NewDefaultParams()
	if *presetPath != "" {
		var err error
		params, err = preset.Load(*presetPath)
		if err != nil {
			die("failed to load preset %q: %v", *presetPath, err)
		}
	}
	if *rt60 >= 0 {
		params.ReverbDuration = *rt60
	}
	if *algorithm != "" {
		params.Algorithm = reverb.ParseAlgorithm(*algorithm)
	}
	if *wet >= 0 {
		params.WetGain = *wet
	}
	if *dry >= 0 {
		params.DryGain = *dry
	}
	if *preDelay >= 0 {
		params.PreDelay = *preDelay
	}
	params.Bypass = params.Bypass || *bypass
	params.Clamp()

	var input []float64
	if *inputPath != "" {
		samples, rate, err := wavio.ReadMono(*inputPath)
		if err != nil {
			die("failed to read input %q: %v", *inputPath, err)
		}
		input, err = wavio.ResampleIfNeeded(samples, rate, *sampleRate)
		if err != nil {
			die("failed to resample input: %v", err)
		}
		fmt.Printf("Input: %s (%d frames at %d Hz)\n", *inputPath, len(input), *sampleRate)
	} else {
		n := int(*impulseLen * float64(*sampleRate))
		if n < 1 {
			n = 1
		}
		input = make([]float64, n)
		input[0] = 1.0
		fmt.Printf("Input: unit impulse (%d frames)\n", n)
	}

	fmt.Printf("Rendering with algorithm %s, RT60 %.2fs at %d Hz...\n",
		params.Algorithm, params.ReverbDuration, *sampleRate)

	buf, err := render.Render(input, params, *sampleRate)
	if err != nil {
		die("render failed: %v", err)
	}

	if err := wavio.EncodeFile(*output, buf.Data, buf.NumChannels, buf.SampleRate); err != nil {
		die("failed to write %q: %v", *output, err)
	}
	fmt.Printf("Successfully wrote %s (%d frames)\n", *output, buf.Frames())
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
