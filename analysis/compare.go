package analysis

import (
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-dsp/dsp/window"
	algofft "github.com/cwbudde/algo-fft"
)

// Metrics contains distance and similarity measurements between two
// audio signals, typically a reference reverb tail and a candidate
// render.
type Metrics struct {
	SampleRate int `json:"sample_rate"`

	ReferenceFrames int `json:"reference_frames"`
	CandidateFrames int `json:"candidate_frames"`
	AlignedFrames   int `json:"aligned_frames"`

	EnvelopeRMSEDB float64 `json:"envelope_rmse_db"`
	SpectralRMSEDB float64 `json:"spectral_rmse_db"`
	RefDecayS      float64 `json:"ref_decay_s"`
	CandDecayS     float64 `json:"cand_decay_s"`
	DecayDiffS     float64 `json:"decay_diff_s"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

const (
	compareFFTSize = 2048
	compareHop     = 1024
)

// Compare returns objective distance metrics and a combined score,
// lower is better; Similarity is 1/(1+Score).
func Compare(reference, candidate []float64, sampleRate int) Metrics {
	m := Metrics{
		SampleRate:      sampleRate,
		ReferenceFrames: len(reference),
		CandidateFrames: len(candidate),
	}
	if sampleRate <= 0 || len(reference) == 0 || len(candidate) == 0 {
		m.Score = 1.0
		return m
	}

	ref := trimLeadingSilence(reference, 1e-6)
	cand := trimLeadingSilence(candidate, 1e-6)
	if len(ref) == 0 || len(cand) == 0 {
		m.Score = 1.0
		return m
	}

	ref = normalizeRMS(ref, 0.1)
	cand = normalizeRMS(cand, 0.1)

	n := len(ref)
	if len(cand) < n {
		n = len(cand)
	}
	m.AlignedFrames = n

	envWindow := sampleRate / 100
	if envWindow < 1 {
		envWindow = 1
	}
	m.EnvelopeRMSEDB = rmse(EnvelopeDB(ref[:n], envWindow), EnvelopeDB(cand[:n], envWindow))
	m.SpectralRMSEDB = spectralRMSEDB(ref[:n], cand[:n])

	m.RefDecayS = EstimateDecayTime(ref, sampleRate)
	m.CandDecayS = EstimateDecayTime(cand, sampleRate)
	m.DecayDiffS = math.Abs(m.RefDecayS - m.CandDecayS)

	m.Score = 0.02*m.EnvelopeRMSEDB + 0.02*m.SpectralRMSEDB + 0.5*m.DecayDiffS
	m.Similarity = 1 / (1 + m.Score)
	return m
}

// spectralRMSEDB averages STFT magnitude spectra of both signals and
// returns the RMS difference in dB across bins.
func spectralRMSEDB(ref, cand []float64) float64 {
	if len(ref) < compareFFTSize || len(cand) < compareFFTSize {
		return 0
	}
	plan, err := algofft.NewPlanReal64(compareFFTSize)
	if err != nil {
		return 0
	}

	win := window.Generate(window.TypeHann, compareFFTSize, window.WithPeriodic())
	nBins := compareFFTSize / 2

	avgRef := make([]float64, nBins)
	avgCand := make([]float64, nBins)
	buf := make([]float64, compareFFTSize)
	spec := make([]complex128, compareFFTSize/2+1)

	accumulate := func(x []float64, avg []float64) int {
		frames := 0
		for pos := 0; pos+compareFFTSize <= len(x); pos += compareHop {
			for i := 0; i < compareFFTSize; i++ {
				buf[i] = x[pos+i] * win[i]
			}
			plan.Forward(spec, buf)
			for k := 1; k < nBins; k++ {
				avg[k] += cmplx.Abs(spec[k])
			}
			frames++
		}
		return frames
	}

	nRef := accumulate(ref, avgRef)
	nCand := accumulate(cand, avgCand)
	if nRef == 0 || nCand == 0 {
		return 0
	}

	// Skip bins where both spectra sit below the -120 dB floor.
	floor := DBToLin(-120)
	var sum float64
	count := 0
	for k := 1; k < nBins; k++ {
		refMag := avgRef[k] / float64(nRef)
		candMag := avgCand[k] / float64(nCand)
		if refMag < floor && candMag < floor {
			continue
		}
		d := LinToDB(refMag) - LinToDB(candMag)
		sum += d * d
		count++
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(count))
}

func trimLeadingSilence(x []float64, threshold float64) []float64 {
	for i, v := range x {
		if math.Abs(v) > threshold {
			return x[i:]
		}
	}
	return nil
}

func normalizeRMS(x []float64, target float64) []float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(x)))
	if rms <= 0 {
		return x
	}
	out := make([]float64, len(x))
	scale := target / rms
	for i, v := range x {
		out[i] = v * scale
	}
	return out
}

func rmse(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}
