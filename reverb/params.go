package reverb

// Algorithm selects which reverb tank processes the wet path.
type Algorithm int

const (
	// AlgorithmFDN4 is a four-line feedback delay network with an
	// energy-preserving cross-mix and per-line damping filters.
	AlgorithmFDN4 Algorithm = iota
	// AlgorithmComb is a stereo bank of parallel feedback combs.
	AlgorithmComb
	// AlgorithmFDN8 is an eight-line feedback delay network with
	// damping folded into the feedback gains.
	AlgorithmFDN8

	numAlgorithms
)

// DefaultAlgorithm is used whenever an unknown selector arrives.
const DefaultAlgorithm = AlgorithmFDN4

func (a Algorithm) String() string {
	switch a {
	case AlgorithmFDN4:
		return "fdn4"
	case AlgorithmComb:
		return "comb"
	case AlgorithmFDN8:
		return "fdn8"
	}
	return "unknown"
}

// ParseAlgorithm maps a preset string onto an Algorithm. Unknown names
// fall back to DefaultAlgorithm; selection is never an error.
func ParseAlgorithm(s string) Algorithm {
	switch s {
	case "fdn4":
		return AlgorithmFDN4
	case "comb":
		return AlgorithmComb
	case "fdn8":
		return AlgorithmFDN8
	}
	return DefaultAlgorithm
}

// Params holds the full control-plane parameter set. All numeric
// fields have closed valid ranges; out-of-range values are clamped on
// ingest, never rejected.
type Params struct {
	WetGain    float64
	DryGain    float64
	MasterGain float64

	LowCutHz  float64
	HighCutHz float64

	// ReverbDuration is the RT60 decay target in seconds.
	ReverbDuration float64
	// PreDelay is the initial delay before reverberant energy, in seconds.
	PreDelay float64

	Bypass    bool
	Algorithm Algorithm

	// Four-line FDN controls.
	SpinRate       float64
	WanderDepth    float64
	BassMultiplier float64

	// Comb bank controls.
	Density    float64
	RoomSize   float64
	VRolloffHz float64

	// Eight-line FDN controls.
	AirAmount        float64
	EarlyLateBalance float64
	HiDamping        float64
}

// Parameter ranges. Every numeric field clamps into its range.
const (
	minGain = 0.0
	maxGain = 2.0

	minLowCutHz  = 20.0
	maxLowCutHz  = 2000.0
	minHighCutHz = 200.0
	maxHighCutHz = 20000.0

	// MinReverbDuration guards the RT60 gain derivation against
	// division blow-up.
	MinReverbDuration = 0.1
	maxReverbDuration = 10.0

	minPreDelay = 0.0
	// MaxPreDelay matches the pre-delay buffer capacity of one second.
	MaxPreDelay = 1.0

	minSpinRate    = 0.0
	maxSpinRate    = 10.0
	minWanderDepth = 0.0
	maxWanderDepth = 1.0
	minBassMult    = 0.1
	maxBassMult    = 4.0

	minDensity  = 0.0
	maxDensity  = 1.0
	minRoomSize = 0.1
	maxRoomSize = 2.0

	minAirAmount = 0.0
	maxAirAmount = 1.0
	minBalance   = 0.0
	maxBalance   = 1.0
	minHiDamping = 0.0
	maxHiDamping = 1.0
)

// NewDefaultParams creates the session-start parameter set.
func NewDefaultParams() Params {
	return Params{
		WetGain:    0.35,
		DryGain:    0.8,
		MasterGain: 1.0,

		LowCutHz:  80.0,
		HighCutHz: 12000.0,

		ReverbDuration: 2.0,
		PreDelay:       0.02,

		Bypass:    false,
		Algorithm: DefaultAlgorithm,

		SpinRate:       0.7,
		WanderDepth:    0.3,
		BassMultiplier: 1.0,

		Density:    0.7,
		RoomSize:   1.0,
		VRolloffHz: 8000.0,

		AirAmount:        0.5,
		EarlyLateBalance: 0.7,
		HiDamping:        0.3,
	}
}

// Clamp forces every field into its valid range and resolves an
// invalid algorithm selector to the default variant.
func (p *Params) Clamp() {
	p.WetGain = clamp(p.WetGain, minGain, maxGain)
	p.DryGain = clamp(p.DryGain, minGain, maxGain)
	p.MasterGain = clamp(p.MasterGain, minGain, maxGain)

	p.LowCutHz = clamp(p.LowCutHz, minLowCutHz, maxLowCutHz)
	p.HighCutHz = clamp(p.HighCutHz, minHighCutHz, maxHighCutHz)

	p.ReverbDuration = clamp(p.ReverbDuration, MinReverbDuration, maxReverbDuration)
	p.PreDelay = clamp(p.PreDelay, minPreDelay, MaxPreDelay)

	if p.Algorithm < 0 || p.Algorithm >= numAlgorithms {
		p.Algorithm = DefaultAlgorithm
	}

	p.SpinRate = clamp(p.SpinRate, minSpinRate, maxSpinRate)
	p.WanderDepth = clamp(p.WanderDepth, minWanderDepth, maxWanderDepth)
	p.BassMultiplier = clamp(p.BassMultiplier, minBassMult, maxBassMult)

	p.Density = clamp(p.Density, minDensity, maxDensity)
	p.RoomSize = clamp(p.RoomSize, minRoomSize, maxRoomSize)
	p.VRolloffHz = clamp(p.VRolloffHz, minHighCutHz, maxHighCutHz)

	p.AirAmount = clamp(p.AirAmount, minAirAmount, maxAirAmount)
	p.EarlyLateBalance = clamp(p.EarlyLateBalance, minBalance, maxBalance)
	p.HiDamping = clamp(p.HiDamping, minHiDamping, maxHiDamping)
}
