// Package preset persists and exchanges parameter sets as JSON.
//
// Every field is optional: a partial preset (for example from a
// suggestion collaborator) only overwrites the fields it supplies, and
// unknown fields are ignored. Values are clamped on ingest, never
// rejected.
package preset

import (
	"encoding/json"
	"os"

	"github.com/cwbudde/algo-reverb/reverb"
)

// File is the JSON schema for reverb presets. Pointer fields
// distinguish "absent" from zero.
type File struct {
	WetGain    *float64 `json:"wet_gain"`
	DryGain    *float64 `json:"dry_gain"`
	MasterGain *float64 `json:"master_gain"`

	LowCutHz  *float64 `json:"low_cut_hz"`
	HighCutHz *float64 `json:"high_cut_hz"`

	ReverbDuration *float64 `json:"reverb_duration_s"`
	PreDelay       *float64 `json:"pre_delay_s"`

	Bypass    *bool   `json:"bypass"`
	Algorithm *string `json:"algorithm"`

	SpinRate       *float64 `json:"spin_rate"`
	WanderDepth    *float64 `json:"wander_depth"`
	BassMultiplier *float64 `json:"bass_multiplier"`

	Density    *float64 `json:"density"`
	RoomSize   *float64 `json:"room_size"`
	VRolloffHz *float64 `json:"v_rolloff_hz"`

	AirAmount        *float64 `json:"air_amount"`
	EarlyLateBalance *float64 `json:"early_late_balance"`
	HiDamping        *float64 `json:"hi_damping"`
}

// Load reads a preset file and applies it on top of default params.
func Load(path string) (reverb.Params, error) {
	p := reverb.NewDefaultParams()

	b, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return p, err
	}

	Apply(&p, &f)
	return p, nil
}

// Apply overlays the supplied fields of f onto dst and clamps the
// result. A nil file is a no-op.
func Apply(dst *reverb.Params, f *File) {
	if dst == nil || f == nil {
		return
	}

	if f.WetGain != nil {
		dst.WetGain = *f.WetGain
	}
	if f.DryGain != nil {
		dst.DryGain = *f.DryGain
	}
	if f.MasterGain != nil {
		dst.MasterGain = *f.MasterGain
	}
	if f.LowCutHz != nil {
		dst.LowCutHz = *f.LowCutHz
	}
	if f.HighCutHz != nil {
		dst.HighCutHz = *f.HighCutHz
	}
	if f.ReverbDuration != nil {
		dst.ReverbDuration = *f.ReverbDuration
	}
	if f.PreDelay != nil {
		dst.PreDelay = *f.PreDelay
	}
	if f.Bypass != nil {
		dst.Bypass = *f.Bypass
	}
	if f.Algorithm != nil {
		dst.Algorithm = reverb.ParseAlgorithm(*f.Algorithm)
	}
	if f.SpinRate != nil {
		dst.SpinRate = *f.SpinRate
	}
	if f.WanderDepth != nil {
		dst.WanderDepth = *f.WanderDepth
	}
	if f.BassMultiplier != nil {
		dst.BassMultiplier = *f.BassMultiplier
	}
	if f.Density != nil {
		dst.Density = *f.Density
	}
	if f.RoomSize != nil {
		dst.RoomSize = *f.RoomSize
	}
	if f.VRolloffHz != nil {
		dst.VRolloffHz = *f.VRolloffHz
	}
	if f.AirAmount != nil {
		dst.AirAmount = *f.AirAmount
	}
	if f.EarlyLateBalance != nil {
		dst.EarlyLateBalance = *f.EarlyLateBalance
	}
	if f.HiDamping != nil {
		dst.HiDamping = *f.HiDamping
	}

	dst.Clamp()
}

// Save writes params as a complete preset file.
func Save(path string, p reverb.Params) error {
	p.Clamp()
	alg := p.Algorithm.String()
	f := File{
		WetGain:          &p.WetGain,
		DryGain:          &p.DryGain,
		MasterGain:       &p.MasterGain,
		LowCutHz:         &p.LowCutHz,
		HighCutHz:        &p.HighCutHz,
		ReverbDuration:   &p.ReverbDuration,
		PreDelay:         &p.PreDelay,
		Bypass:           &p.Bypass,
		Algorithm:        &alg,
		SpinRate:         &p.SpinRate,
		WanderDepth:      &p.WanderDepth,
		BassMultiplier:   &p.BassMultiplier,
		Density:          &p.Density,
		RoomSize:         &p.RoomSize,
		VRolloffHz:       &p.VRolloffHz,
		AirAmount:        &p.AirAmount,
		EarlyLateBalance: &p.EarlyLateBalance,
		HiDamping:        &p.HiDamping,
	}
	b, err := json.MarshalIndent(&f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
