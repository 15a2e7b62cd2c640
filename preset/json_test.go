package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-reverb/reverb"
)

func writePreset(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "preset.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPartialPresetKeepsDefaults(t *testing.T) {
	path := writePreset(t, `{"wet_gain": 0.5, "algorithm": "comb"}`)
	p, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if p.WetGain != 0.5 {
		t.Errorf("WetGain = %g, want 0.5", p.WetGain)
	}
	if p.Algorithm != reverb.AlgorithmComb {
		t.Errorf("Algorithm = %v, want comb", p.Algorithm)
	}

	def := reverb.NewDefaultParams()
	if p.DryGain != def.DryGain {
		t.Errorf("DryGain = %g, default %g was overwritten", p.DryGain, def.DryGain)
	}
	if p.ReverbDuration != def.ReverbDuration {
		t.Errorf("ReverbDuration = %g, default %g was overwritten", p.ReverbDuration, def.ReverbDuration)
	}
}

func TestLoadIgnoresUnknownFields(t *testing.T) {
	path := writePreset(t, `{"wet_gain": 0.4, "some_future_knob": 7, "vendor": {"a": 1}}`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("unknown fields rejected: %v", err)
	}
	if p.WetGain != 0.4 {
		t.Errorf("WetGain = %g, want 0.4", p.WetGain)
	}
}

func TestLoadClampsOutOfRangeValues(t *testing.T) {
	path := writePreset(t, `{"reverb_duration_s": 99, "dry_gain": -5, "pre_delay_s": 3}`)
	p, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.ReverbDuration != 10.0 {
		t.Errorf("ReverbDuration = %g, want clamped 10", p.ReverbDuration)
	}
	if p.DryGain != 0 {
		t.Errorf("DryGain = %g, want clamped 0", p.DryGain)
	}
	if p.PreDelay != reverb.MaxPreDelay {
		t.Errorf("PreDelay = %g, want clamped %g", p.PreDelay, reverb.MaxPreDelay)
	}
}

func TestLoadUnknownAlgorithmFallsBack(t *testing.T) {
	path := writePreset(t, `{"algorithm": "plate"}`)
	p, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Algorithm != reverb.DefaultAlgorithm {
		t.Errorf("Algorithm = %v, want default", p.Algorithm)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file not reported")
	}
	path := writePreset(t, `{not json`)
	if _, err := Load(path); err == nil {
		t.Error("malformed JSON not reported")
	}
}

func TestApplyNilFileIsNoop(t *testing.T) {
	p := reverb.NewDefaultParams()
	q := p
	Apply(&p, nil)
	if p != q {
		t.Error("nil file changed params")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p := reverb.NewDefaultParams()
	p.Algorithm = reverb.AlgorithmFDN8
	p.ReverbDuration = 3.25
	p.WetGain = 1.5
	p.HiDamping = 0.9

	path := filepath.Join(t.TempDir(), "saved.json")
	if err := Save(path, p); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != p {
		t.Errorf("round trip mismatch:\n saved  %+v\n loaded %+v", p, got)
	}
}
