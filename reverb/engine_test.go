package reverb

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"
)

type constSource struct {
	level  float32
	closed int
}

func (s *constSource) ReadFrames(dst []float32) (int, error) {
	for i := range dst {
		dst[i] = s.level
	}
	return len(dst), nil
}

func (s *constSource) Close() error {
	s.closed++
	return nil
}

type captureSink struct {
	frames []float32
	closed int
}

func (s *captureSink) WriteFrames(block []float32) error {
	s.frames = append(s.frames, block...)
	return nil
}

func (s *captureSink) Close() error {
	s.closed++
	return nil
}

func TestNewEngineRequiresSourceAndSink(t *testing.T) {
	_, err := NewEngine(Config{SampleRate: 48000, Sink: &captureSink{}})
	if !errors.Is(err, ErrAcquisition) {
		t.Errorf("missing source: err = %v, want ErrAcquisition", err)
	}

	_, err = NewEngine(Config{SampleRate: 48000, Source: &constSource{}})
	if !errors.Is(err, ErrAcquisition) {
		t.Errorf("missing sink: err = %v, want ErrAcquisition", err)
	}

	_, err = NewEngine(Config{Source: &constSource{}, Sink: &captureSink{}})
	if err == nil {
		t.Error("zero sample rate accepted")
	}
}

func TestProcessTickMovesBlocks(t *testing.T) {
	src := &constSource{level: 0.5}
	sink := &captureSink{}
	rec := &captureSink{}
	e, err := NewEngine(Config{
		SampleRate: 48000,
		BlockSize:  64,
		Source:     src,
		Sink:       sink,
		Recording:  rec,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	for i := 0; i < 3; i++ {
		if err := e.ProcessTick(); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	if len(sink.frames) != 3*64*2 {
		t.Fatalf("sink received %d samples, want %d", len(sink.frames), 3*64*2)
	}
	if len(rec.frames) != len(sink.frames) {
		t.Fatalf("recording received %d samples, sink %d", len(rec.frames), len(sink.frames))
	}
	for i := range sink.frames {
		if rec.frames[i] != sink.frames[i] {
			t.Fatalf("recording diverges from sink at sample %d", i)
		}
	}

	pre := make([]float32, 64)
	if n := e.PreTap().Latest(pre); n != 64 {
		t.Fatalf("pre tap snapshot has %d samples, want 64", n)
	}
	if pre[0] != 0.5 {
		t.Errorf("pre tap sample = %g, want the raw input 0.5", pre[0])
	}
	post := make([]float32, 128)
	if n := e.PostTap().Latest(post); n != 128 {
		t.Errorf("post tap snapshot has %d samples, want 128", n)
	}
}

func TestSetParamsClampsAndApplies(t *testing.T) {
	src := &constSource{level: 0.5}
	sink := &captureSink{}
	e, err := NewEngine(Config{SampleRate: 48000, BlockSize: 64, Source: src, Sink: sink})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	p := NewDefaultParams()
	p.WetGain = 99
	p.ReverbDuration = -3
	e.SetParams(p)
	got := e.Params()
	if got.WetGain != 2.0 {
		t.Errorf("WetGain = %g, want clamped 2.0", got.WetGain)
	}
	if got.ReverbDuration != MinReverbDuration {
		t.Errorf("ReverbDuration = %g, want clamped %g", got.ReverbDuration, MinReverbDuration)
	}

	// A bypassed snapshot settles to exact passthrough.
	p = NewDefaultParams()
	p.Bypass = true
	e.SetParams(p)
	blocks := 48000 / 64 / 2
	for i := 0; i < blocks; i++ {
		if err := e.ProcessTick(); err != nil {
			t.Fatal(err)
		}
	}
	last := sink.frames[len(sink.frames)-2:]
	for _, v := range last {
		if math.Abs(float64(v)-0.5) > 1e-3 {
			t.Errorf("bypassed output = %g, want ~0.5", v)
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	src := &constSource{level: 0.1}
	sink := &captureSink{}
	e, err := NewEngine(Config{SampleRate: 48000, Source: src, Sink: sink})
	if err != nil {
		t.Fatal(err)
	}

	if err := e.ProcessTick(); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if src.closed != 1 || sink.closed != 1 {
		t.Errorf("source closed %d times, sink %d, want 1 each", src.closed, sink.closed)
	}

	before := len(sink.frames)
	if err := e.ProcessTick(); err != nil {
		t.Fatalf("tick after Close: %v", err)
	}
	if len(sink.frames) != before {
		t.Error("tick after Close still produced output")
	}
}

func TestSafetyTripMutesThenRearms(t *testing.T) {
	src := &constSource{level: 1.0}
	sink := &captureSink{}
	var trips atomic.Int32
	e, err := NewEngine(Config{
		SampleRate:   48000,
		BlockSize:    64,
		Source:       src,
		Sink:         sink,
		OnSafetyTrip: func() { trips.Add(1) },
	})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	// Hot gain staging pushes the output well past the 1.5 threshold.
	p := NewDefaultParams()
	p.DryGain = 2.0
	p.WetGain = 0
	p.MasterGain = 2.0
	e.SetParams(p)

	e.StartSafetyPolling(time.Millisecond)
	deadline := time.Now().Add(5 * time.Second)
	for !e.Tripped() {
		if time.Now().After(deadline) {
			t.Fatal("limiter never tripped on a 4x overload")
		}
		if err := e.ProcessTick(); err != nil {
			t.Fatal(err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	if trips.Load() != 1 {
		t.Fatalf("OnSafetyTrip fired %d times, want 1", trips.Load())
	}

	// While tripped the output is hard-muted.
	if err := e.ProcessTick(); err != nil {
		t.Fatal(err)
	}
	mutedBlock := sink.frames[len(sink.frames)-128:]
	for i, v := range mutedBlock {
		if v != 0 {
			t.Fatalf("muted output sample %d = %g, want 0", i, v)
		}
	}

	// Back to sane gains, then recover.
	p.DryGain = 0.5
	p.MasterGain = 1.0
	e.SetParams(p)
	if err := e.ProcessTick(); err != nil {
		t.Fatal(err)
	}
	e.Rearm()
	if e.Tripped() {
		t.Fatal("still tripped after Rearm")
	}

	var energy float64
	for i := 0; i < 48000/64; i++ {
		if err := e.ProcessTick(); err != nil {
			t.Fatal(err)
		}
	}
	for _, v := range sink.frames[len(sink.frames)-128:] {
		energy += float64(v) * float64(v)
	}
	if energy == 0 {
		t.Error("output never recovered after Rearm")
	}
}
