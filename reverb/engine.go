package reverb

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ErrAcquisition marks a session that could not obtain its input or
// output resources. It is fatal to session start.
var ErrAcquisition = errors.New("reverb: audio resource unavailable")

// Source supplies mono input frames. Implementations wrap a capture
// stream or decoded file samples; the engine only pulls.
type Source interface {
	// ReadFrames fills dst with up to len(dst) frames and returns the
	// count actually produced.
	ReadFrames(dst []float32) (int, error)
}

// Sink consumes interleaved stereo output frames.
type Sink interface {
	WriteFrames(block []float32) error
}

// DefaultBlockSize is the per-tick frame count when the host does not
// dictate one.
const DefaultBlockSize = 128

// Config describes a live session.
type Config struct {
	SampleRate int
	// BlockSize bounds the frames processed per tick; 0 selects
	// DefaultBlockSize.
	BlockSize int

	Source Source
	Sink   Sink
	// Recording, when set, receives the same output blocks as Sink.
	Recording Sink

	// OnSafetyTrip is the one-shot overload notification. Invoked from
	// the safety polling goroutine.
	OnSafetyTrip func()
}

// Engine is a live reverberation session. The host scheduler drives
// the audio path by calling ProcessTick once per period; parameter
// updates arrive from a single control-plane writer through SetParams
// and reach the audio path as atomic snapshots. The audio path never
// waits on a lock and never allocates.
type Engine struct {
	sampleRate int
	blockSize  int

	graph  *Graph
	source Source
	sink   Sink
	rec    Sink

	pending  atomic.Pointer[Params]
	lastSnap *Params

	preTap  *Tap
	postTap *Tap
	limiter *SafetyLimiter

	pollInterval time.Duration
	pollStop     chan struct{}
	pollMu       sync.Mutex

	closed    atomic.Bool
	closeOnce sync.Once

	in  []float32
	out []float32
}

// NewEngine builds a session. A missing source or sink is an
// acquisition failure; nothing is left half-constructed on error.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("%w: no input source", ErrAcquisition)
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("%w: no output sink", ErrAcquisition)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0: %d", cfg.SampleRate)
	}
	blockSize := cfg.BlockSize
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}

	graph, err := NewGraph(cfg.SampleRate)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		sampleRate: cfg.SampleRate,
		blockSize:  blockSize,
		graph:      graph,
		source:     cfg.Source,
		sink:       cfg.Sink,
		rec:        cfg.Recording,
		preTap:     newTap(blockSize),
		postTap:    newTap(blockSize * 2),
		in:         make([]float32, blockSize),
		out:        make([]float32, blockSize*2),
	}
	e.limiter = NewSafetyLimiter(e.postTap, graph.ForceMute, cfg.OnSafetyTrip)

	p := NewDefaultParams()
	e.SetParams(p)
	return e, nil
}

// SetParams publishes a parameter snapshot to the audio path. Values
// are clamped, never rejected. Single-writer: call from one control
// goroutine only.
func (e *Engine) SetParams(p Params) {
	p.Clamp()
	e.pending.Store(&p)
}

// Params returns the most recently published snapshot.
func (e *Engine) Params() Params {
	if p := e.pending.Load(); p != nil {
		return *p
	}
	return NewDefaultParams()
}

// ProcessTick runs one audio callback period: pull a block from the
// source, process it through the graph, push it to the sink(s) and
// publish both monitoring taps. Safe to call after Close (a no-op).
func (e *Engine) ProcessTick() error {
	if e.closed.Load() {
		return nil
	}

	if p := e.pending.Load(); p != nil && p != e.lastSnap {
		e.graph.Apply(p)
		e.lastSnap = p
	}

	n, err := e.source.ReadFrames(e.in)
	if err != nil {
		return fmt.Errorf("read input frames: %w", err)
	}
	if n == 0 {
		return nil
	}
	if n > e.blockSize {
		n = e.blockSize
	}

	in := e.in[:n]
	out := e.out[:2*n]

	e.preTap.publish(in)
	e.graph.ProcessBlock(in, out)
	e.postTap.publish(out)

	if err := e.sink.WriteFrames(out); err != nil {
		return fmt.Errorf("write output frames: %w", err)
	}
	if e.rec != nil {
		if err := e.rec.WriteFrames(out); err != nil {
			return fmt.Errorf("write recording frames: %w", err)
		}
	}
	return nil
}

// StartSafetyPolling launches the watchdog timer. Polling stops on
// trip or Close; Rearm restarts it.
func (e *Engine) StartSafetyPolling(interval time.Duration) {
	if interval <= 0 {
		interval = time.Second / 60
	}
	e.pollMu.Lock()
	defer e.pollMu.Unlock()
	if e.closed.Load() || e.pollStop != nil {
		return
	}
	e.pollInterval = interval
	stop := make(chan struct{})
	e.pollStop = stop

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if e.limiter.Poll() {
					e.stopPolling(stop)
					return
				}
			}
		}
	}()
}

func (e *Engine) stopPolling(expect chan struct{}) {
	e.pollMu.Lock()
	defer e.pollMu.Unlock()
	if e.pollStop == nil {
		return
	}
	if expect != nil && e.pollStop != expect {
		return
	}
	close(e.pollStop)
	e.pollStop = nil
}

// Tripped reports whether the safety limiter has fired.
func (e *Engine) Tripped() bool {
	return e.limiter.Tripped()
}

// Rearm recovers from a safety trip: clears the mute, re-arms the
// limiter and resumes polling at the previous interval. A no-op when
// the limiter never fired.
func (e *Engine) Rearm() {
	if !e.limiter.Tripped() {
		return
	}
	e.graph.Unmute()
	e.limiter.Rearm()
	if e.pollInterval > 0 && !e.closed.Load() {
		e.StartSafetyPolling(e.pollInterval)
	}
}

// PreTap exposes the pre-processing monitoring tap.
func (e *Engine) PreTap() *Tap {
	return e.preTap
}

// PostTap exposes the post-master monitoring tap.
func (e *Engine) PostTap() *Tap {
	return e.postTap
}

// Close tears the session down synchronously. Subsequent ProcessTick
// calls are no-ops, closable sources/sinks are released, and closing
// twice (or a session that never started) is not an error.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		e.stopPolling(nil)
		if c, ok := e.source.(interface{ Close() error }); ok {
			_ = c.Close()
		}
		if c, ok := e.sink.(interface{ Close() error }); ok {
			_ = c.Close()
		}
		if c, ok := e.rec.(interface{ Close() error }); ok {
			_ = c.Close()
		}
	})
	return nil
}
