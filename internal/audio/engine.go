// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"lava/internal/analysis"
	"lava/internal/stats"
)

// Beat detection on the bass level.
const (
	beatThreshold      = 0.3
	beatMinRatio       = 1.3
	beatCooldownFrames = 8
)

var noFocusRequest = math.Float64bits(math.NaN())

// SampleSource yields every sample captured since the previous call, in
// arrival order. *Stream is the live implementation.
type SampleSource interface {
	Samples() []float32
}

// Sink receives each frame. Send is called on the frame loop goroutine and
// must not block for long; *Frame is passed as the data.
type Sink interface {
	Send(data any) error
}

// Frame is the result of one frame loop iteration.
type Frame struct {
	Seq        uint64
	Timestamp  time.Time
	NewSamples int // Samples pushed during this frame.
	Snapshot   *analysis.Snapshot
	Bands      []float64 // One level per analysis.DefaultBands entry.
	Beat       bool

	// History is the analyzer's backing storage, zero copy: logical sample i
	// is History[(HistoryStart+i) % len(History)]. It is only valid during
	// Send; sinks that keep samples must copy them.
	HistoryStart int
	History      []float32
}

// HistoryAt returns logical history sample i, or 0 outside the history.
func (f *Frame) HistoryAt(i int) float32 {
	n := len(f.History)
	if i < 0 || i >= n {
		return 0
	}
	j := f.HistoryStart + i
	if j >= n {
		j -= n
	}
	return f.History[j]
}

// Waveform copies width history samples centred on Snapshot.CenterSample into
// dst, growing it if needed. Samples outside the history read as 0.
func (f *Frame) Waveform(dst []float32, width int) []float32 {
	if cap(dst) < width {
		dst = make([]float32, width)
	}
	dst = dst[:width]
	center := f.Snapshot.CenterSample
	if math.IsNaN(center) || math.IsInf(center, 0) {
		clear(dst)
		return dst
	}
	start := int(math.Round(center)) - width/2
	for i := range dst {
		dst[i] = f.HistoryAt(start + i)
	}
	return dst
}

// Engine runs the frame loop: drain the source, feed the analyzer, analyse
// once and publish. The analyzer must not be used by any other goroutine
// while the engine runs.
type Engine struct {
	source   SampleSource
	analyzer analysis.Extractor
	bands    *analysis.BandEnergy
	beats    *analysis.BeatDetector
	timer    *stats.FrameTimer

	mu    sync.Mutex
	sinks []Sink

	focusRequest atomic.Uint64
	seq          uint64
}

// NewEngine wires a source to an analyzer and the given sinks.
func NewEngine(source SampleSource, analyzer analysis.Extractor, sinks ...Sink) *Engine {
	e := &Engine{
		source:   source,
		analyzer: analyzer,
		bands:    analysis.NewBandEnergy(analyzer, analyzer.BinCount(), analysis.DefaultBands),
		beats:    analysis.NewBeatDetector(beatThreshold, beatMinRatio, beatCooldownFrames),
		sinks:    sinks,
	}
	e.focusRequest.Store(noFocusRequest)
	return e
}

// AddSink registers another sink.
func (e *Engine) AddSink(s Sink) {
	e.mu.Lock()
	e.sinks = append(e.sinks, s)
	e.mu.Unlock()
}

// SetFrameTimer enables per-frame timing.
func (e *Engine) SetFrameTimer(t *stats.FrameTimer) {
	e.timer = t
}

// RequestFocus asks the loop to change the analyzer focus before the next
// frame. Safe to call from any goroutine.
func (e *Engine) RequestFocus(focus float64) {
	e.focusRequest.Store(math.Float64bits(focus))
}

// Tick runs one frame and returns it.
func (e *Engine) Tick() *Frame {
	if e.timer != nil {
		e.timer.StartFrame()
		defer e.timer.EndFrame()
	}

	if bits := e.focusRequest.Swap(noFocusRequest); bits != noFocusRequest {
		e.analyzer.SetFocus(math.Float64frombits(bits))
	}

	samples := e.source.Samples()
	for _, v := range samples {
		e.analyzer.Push(v)
	}

	snap := e.analyzer.Analyze()
	start, data := e.analyzer.History()
	e.seq++
	frame := &Frame{
		Seq:          e.seq,
		Timestamp:    time.Now(),
		NewSamples:   len(samples),
		Snapshot:     snap,
		Bands:        e.bands.Process(snap, nil),
		Beat:         e.beats.Process(snap),
		HistoryStart: start,
		History:      data,
	}

	e.mu.Lock()
	sinks := e.sinks
	e.mu.Unlock()
	for _, s := range sinks {
		if err := s.Send(frame); err != nil {
			logger.Warnf("Frame %d: sink error: %v", frame.Seq, err)
		}
	}
	return frame
}

// Run ticks every interval until ctx is cancelled.
func (e *Engine) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid frame interval: %v", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Infof("Frame loop started (Interval: %v)", interval)
	for {
		select {
		case <-ctx.Done():
			logger.Infof("Frame loop stopped after %d frames", e.seq)
			return nil
		case <-ticker.C:
			e.Tick()
		}
	}
}
