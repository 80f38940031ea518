// SPDX-License-Identifier: MIT
/*
Package analysis extracts perceptual features from a mono sample stream for
the renderer: a log-frequency spectrum, the dominant period, a phase-locked
waveform centre, a bass level and a bass-driven clock.

Cost model:
  - NewAnalyzer precomputes one correlation kernel per bin,
    O(bins × window length), and never touches it again
  - Push is O(1): gain control plus one ring-buffer write
  - Analyze is O(bins × average window length) and memoized until the next
    Push

Thread Safety:
  - None. An Analyzer is owned by one goroutine (the frame loop); the capture
    callback hands samples over through its own queue.
*/
package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	applog "lava/internal/log"
	"lava/pkg/ring"
)

// Gain control constants. The gain creeps up by agcRecovery per sample and
// drops immediately when a sample would exceed full scale.
const agcRecovery = 1e-5

// ErrInvalidOptions is wrapped by NewAnalyzer for unusable sizes or rates.
var ErrInvalidOptions = errors.New("invalid analyzer options")

var logger = applog.Named("analysis")

// Options configures an Analyzer. Zero TaperShape selects DefaultTaperShape.
type Options struct {
	BufferSize int       // Retained history in samples.
	BinCount   int       // Number of log-spaced bins.
	SampleRate float64   // Hz.
	Focus      float64   // Initial focus in [0,1].
	Taper      TaperFunc // Window weighting, Bump by default.
	TaperShape float64   // Bump sharpness A.
}

// Analyzer is the sliding log-frequency analyzer. See the package
// documentation for its cost and threading model.
type Analyzer struct {
	bufferSize int
	binCount   int
	sampleRate float64

	lowestFrequency float64
	expBins         float64

	history *ring.Buffer[float32]
	basis   []binBasis

	gain              float64
	sinceLastAnalysis uint64
	focus             float64
	chrono            float64 // In samples.

	snapshot *Snapshot // nil when stale.
}

// NewAnalyzer validates opts and precomputes the per-bin basis.
func NewAnalyzer(opts Options) (*Analyzer, error) {
	if opts.BufferSize <= 0 || opts.BinCount <= 0 {
		return nil, fmt.Errorf("%w: buffer size and bin count must be positive, got %d and %d",
			ErrInvalidOptions, opts.BufferSize, opts.BinCount)
	}
	if !(opts.SampleRate > 0) || math.IsInf(opts.SampleRate, 0) {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %g", ErrInvalidOptions, opts.SampleRate)
	}
	half := float64(opts.BufferSize) / 2
	if half <= 1 {
		return nil, fmt.Errorf("%w: buffer size must exceed 2, got %d", ErrInvalidOptions, opts.BufferSize)
	}
	expBins := math.Floor(float64(opts.BinCount) / math.Log2(half))
	if expBins < 1 {
		return nil, fmt.Errorf("%w: %d bins cannot cover %.1f octaves", ErrInvalidOptions, opts.BinCount, math.Log2(half))
	}
	shape := opts.TaperShape
	if shape == 0 {
		shape = DefaultTaperShape
	}
	if shape < 0 {
		return nil, fmt.Errorf("%w: taper shape must be positive, got %g", ErrInvalidOptions, shape)
	}

	a := &Analyzer{
		bufferSize:      opts.BufferSize,
		binCount:        opts.BinCount,
		sampleRate:      opts.SampleRate,
		lowestFrequency: opts.SampleRate / float64(opts.BufferSize),
		expBins:         expBins,
		history:         ring.New[float32](opts.BufferSize, 0),
		gain:            1,
		focus:           clamp01(opts.Focus),
	}
	a.buildBasis(opts.Taper, shape)

	logger.Infof("Initializing analyzer (History: %d, Bins: %d, SampleRate: %.1f Hz, Taper: %v, Lowest: %.2f Hz, Bins/octave: %.0f)",
		a.bufferSize, a.binCount, a.sampleRate, opts.Taper, a.lowestFrequency, a.expBins)
	return a, nil
}

// Frequency returns the centre frequency (Hz) of a fractional bin index.
func (a *Analyzer) Frequency(bin float64) float64 {
	return a.lowestFrequency * math.Exp2(bin/a.expBins)
}

// Bin is the inverse of Frequency.
func (a *Analyzer) Bin(frequency float64) float64 {
	return a.expBins * math.Log2(frequency/a.lowestFrequency)
}

// Push feeds one raw sample through gain control into the history and
// invalidates the cached snapshot. NaN and Inf are not filtered.
func (a *Analyzer) Push(sample float32) {
	a.gain += agcRecovery
	s := float64(sample)
	if volume := math.Abs(s * a.gain); volume > 1 {
		a.gain /= volume
	}
	a.history.Push(float32(s * a.gain))
	a.sinceLastAnalysis++
	a.snapshot = nil
}

// PushAll pushes samples in order.
func (a *Analyzer) PushAll(samples []float32) {
	for _, s := range samples {
		a.Push(s)
	}
}

// Analyze returns the feature snapshot for the current history. Repeated calls
// without an intervening Push return the same *Snapshot. The snapshot is
// shared and must be treated as read-only.
func (a *Analyzer) Analyze() *Snapshot {
	if a.snapshot != nil {
		return a.snapshot
	}

	dft := make([]complex128, a.binCount)
	data, start := a.history.Data(), a.history.Start()
	n := len(data)
	binCount := float64(a.binCount)

	var (
		bassSum, bassTotal float64
		prev, prevprev     float64
		best               float64
		maxBin             = min(1, a.binCount-1)
	)

	for b := range a.basis {
		basis := &a.basis[b]

		var re, im float64
		idx := start + basis.start
		if idx >= n {
			idx -= n
		}
		for i, w := range basis.weights {
			v := float64(data[idx]) * w
			p := basis.phasors[i]
			re += v * real(p)
			im += v * imag(p)
			if idx++; idx == n {
				idx = 0
			}
		}
		if tw := basis.totalWindow; tw > 0 && !math.IsInf(tw, 1) {
			dft[b] = complex(re/tw, im/tw)
		}
		cur := cmplx.Abs(dft[b])

		bassSum += basis.bassEQ * cur
		bassTotal += basis.bassEQ

		// Bin b-1 is a local maximum. Higher bins are de-weighted so low
		// content wins close calls.
		if b > 0 && prev >= cur && prev >= prevprev {
			if score := prev * (1 - float64(b)/binCount); score > best {
				best = score
				maxBin = b - 1
			}
		}
		prevprev, prev = prev, cur
	}

	var bass float64
	if bassTotal > 0 {
		bass = math.Min(1, math.Max(0, bassSum/bassTotal*10))
	}
	// A non-finite bass from bad input must not stick in the clock.
	if !math.IsNaN(bass) && !math.IsInf(bass, 0) {
		a.chrono += float64(a.sinceLastAnalysis) * bass
	}
	a.sinceLastAnalysis = 0

	period := a.sampleRate / a.basis[maxBin].frequency
	phase := dft[maxBin]
	angle := math.Atan2(imag(phase), real(phase))/(2*math.Pi) - 0.25
	centerSample := (angle + math.Ceil(float64(a.bufferSize)*a.focus/period)) * period

	a.snapshot = &Snapshot{
		DFT:          dft,
		MaxBin:       maxBin,
		Period:       period,
		Focus:        a.focus,
		CenterSample: centerSample,
		Bass:         bass,
		Chrono:       a.chrono / a.sampleRate,
	}
	return a.snapshot
}

// History exposes the retained samples without copying: logical sample i is
// data[(start+i) % len(data)]. Callers must not modify data.
func (a *Analyzer) History() (start int, data []float32) {
	return a.history.Start(), a.history.Data()
}

// SetFocus moves the waveform centre target, clamped to [0,1]. The cached
// snapshot is dropped because CenterSample depends on it.
func (a *Analyzer) SetFocus(focus float64) {
	focus = clamp01(focus)
	if focus != a.focus {
		a.focus = focus
		a.snapshot = nil
	}
}

func (a *Analyzer) Focus() float64           { return a.focus }
func (a *Analyzer) Gain() float64            { return a.gain }
func (a *Analyzer) BufferSize() int          { return a.bufferSize }
func (a *Analyzer) BinCount() int            { return a.binCount }
func (a *Analyzer) SampleRate() float64      { return a.sampleRate }
func (a *Analyzer) LowestFrequency() float64 { return a.lowestFrequency }
func (a *Analyzer) ExpBins() float64         { return a.expBins }

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
