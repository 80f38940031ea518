// SPDX-License-Identifier: MIT
// Package transport publishes analysis frames to consumers outside the
// process.
package transport

import (
	"math"
	"math/cmplx"

	"lava/internal/analysis"
	"lava/internal/audio"
)

// WaveformLength is the number of phase-locked samples carried by WireFrame.
const WaveformLength = 512

// Transport defines a generic interface for sending processed data or events.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// WireFrame is the JSON form of an audio.Frame. It owns all of its data.
type WireFrame struct {
	Seq          uint64             `json:"seq"`
	Timestamp    int64              `json:"timestamp"` // Unix milliseconds.
	MaxBin       int                `json:"maxBin"`
	Period       float64            `json:"period"`
	Focus        float64            `json:"focus"`
	CenterSample float64            `json:"centerSample"`
	Bass         float64            `json:"bass"`
	Chrono       float64            `json:"chrono"`
	Beat         bool               `json:"beat"`
	Bands        map[string]float64 `json:"bands"`
	Magnitudes   []float32          `json:"magnitudes"`
	Waveform     []float32          `json:"waveform"`
}

// NewWireFrame copies what consumers need out of f. It must be called while
// f's history view is still valid, i.e. inside Send. NaN and Inf, which JSON
// cannot carry, are sent as 0.
func NewWireFrame(f *audio.Frame) *WireFrame {
	s := f.Snapshot
	w := &WireFrame{
		Seq:          f.Seq,
		Timestamp:    f.Timestamp.UnixMilli(),
		MaxBin:       s.MaxBin,
		Period:       finite(s.Period),
		Focus:        finite(s.Focus),
		CenterSample: finite(s.CenterSample),
		Bass:         finite(s.Bass),
		Chrono:       finite(s.Chrono),
		Beat:         f.Beat,
		Bands:        make(map[string]float64, len(f.Bands)),
		Magnitudes:   make([]float32, len(s.DFT)),
		Waveform:     f.Waveform(nil, WaveformLength),
	}
	for i, c := range s.DFT {
		w.Magnitudes[i] = float32(finite(cmplx.Abs(c)))
	}
	for i, v := range w.Waveform {
		w.Waveform[i] = float32(finite(float64(v)))
	}
	for i, level := range f.Bands {
		if i < len(analysis.DefaultBands) {
			w.Bands[analysis.DefaultBands[i].Name] = finite(level)
		}
	}
	return w
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
