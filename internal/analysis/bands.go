// SPDX-License-Identifier: MIT
package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// bandGain maps the RMS bin magnitude of a band to [0,1]. A full-scale sine
// has magnitude 0.5 in its own bin.
const bandGain = 4.0

// FrequencyBand names a frequency range [LowHz, HighHz).
type FrequencyBand struct {
	Name   string
	LowHz  float64
	HighHz float64
}

// DefaultBands are the bands published alongside every frame.
var DefaultBands = []FrequencyBand{
	{Name: "sub", LowHz: 20, HighHz: 60},
	{Name: "bass", LowHz: 60, HighHz: 250},
	{Name: "lowMid", LowHz: 250, HighHz: 500},
	{Name: "mid", LowHz: 500, HighHz: 2000},
	{Name: "highMid", LowHz: 2000, HighHz: 4000},
	{Name: "treble", LowHz: 4000, HighHz: math.Inf(1)},
}

// BandEnergy computes per-band levels from snapshot magnitudes. Bin ranges
// are resolved once at construction.
type BandEnergy struct {
	bands  []FrequencyBand
	ranges [][2]int // [first, end) bin per band.
	mags   []float64
}

// NewBandEnergy resolves bands against the analyzer's bin layout. A band
// that contains no bin always reports 0.
func NewBandEnergy(x Extractor, binCount int, bands []FrequencyBand) *BandEnergy {
	be := &BandEnergy{
		bands:  bands,
		ranges: make([][2]int, len(bands)),
		mags:   make([]float64, binCount),
	}
	for i, band := range bands {
		first, end := binCount, binCount
		for b := range binCount {
			f := x.Frequency(float64(b))
			if f >= band.LowHz && first == binCount {
				first = b
			}
			if f >= band.HighHz {
				end = b
				break
			}
		}
		if first > end {
			first = end
		}
		be.ranges[i] = [2]int{first, end}
	}
	return be
}

// Bands returns the configured bands.
func (be *BandEnergy) Bands() []FrequencyBand { return be.bands }

// Process writes one level per band into dst (grown if needed) and returns it.
func (be *BandEnergy) Process(s *Snapshot, dst []float64) []float64 {
	if cap(dst) < len(be.bands) {
		dst = make([]float64, len(be.bands))
	}
	dst = dst[:len(be.bands)]
	be.mags = s.Magnitudes(be.mags)

	for i, r := range be.ranges {
		seg := be.mags[r[0]:r[1]]
		if len(seg) == 0 {
			dst[i] = 0
			continue
		}
		rms := math.Sqrt(floats.Dot(seg, seg) / float64(len(seg)))
		dst[i] = math.Min(1, rms*bandGain)
	}
	return dst
}
