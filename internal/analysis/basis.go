// SPDX-License-Identifier: MIT
package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Bass weighting falls linearly from 1 at 0 Hz to 0 at bassCutoff.
const bassCutoff = 200.0

// binBasis is the precomputed correlation kernel of one bin. It is built once
// in NewAnalyzer and never modified.
type binBasis struct {
	frequency   float64      // Centre frequency (Hz).
	start       int          // First history offset covered by the window.
	weights     []float64    // Taper weight per window offset.
	phasors     []complex128 // Unit phasor per window offset.
	totalWindow float64      // Sum of weights.
	bassEQ      float64      // Contribution of this bin to the bass level.
}

// windowBounds returns the first offset and the length of the window for a
// bin whose fundamental lasts samplePeriod samples: about eight cycles, capped
// at the whole history, centred in it.
func windowBounds(samplePeriod, bufferSize float64) (start, length int, size float64) {
	size = math.Min(8*samplePeriod, bufferSize)
	lo := math.Floor((bufferSize - size) * 0.5)
	hi := math.Ceil((bufferSize + size) * 0.5)
	return int(lo), int(hi - lo), size
}

func (a *Analyzer) buildBasis(taper TaperFunc, shape float64) {
	bufferSize := float64(a.bufferSize)
	a.basis = make([]binBasis, a.binCount)

	for b := range a.basis {
		freq := a.Frequency(float64(b))
		samplePeriod := a.sampleRate / freq
		phaseDelta := 2 * math.Pi / samplePeriod
		start, length, size := windowBounds(samplePeriod, bufferSize)

		weights := make([]float64, length)
		fillTaper(weights, taper, shape, start, bufferSize, size)

		phasors := make([]complex128, length)
		for i := range phasors {
			phase := phaseDelta * float64(start+i)
			phasors[i] = complex(math.Cos(phase), math.Sin(phase))
		}

		a.basis[b] = binBasis{
			frequency:   freq,
			start:       start,
			weights:     weights,
			phasors:     phasors,
			totalWindow: floats.Sum(weights),
			bassEQ:      math.Max(0, 1-freq/bassCutoff),
		}
	}
}
