// SPDX-License-Identifier: MIT
package analysis

import "math/cmplx"

// Snapshot is the feature set of one analysed frame. Values are not
// sanitised: a caller that may see NaN or Inf input must clamp before
// rendering.
type Snapshot struct {
	DFT          []complex128 // Per-bin complex amplitude, lowest bin first.
	MaxBin       int          // Dominant bin.
	Period       float64      // Dominant period in samples.
	Focus        float64      // Focus the centre was computed for.
	CenterSample float64      // History index to centre a phase-stable waveform on. May lie outside the history.
	Bass         float64      // Bass level in [0,1].
	Chrono       float64      // Bass-driven clock in seconds.
}

// Magnitudes writes |DFT[b]| for every bin into dst, growing it if needed,
// and returns it.
func (s *Snapshot) Magnitudes(dst []float64) []float64 {
	if cap(dst) < len(s.DFT) {
		dst = make([]float64, len(s.DFT))
	}
	dst = dst[:len(s.DFT)]
	for i, c := range s.DFT {
		dst[i] = cmplx.Abs(c)
	}
	return dst
}
