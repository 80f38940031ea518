// SPDX-License-Identifier: MIT
package analysis

// Extractor is what the frame loop needs from an analyzer: sample ingestion,
// memoized analysis and read access to the retained history.
type Extractor interface {
	// Push ingests one sample. Must be O(1); it runs once per captured sample.
	Push(sample float32)
	// Analyze returns the snapshot for the current history.
	Analyze() *Snapshot
	// History returns the ring start offset and backing storage, zero copy.
	History() (start int, data []float32)
	// Frequency maps a bin index to Hz.
	Frequency(bin float64) float64
	// BinCount is the length of every Snapshot.DFT.
	BinCount() int
	// SetFocus moves the waveform centre target.
	SetFocus(focus float64)
}

var _ Extractor = (*Analyzer)(nil)
