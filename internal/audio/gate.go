// SPDX-License-Identifier: MIT
package audio

import "math"

func (s *Stream) EnableGate() {
	s.gateEnabled.Store(true)
}

func (s *Stream) DisableGate() {
	s.gateEnabled.Store(false)
}

// GateEnabled reports whether the noise gate is active.
func (s *Stream) GateEnabled() bool {
	return s.gateEnabled.Load()
}

// SetGateThreshold adjusts the noise gate threshold.
// The value is in the range of 0.0-1.0 where 0=always open, 1=always closed.
func (s *Stream) SetGateThreshold(threshold float64) {
	if threshold < 0.0 || math.IsNaN(threshold) {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}
	s.gateThreshold.Store(math.Float64bits(threshold))
}

// GateThreshold returns the current noise gate threshold.
func (s *Stream) GateThreshold() float64 {
	return math.Float64frombits(s.gateThreshold.Load())
}

// blockPeak returns the largest absolute sample value in buf.
func blockPeak(buf []float32) float64 {
	var peak float32
	for _, v := range buf {
		if v < 0 {
			v = -v
		}
		peak = max(peak, v)
	}
	return float64(peak)
}
