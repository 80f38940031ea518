// SPDX-License-Identifier: MIT
package analysis

// BeatDetector flags kick-like onsets from the bass level of successive
// snapshots.
type BeatDetector struct {
	threshold      float64 // Bass level that must be exceeded.
	minRatio       float64 // Required rise over the previous frame.
	cooldownFrames int     // Frames to ignore after a beat.

	lastBass float64
	cooldown int
}

// NewBeatDetector returns a detector. A minRatio <= 1 accepts any rise.
func NewBeatDetector(threshold, minRatio float64, cooldownFrames int) *BeatDetector {
	logger.Debugf("Initializing BeatDetector (Threshold: %.2f, MinRatio: %.2f, Cooldown: %d)",
		threshold, minRatio, cooldownFrames)
	return &BeatDetector{
		threshold:      threshold,
		minRatio:       minRatio,
		cooldownFrames: max(0, cooldownFrames),
	}
}

// Process consumes one snapshot and reports whether it starts a beat.
func (d *BeatDetector) Process(s *Snapshot) bool {
	bass := s.Bass
	defer func() { d.lastBass = bass }()

	if d.cooldown > 0 {
		d.cooldown--
		return false
	}
	if bass <= d.threshold || bass <= d.lastBass {
		return false
	}
	if d.lastBass > 0 && bass/d.lastBass < d.minRatio {
		return false
	}
	d.cooldown = d.cooldownFrames
	return true
}
