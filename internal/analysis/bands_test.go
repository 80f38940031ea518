// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"

	"lava/pkg/utils"
)

func bandIndex(t *testing.T, be *BandEnergy, name string) int {
	t.Helper()
	for i, b := range be.Bands() {
		if b.Name == name {
			return i
		}
	}
	t.Fatalf("band %q not found", name)
	return -1
}

func TestBandEnergyRanges(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t, testBufferSize, testBinCount)
	be := NewBandEnergy(a, a.BinCount(), DefaultBands)

	prevEnd := 0
	for i, r := range be.ranges {
		band := DefaultBands[i]
		if r[0] > r[1] {
			t.Fatalf("band %s has inverted range %v", band.Name, r)
		}
		if r[0] < prevEnd {
			t.Errorf("band %s overlaps the previous band", band.Name)
		}
		prevEnd = r[1]
		for b := r[0]; b < r[1]; b++ {
			f := a.Frequency(float64(b))
			if f < band.LowHz || f >= band.HighHz {
				t.Errorf("bin %d (%.1f Hz) outside band %s", b, f, band.Name)
			}
		}
	}
	if last := be.ranges[len(be.ranges)-1]; last[1] != testBinCount {
		t.Errorf("treble band ends at %d, want %d", last[1], testBinCount)
	}
}

func TestBandEnergyProcess(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		freq float64
		band string
	}{
		{"kick", 45, "sub"},
		{"bass", 110, "bass"},
		{"voice", 1000, "mid"},
		{"hat", 8000, "treble"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := newTestAnalyzer(t, testBufferSize, testBinCount)
			be := NewBandEnergy(a, a.BinCount(), DefaultBands)
			a.PushAll(utils.GenerateSineWave(testBufferSize, testSampleRate, tt.freq, 0.8))

			levels := be.Process(a.Analyze(), nil)
			if len(levels) != len(DefaultBands) {
				t.Fatalf("got %d levels, want %d", len(levels), len(DefaultBands))
			}
			want := bandIndex(t, be, tt.band)
			for i, l := range levels {
				if l < 0 || l > 1 {
					t.Errorf("level %s = %v outside [0,1]", DefaultBands[i].Name, l)
				}
				if i != want && l >= levels[want] {
					t.Errorf("band %s (%.3f) >= expected band %s (%.3f)",
						DefaultBands[i].Name, l, tt.band, levels[want])
				}
			}
		})
	}
}

func TestBandEnergyReusesDst(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t, 1024, 64)
	be := NewBandEnergy(a, a.BinCount(), DefaultBands)
	a.PushAll(utils.GenerateNoise(1024, 0.5, 9))

	dst := make([]float64, 0, 16)
	out := be.Process(a.Analyze(), dst)
	if &out[0] != &dst[:1][0] {
		t.Error("Process allocated despite sufficient capacity")
	}
}

func TestBandEnergyEmptyBand(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t, 1024, 64)
	bands := []FrequencyBand{
		{Name: "infra", LowHz: 0, HighHz: 1},
		{Name: "all", LowHz: 0, HighHz: math.Inf(1)},
	}
	be := NewBandEnergy(a, a.BinCount(), bands)
	a.PushAll(utils.GenerateSineWave(1024, testSampleRate, 1000, 0.9))

	levels := be.Process(a.Analyze(), nil)
	if levels[0] != 0 {
		t.Errorf("empty band level = %v, want 0", levels[0])
	}
	if levels[1] <= 0 {
		t.Errorf("full-range level = %v, want > 0", levels[1])
	}
}
