// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"math"
	"strings"

	"lava/internal/analysis"
	"lava/internal/config"

	"github.com/charmbracelet/lipgloss"
)

// PanelKind selects how a panel draws a frame.
type PanelKind int

const (
	PanelWaveform PanelKind = iota
	PanelSpectrum
	PanelMeter
)

var panelKindNames = map[PanelKind]string{
	PanelWaveform: config.PanelWaveform,
	PanelSpectrum: config.PanelSpectrum,
	PanelMeter:    config.PanelMeter,
}

func (k PanelKind) String() string {
	if name, ok := panelKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("PanelKind(%d)", int(k))
}

// ParsePanelKind converts a configured panel kind name.
func ParsePanelKind(name string) (PanelKind, error) {
	for k, n := range panelKindNames {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown panel kind: '%s'", name)
}

// Panel is one horizontal strip of the visualizer.
type Panel struct {
	Kind   PanelKind
	Height int     // Rows, excluding the title.
	Gain   float64 // Vertical scale.
}

// PanelsFromConfig converts configured panels, rejecting unknown kinds.
func PanelsFromConfig(cfgs []config.PanelConfig) ([]Panel, error) {
	panels := make([]Panel, 0, len(cfgs))
	for i, c := range cfgs {
		kind, err := ParsePanelKind(c.Kind)
		if err != nil {
			return nil, fmt.Errorf("panel %d: %w", i, err)
		}
		gain := c.Gain
		if gain <= 0 {
			gain = 1
		}
		panels = append(panels, Panel{Kind: kind, Height: max(1, c.Height), Gain: gain})
	}
	return panels, nil
}

// panelRenderer draws a panel body of exactly p.Height lines no wider than
// width.
type panelRenderer func(p Panel, f *frameMsg, width int) string

var panelRenderers = map[PanelKind]panelRenderer{
	PanelWaveform: renderWaveform,
	PanelSpectrum: renderSpectrum,
	PanelMeter:    renderMeter,
}

var (
	waveStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#25A065"))
	spectrumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5A56E0"))
	beatStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

// Eighth-block glyphs for sub-row bar heights.
var barGlyphs = []rune(" ▁▂▃▄▅▆▇█")

// renderWaveform plots one phase-locked sample per column, centred on the
// analyzer's CenterSample so a steady tone stands still.
func renderWaveform(p Panel, f *frameMsg, width int) string {
	grid := newGrid(width, p.Height)
	rows := float64(p.Height - 1)
	for x := 0; x < width && x < len(f.waveform); x++ {
		v := clampUnit(float64(f.waveform[x]) * p.Gain)
		y := int(math.Round((1 - v) / 2 * rows))
		grid[y][x] = '•'
	}
	if mid := width / 2; mid < width && p.Height > 1 {
		for y := range grid {
			if grid[y][mid] == ' ' {
				grid[y][mid] = '┊'
			}
		}
	}
	return waveStyle.Render(grid.String())
}

// renderSpectrum draws |DFT| as bars, lowest bin on the left. Columns that
// cover several bins show the loudest.
func renderSpectrum(p Panel, f *frameMsg, width int) string {
	levels := make([]float64, width)
	n := len(f.magnitudes)
	if n > 0 {
		for x := range levels {
			lo := x * n / width
			hi := max(lo+1, (x+1)*n/width)
			for b := lo; b < hi && b < n; b++ {
				levels[x] = max(levels[x], f.magnitudes[b])
			}
			// A full-scale sine peaks at 0.5.
			levels[x] = clampUnit(levels[x] * 2 * p.Gain)
		}
	}

	grid := newGrid(width, p.Height)
	eighths := len(barGlyphs) - 1
	for x, level := range levels {
		fill := int(math.Round(level * float64(p.Height*eighths)))
		for row := range p.Height {
			y := p.Height - 1 - row
			cell := min(eighths, max(0, fill-row*eighths))
			grid[y][x] = barGlyphs[cell]
		}
	}
	if n > 0 && f.maxBin >= 0 && f.maxBin < n {
		if x := f.maxBin * width / n; x < width {
			grid[0][x] = '▾'
		}
	}
	return spectrumStyle.Render(grid.String())
}

// renderMeter shows the scalar features: bass, clock, pitch and bands.
func renderMeter(p Panel, f *frameMsg, width int) string {
	barWidth := max(1, width-12)
	lines := []string{
		fmt.Sprintf("bass   %s", bar(f.bass*p.Gain, barWidth)),
		fmt.Sprintf("chrono %8.2fs  period %7.1f  %7.1f Hz  focus %.2f", f.chrono, f.period, f.frequency, f.focus),
	}
	var bands strings.Builder
	for i, level := range f.bands {
		if i < len(analysis.DefaultBands) {
			fmt.Fprintf(&bands, "%s %s ", analysis.DefaultBands[i].Name, string(barGlyphs[int(math.Max(0, clampUnit(level))*8)]))
		}
	}
	if f.beat {
		bands.WriteString(beatStyle.Render("● beat"))
	}
	lines = append(lines, bands.String())

	out := make([]string, p.Height)
	for i := range out {
		if i < len(lines) {
			out[i] = truncate(lines[i], width)
		}
	}
	return strings.Join(out, "\n")
}

// bar renders a horizontal level meter of the given width.
func bar(level float64, width int) string {
	filled := int(math.Round(clampUnit(level) * float64(width)))
	return strings.Repeat("█", filled) + dimStyle.Render(strings.Repeat("░", width-filled))
}

type grid [][]rune

func newGrid(width, height int) grid {
	g := make(grid, height)
	for y := range g {
		g[y] = []rune(strings.Repeat(" ", width))
	}
	return g
}

func (g grid) String() string {
	lines := make([]string, len(g))
	for y, row := range g {
		lines[y] = string(row)
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}
