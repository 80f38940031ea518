// SPDX-License-Identifier: MIT
package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"lava/internal/analysis"
	"lava/internal/audio"
	"lava/internal/config"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

func lines(s string) []string {
	return strings.Split(ansi.Strip(s), "\n")
}

func TestParsePanelKind(t *testing.T) {
	tests := []struct {
		name    string
		want    PanelKind
		wantErr bool
	}{
		{"waveform", PanelWaveform, false},
		{" Spectrum", PanelSpectrum, false},
		{"METER", PanelMeter, false},
		{"oscilloscope", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePanelKind(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePanelKind(%q) error = %v", tt.name, err)
		}
		if err == nil && got != tt.want {
			t.Errorf("ParsePanelKind(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPanelsFromConfig(t *testing.T) {
	panels, err := PanelsFromConfig(config.NewConfig().Display.Panels)
	if err != nil {
		t.Fatalf("default panels: %v", err)
	}
	if len(panels) != 3 || panels[0].Kind != PanelWaveform || panels[2].Kind != PanelMeter {
		t.Errorf("panels = %+v", panels)
	}

	panels, err = PanelsFromConfig([]config.PanelConfig{{Kind: "meter", Height: 0, Gain: 0}})
	if err != nil {
		t.Fatal(err)
	}
	if panels[0].Height != 1 || panels[0].Gain != 1 {
		t.Errorf("defaults not applied: %+v", panels[0])
	}

	if _, err := PanelsFromConfig([]config.PanelConfig{{Kind: "bogus"}}); err == nil {
		t.Error("expected error for unknown panel kind")
	}
}

func TestPanelDispatchCoversEveryKind(t *testing.T) {
	for kind := range panelKindNames {
		if _, ok := panelRenderers[kind]; !ok {
			t.Errorf("no renderer for %v", kind)
		}
	}
}

func TestPanelRenderersRespectBounds(t *testing.T) {
	f := &frameMsg{
		waveform:   []float32{-2, -1, -0.5, 0, 0.5, 1, 2, 0.1, 0.2, 0.3},
		magnitudes: []float64{0.1, 0.5, 0.3, 0.05, 0.9, 0, 0.2},
		bands:      []float64{0.1, 0.5, 1, 0, 0.3, 0.7},
		maxBin:     1,
		period:     109,
		frequency:  440,
		bass:       0.6,
		chrono:     12.3,
		beat:       true,
	}
	for kind, render := range panelRenderers {
		for _, width := range []int{1, 10, 37} {
			for _, height := range []int{1, 3, 8} {
				p := Panel{Kind: kind, Height: height, Gain: 1}
				out := lines(render(p, f, width))
				if len(out) != height {
					t.Errorf("%v %dx%d: %d lines", kind, width, height, len(out))
				}
				for i, l := range out {
					if w := lipgloss.Width(l); w > width {
						t.Errorf("%v %dx%d: line %d is %d wide", kind, width, height, i, w)
					}
				}
			}
		}
	}
}

func TestRenderWaveformSilence(t *testing.T) {
	f := &frameMsg{waveform: make([]float32, 8)}
	out := lines(renderWaveform(Panel{Height: 5, Gain: 1}, f, 8))
	if out[2] != strings.Repeat("•", 8) {
		t.Errorf("silence should draw the centre row, got %q", out[2])
	}
	if strings.Contains(out[0], "•") || strings.Contains(out[4], "•") {
		t.Error("silence should leave the outer rows empty")
	}
}

func TestRenderSpectrumFullScale(t *testing.T) {
	f := &frameMsg{magnitudes: []float64{0.5, 0.5, 0.5, 0.5}, maxBin: -1}
	out := lines(renderSpectrum(Panel{Height: 3, Gain: 1}, f, 4))
	for y, l := range out {
		if l != "████" {
			t.Errorf("row %d = %q, want full bars", y, l)
		}
	}

	f = &frameMsg{magnitudes: []float64{0, 0, 0, 0}, maxBin: -1}
	out = lines(renderSpectrum(Panel{Height: 2, Gain: 1}, f, 4))
	for y, l := range out {
		if strings.TrimSpace(l) != "" {
			t.Errorf("row %d = %q, want empty", y, l)
		}
	}
}

func TestRenderMeter(t *testing.T) {
	f := &frameMsg{bass: 0.5, chrono: 1.5, period: 100, frequency: 480, bands: []float64{0, 1}, beat: true}
	out := ansi.Strip(renderMeter(Panel{Height: 3, Gain: 1}, f, 80))
	for _, want := range []string{"bass", "chrono", "1.50s", "480.0 Hz", "sub", "bass █", "beat"} {
		if !strings.Contains(out, want) {
			t.Errorf("meter missing %q:\n%s", want, out)
		}
	}
}

func newTestVisualizer(sent *[]tea.Msg) *Visualizer {
	v := &Visualizer{rate: 48000}
	v.width.Store(16)
	v.send = func(m tea.Msg) { *sent = append(*sent, m) }
	return v
}

func TestVisualizerSendCopiesFrame(t *testing.T) {
	var sent []tea.Msg
	v := newTestVisualizer(&sent)

	history := make([]float32, 64)
	for i := range history {
		history[i] = float32(i)
	}
	f := &audio.Frame{
		Seq:       9,
		Timestamp: time.Now(),
		Snapshot: &analysis.Snapshot{
			DFT:          []complex128{3 + 4i, 1},
			MaxBin:       0,
			Period:       100,
			CenterSample: 32,
			Bass:         0.25,
		},
		Bands:   []float64{0.5},
		History: history,
	}
	if err := v.Send(f); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(sent) != 1 {
		t.Fatalf("sent %d messages", len(sent))
	}
	msg := sent[0].(frameMsg)
	if len(msg.waveform) != 16 || msg.waveform[8] != 32 {
		t.Errorf("waveform = %v, want 16 samples centred on 32", msg.waveform)
	}
	if msg.magnitudes[0] != 5 || msg.frequency != 480 || msg.seq != 9 {
		t.Errorf("msg = %+v", msg)
	}

	history[32] = -1
	f.Bands[0] = 0
	if msg.waveform[8] != 32 || msg.bands[0] != 0.5 {
		t.Error("frameMsg aliases frame data")
	}

	if err := v.Send("nope"); err == nil {
		t.Error("expected error for non-frame data")
	}
}

func TestModelUpdate(t *testing.T) {
	var sent []tea.Msg
	v := newTestVisualizer(&sent)
	var requested []float64
	panels, _ := PanelsFromConfig(config.NewConfig().Display.Panels)
	var m tea.Model = newModel(v, panels, 0.5, func(f float64) { requested = append(requested, f) })

	if !strings.Contains(m.View(), "Waiting for audio") {
		t.Error("view before first frame should say waiting")
	}

	m, _ = m.Update(tea.WindowSizeMsg{Width: 60, Height: 40})
	if v.width.Load() != 60 {
		t.Errorf("visualizer width = %d, want 60", v.width.Load())
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	want := []float64{0.55, 0.5, 0.45}
	if len(requested) != len(want) {
		t.Fatalf("focus requests = %v, want %v", requested, want)
	}
	for i := range want {
		if requested[i] != want[i] {
			t.Errorf("focus request %d = %v, want %v", i, requested[i], want[i])
		}
	}

	m, _ = m.Update(frameMsg{waveform: make([]float32, 60), magnitudes: make([]float64, 8), maxBin: 1})
	view := ansi.Strip(m.View())
	for _, name := range []string{"waveform", "spectrum", "meter", "quit"} {
		if !strings.Contains(view, name) {
			t.Errorf("view missing %q", name)
		}
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestModelFocusClamps(t *testing.T) {
	var sent []tea.Msg
	var requested []float64
	var m tea.Model = newModel(newTestVisualizer(&sent), nil, 1, func(f float64) { requested = append(requested, f) })
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if len(requested) != 0 {
		t.Errorf("focus beyond 1 should be ignored, got %v", requested)
	}
}

var testDevices = []audio.Device{
	{ID: 0, Name: "Speakers", MaxOutputChannels: 2, DefaultSampleRate: 44100},
	{ID: 1, Name: "USB Mic", MaxInputChannels: 1, DefaultSampleRate: 96000, IsDefaultInput: true},
	{ID: 2, Name: "Interface", MaxInputChannels: 8, MaxOutputChannels: 8, DefaultSampleRate: 48000},
}

func TestDeviceListSelection(t *testing.T) {
	m := NewDeviceListModel(func() ([]audio.Device, error) { return testDevices, nil })
	msg := m.Init()()

	var model tea.Model = m
	model, _ = model.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	model, _ = model.Update(msg)

	// The first input device is preselected.
	if got := model.(DeviceListModel).selectedIndex; got != 1 {
		t.Fatalf("selectedIndex = %d, want 1", got)
	}
	if !strings.Contains(ansi.Strip(model.View()), "USB Mic *") {
		t.Error("list should mark the default input")
	}

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyDown})
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if model.(DeviceListModel).activeScreen != ConfigScreen {
		t.Fatal("enter should open the configuration screen")
	}
	if !strings.Contains(ansi.Strip(model.View()), "Configure Device: Interface") {
		t.Error("configuration screen should name the device")
	}

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyDown})
	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	sel := model.(DeviceListModel).Selection()
	if sel == nil || sel.DeviceID != 2 || sel.SampleRate != 88200 {
		t.Errorf("Selection = %+v, want device 2 at 88200 Hz", sel)
	}
	if cmd == nil {
		t.Fatal("confirming should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("confirming should quit")
	}
}

func TestDeviceListRejectsOutputOnly(t *testing.T) {
	var model tea.Model = NewDeviceListModel(nil)
	model, _ = model.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	model, _ = model.Update(devicesMsg{devices: testDevices})
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyUp})
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if model.(DeviceListModel).activeScreen != ListScreen {
		t.Error("output-only device must not be selectable")
	}
}

func TestDeviceListError(t *testing.T) {
	m := NewDeviceListModel(func() ([]audio.Device, error) { return nil, errors.New("no portaudio") })
	var model tea.Model = m
	model, _ = model.Update(m.Init()())
	if !strings.Contains(model.View(), "no portaudio") {
		t.Errorf("view = %q", model.View())
	}
	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if cmd == nil {
		t.Error("any key should exit after an error")
	}
}

func TestRenderDeviceList(t *testing.T) {
	out := ansi.Strip(RenderDeviceList(testDevices))
	for _, want := range []string{"Available Audio Devices", "[0] Speakers (Output)", "[1] USB Mic * (Input)", "(Input/Output)", "96000 Hz"} {
		if !strings.Contains(out, want) {
			t.Errorf("device list missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(ansi.Strip(RenderDeviceList(nil)), "No audio devices found.") {
		t.Error("empty list message missing")
	}
}
