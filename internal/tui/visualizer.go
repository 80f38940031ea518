// SPDX-License-Identifier: MIT
/*
Package tui renders analysis frames in the terminal with Bubble Tea and lists
audio devices.

Frames reach the model through Visualizer.Send, which runs on the frame loop
goroutine. Send copies everything a view needs out of the frame, so the
renderer never touches the analyzer's history after Send returns.
*/
package tui

import (
	"fmt"
	"math"
	"sync/atomic"

	"lava/internal/audio"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// focusStep is how far one key press moves the waveform focus.
const focusStep = 0.05

// frameMsg is the renderer's private copy of one frame.
type frameMsg struct {
	seq        uint64
	waveform   []float32
	magnitudes []float64
	bands      []float64
	maxBin     int
	period     float64
	frequency  float64
	focus      float64
	bass       float64
	chrono     float64
	beat       bool
}

type keyMap struct {
	Left  key.Binding
	Right key.Binding
	Quit  key.Binding
}

var keys = keyMap{
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←", "focus earlier"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→", "focus later"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Visualizer owns the Bubble Tea program and is the engine sink feeding it.
type Visualizer struct {
	program *tea.Program
	send    func(tea.Msg)
	width   atomic.Int32 // Current terminal width, read by Send.
	rate    float64      // Sample rate for period to Hz.
}

// NewVisualizer builds the program. focus is called with the new focus when
// the user moves it; it must be safe to call from the UI goroutine.
func NewVisualizer(panels []Panel, sampleRate, initialFocus float64, focus func(float64), opts ...tea.ProgramOption) *Visualizer {
	v := &Visualizer{rate: sampleRate}
	v.width.Store(80)
	v.program = tea.NewProgram(newModel(v, panels, initialFocus, focus), opts...)
	v.send = v.program.Send
	return v
}

// Run blocks until the user quits or Quit is called.
func (v *Visualizer) Run() error {
	_, err := v.program.Run()
	return err
}

// Quit stops the program from another goroutine.
func (v *Visualizer) Quit() {
	v.program.Quit()
}

// Send implements the engine sink. It copies the phase-locked waveform for
// the current width and the bin magnitudes.
func (v *Visualizer) Send(data any) error {
	f, ok := data.(*audio.Frame)
	if !ok {
		return fmt.Errorf("unsupported data type %T", data)
	}
	s := f.Snapshot
	msg := frameMsg{
		seq:        f.Seq,
		waveform:   f.Waveform(nil, int(v.width.Load())),
		magnitudes: s.Magnitudes(nil),
		bands:      append([]float64(nil), f.Bands...),
		maxBin:     s.MaxBin,
		period:     s.Period,
		focus:      s.Focus,
		bass:       s.Bass,
		chrono:     s.Chrono,
		beat:       f.Beat,
	}
	if s.Period > 0 {
		msg.frequency = v.rate / s.Period
	}
	v.send(msg)
	return nil
}

// Close stops the program.
func (v *Visualizer) Close() error {
	v.Quit()
	return nil
}

type model struct {
	vis     *Visualizer
	panels  []Panel
	frame   *frameMsg
	focus   float64
	onFocus func(float64)
	width   int
	height  int
	frames  uint64
}

func newModel(v *Visualizer, panels []Panel, focus float64, onFocus func(float64)) model {
	return model{
		vis:     v,
		panels:  panels,
		focus:   focus,
		onFocus: onFocus,
		width:   int(v.width.Load()),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = max(1, msg.Width), msg.Height
		m.vis.width.Store(int32(m.width))

	case frameMsg:
		m.frame = &msg
		m.frames++

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Left):
			m.setFocus(m.focus - focusStep)
		case key.Matches(msg, keys.Right):
			m.setFocus(m.focus + focusStep)
		}
	}
	return m, nil
}

func (m *model) setFocus(f float64) {
	f = math.Round(math.Max(0, math.Min(1, f))*100) / 100
	if f == m.focus {
		return
	}
	m.focus = f
	if m.onFocus != nil {
		m.onFocus(f)
	}
}

func (m model) View() string {
	title := titleStyle.Render("lava")
	help := infoStyle.Render(fmt.Sprintf("%s/%s: focus %.2f • %s: quit",
		keys.Left.Help().Key, keys.Right.Help().Key, m.focus, keys.Quit.Help().Key))

	if m.frame == nil {
		return fmt.Sprintf("%s\n\nWaiting for audio...\n\n%s", title, help)
	}

	sections := []string{title}
	for _, p := range m.panels {
		render, ok := panelRenderers[p.Kind]
		if !ok {
			continue
		}
		sections = append(sections,
			dimStyle.Render(p.Kind.String()),
			render(p, m.frame, m.width))
	}
	sections = append(sections, help)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
