// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for capture, analysis and output.
const (
	// Capture defaults.
	DefaultDeviceID        = MinDeviceID // System default input device
	DefaultChannels        = 1           // Mono capture
	DefaultSampleRate      = 48000       // Hz
	DefaultFramesPerBuffer = 512         // PortAudio callback size
	DefaultStoreBufferSize = 2048        // Capture queue between callback and frame loop
	DefaultLowLatency      = false       // Standard latency mode
	DefaultGateEnabled     = false       // Noise gate off, the analyzer has its own AGC
	DefaultGateThreshold   = 0.001       // ~-60 dBFS

	// Analysis defaults.
	DefaultBufferSize = 8192   // Retained history in samples
	DefaultBinCount   = 256    // Log-spaced frequency bins
	DefaultFocus      = 0.5    // Centre the waveform in the middle of the history
	DefaultTaper      = "bump" // Analytic bump taper
	DefaultTaperShape = 10.0   // Bump sharpness

	// Recording defaults.
	DefaultRecordInputStream = false
	DefaultOutputFile        = "" // Auto-generated filename
	DefaultBitDepth          = 16

	// Transport defaults.
	DefaultWebSocketAddress = ":8080"
	DefaultUDPTargetAddress = "127.0.0.1:9090"
	DefaultUDPSendInterval  = 33 * time.Millisecond // ~30Hz

	// Display defaults.
	DefaultFrameRate  = 60
	DefaultTimeFrames = true
	DefaultVerbosity  = false
	DefaultLogLevel   = "info"

	// Hardware and processing limits.
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Hz
	MaxSampleRate   = 192000 // Hz
	MaxBufferFrames = 8192   // Maximum frames per PortAudio buffer
	MaxChannels     = 32
	MaxFrameRate    = 240
)

// Panel kinds understood by the terminal renderer.
const (
	PanelWaveform = "waveform"
	PanelSpectrum = "spectrum"
	PanelMeter    = "meter"
)

// Config is the complete runtime configuration, loaded from YAML and then
// overridden by environment variables and command line flags.
type Config struct {
	Debug     bool            `yaml:"debug"`
	LogLevel  string          `yaml:"log_level"`
	Command   string          `yaml:"-"` // One-off command from the CLI ("list", "version").
	Audio     AudioConfig     `yaml:"audio"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
	Display   DisplayConfig   `yaml:"display"`
}

// AudioConfig holds capture settings.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Hz.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per PortAudio callback.
	InputChannels   int     `yaml:"input_channels"`    // Channels captured before the mono down-mix.
	StoreBufferSize int     `yaml:"store_buffer_size"` // Capture queue capacity in mono samples.
	LowLatency      bool    `yaml:"low_latency"`       // Request the device's low input latency.
	GateEnabled     bool    `yaml:"gate_enabled"`      // Silence callback blocks below GateThreshold.
	GateThreshold   float64 `yaml:"gate_threshold"`    // Peak amplitude in [0,1].
}

// AnalysisConfig holds analyzer construction parameters.
type AnalysisConfig struct {
	BufferSize int     `yaml:"buffer_size"` // Retained sample history.
	BinCount   int     `yaml:"bin_count"`   // Number of log-spaced bins.
	Focus      float64 `yaml:"focus"`       // Waveform centre in [0,1], 0 = oldest.
	Taper      string  `yaml:"taper"`       // "bump" or a named window (hann, blackman, ...).
	TaperShape float64 `yaml:"taper_shape"` // Bump sharpness A.
}

// RecordingConfig holds WAV recording settings.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	OutputFile string `yaml:"output_file"`
	BitDepth   int    `yaml:"bit_depth"` // 16, 24 or 32.
}

// TransportConfig holds settings for publishing analysis frames.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`
	WebSocketAddress string        `yaml:"websocket_address"`
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"`
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`
	LogFrames        bool          `yaml:"log_frames"` // Debug-log a summary of every frame.
}

// DisplayConfig holds frame loop and renderer settings.
type DisplayConfig struct {
	TUI        bool          `yaml:"tui"`
	FrameRate  int           `yaml:"frame_rate"`
	TimeFrames bool          `yaml:"time_frames"` // Print frame timing statistics on exit.
	Panels     []PanelConfig `yaml:"panels"`
}

// PanelConfig describes one renderer panel.
type PanelConfig struct {
	Kind   string  `yaml:"kind"`
	Height int     `yaml:"height"`
	Gain   float64 `yaml:"gain"`
}

// NewConfig returns a Config populated with the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Debug:    DefaultVerbosity,
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			InputChannels:   DefaultChannels,
			StoreBufferSize: DefaultStoreBufferSize,
			LowLatency:      DefaultLowLatency,
			GateEnabled:     DefaultGateEnabled,
			GateThreshold:   DefaultGateThreshold,
		},
		Analysis: AnalysisConfig{
			BufferSize: DefaultBufferSize,
			BinCount:   DefaultBinCount,
			Focus:      DefaultFocus,
			Taper:      DefaultTaper,
			TaperShape: DefaultTaperShape,
		},
		Recording: RecordingConfig{
			Enabled:    DefaultRecordInputStream,
			OutputFile: DefaultOutputFile,
			BitDepth:   DefaultBitDepth,
		},
		Transport: TransportConfig{
			WebSocketAddress: DefaultWebSocketAddress,
			UDPTargetAddress: DefaultUDPTargetAddress,
			UDPSendInterval:  DefaultUDPSendInterval,
		},
		Display: DisplayConfig{
			TUI:        true,
			FrameRate:  DefaultFrameRate,
			TimeFrames: DefaultTimeFrames,
			Panels: []PanelConfig{
				{Kind: PanelWaveform, Height: 12, Gain: 0.75},
				{Kind: PanelSpectrum, Height: 10, Gain: 1},
				{Kind: PanelMeter, Height: 3, Gain: 1},
			},
		},
	}
}

// ValidBitDepth reports whether the WAV recorder can write PCM at depth bits.
func ValidBitDepth(depth int) bool {
	return depth == 16 || depth == 24 || depth == 32
}

// FrameInterval returns the frame loop period derived from FrameRate.
func (c *Config) FrameInterval() time.Duration {
	if c.Display.FrameRate <= 0 {
		return time.Second / DefaultFrameRate
	}
	return time.Second / time.Duration(c.Display.FrameRate)
}
