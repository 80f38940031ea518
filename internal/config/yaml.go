// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	applog "lava/internal/log"
	"lava/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid configuration")

var logger = applog.Named("config")

// defaultCandidates are searched, in order, when LoadConfig gets an empty path.
var defaultCandidates = []string{
	"config.yaml",
	"lava.yaml",
}

// LoadConfig loads configuration from a YAML file specified by path. If path is
// empty, it searches the default locations. If no file is found, it uses the
// built-in defaults. Environment overrides are applied after the file, then
// the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		for _, candidate := range defaultCandidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		logger.Debugf("loaded %s", path)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and cross-field constraints.
func (c *Config) Validate() error {
	invalid := func(format string, v ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, v...))
	}

	a := c.Audio
	if a.InputDevice < MinDeviceID {
		return invalid("audio.input_device must be >= %d, got %d", MinDeviceID, a.InputDevice)
	}
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		return invalid("audio.sample_rate must be in [%d, %d], got %g", MinSampleRate, MaxSampleRate, a.SampleRate)
	}
	if a.FramesPerBuffer <= 0 || a.FramesPerBuffer > MaxBufferFrames {
		return invalid("audio.frames_per_buffer must be in (0, %d], got %d", MaxBufferFrames, a.FramesPerBuffer)
	}
	if !bitint.IsPowerOfTwo(a.FramesPerBuffer) {
		logger.Warnf("audio.frames_per_buffer %d is not a power of two, some host APIs will re-block", a.FramesPerBuffer)
	}
	if a.InputChannels < 1 || a.InputChannels > MaxChannels {
		return invalid("audio.input_channels must be in [1, %d], got %d", MaxChannels, a.InputChannels)
	}
	if a.StoreBufferSize < a.FramesPerBuffer {
		return invalid("audio.store_buffer_size (%d) must hold at least one callback (%d frames)",
			a.StoreBufferSize, a.FramesPerBuffer)
	}
	if a.GateThreshold < 0 || a.GateThreshold > 1 {
		return invalid("audio.gate_threshold must be in [0, 1], got %g", a.GateThreshold)
	}

	an := c.Analysis
	if an.BufferSize/2 <= 1 {
		return invalid("analysis.buffer_size must be at least 4, got %d", an.BufferSize)
	}
	if an.BinCount <= 0 {
		return invalid("analysis.bin_count must be positive, got %d", an.BinCount)
	}
	if an.Focus < 0 || an.Focus > 1 {
		return invalid("analysis.focus must be in [0, 1], got %g", an.Focus)
	}
	if an.TaperShape <= 0 {
		return invalid("analysis.taper_shape must be positive, got %g", an.TaperShape)
	}

	if c.Recording.Enabled && !ValidBitDepth(c.Recording.BitDepth) {
		return invalid("recording.bit_depth must be 16, 24 or 32, got %d", c.Recording.BitDepth)
	}

	t := c.Transport
	if t.UDPEnabled {
		if !strings.Contains(t.UDPTargetAddress, ":") {
			return invalid("transport.udp_target_address %q appears invalid (missing port?)", t.UDPTargetAddress)
		}
		if t.UDPSendInterval <= 0 {
			return invalid("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}
	if t.WebSocketEnabled && !strings.Contains(t.WebSocketAddress, ":") {
		return invalid("transport.websocket_address %q appears invalid (missing port?)", t.WebSocketAddress)
	}

	d := c.Display
	if d.FrameRate <= 0 || d.FrameRate > MaxFrameRate {
		return invalid("display.frame_rate must be in (0, %d], got %d", MaxFrameRate, d.FrameRate)
	}
	for i, p := range d.Panels {
		switch p.Kind {
		case PanelWaveform, PanelSpectrum, PanelMeter:
		default:
			return invalid("display.panels[%d].kind %q is unknown", i, p.Kind)
		}
		if p.Height <= 0 {
			return invalid("display.panels[%d].height must be positive, got %d", i, p.Height)
		}
	}

	return nil
}

// applyEnvOverrides applies LAVA_* environment variables on top of the file.
// Unparseable values are logged and ignored.
func (c *Config) applyEnvOverrides() {
	boolEnv := func(name string, dst *bool) {
		if val, ok := os.LookupEnv(name); ok {
			b, err := strconv.ParseBool(val)
			if err != nil {
				logger.Warnf("ignoring %s=%q: %v", name, val, err)
				return
			}
			*dst = b
			logger.Infof("overriding from %s: %v", name, b)
		}
	}
	stringEnv := func(name string, dst *string) {
		if val, ok := os.LookupEnv(name); ok {
			*dst = val
			logger.Infof("overriding from %s: %s", name, val)
		}
	}

	boolEnv("LAVA_DEBUG", &c.Debug)
	stringEnv("LAVA_LOG_LEVEL", &c.LogLevel)

	// LAVA_SAMPLE_RATE
	if val, ok := os.LookupEnv("LAVA_SAMPLE_RATE"); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			c.Audio.SampleRate = f
			logger.Infof("overriding from LAVA_SAMPLE_RATE: %g", f)
		} else {
			logger.Warnf("ignoring LAVA_SAMPLE_RATE=%q: %v", val, err)
		}
	}

	boolEnv("LAVA_WS_ENABLED", &c.Transport.WebSocketEnabled)
	stringEnv("LAVA_WS_ADDRESS", &c.Transport.WebSocketAddress)

	boolEnv("LAVA_UDP_ENABLED", &c.Transport.UDPEnabled)
	stringEnv("LAVA_UDP_TARGET_ADDRESS", &c.Transport.UDPTargetAddress)

	// LAVA_UDP_SEND_INTERVAL
	if val, ok := os.LookupEnv("LAVA_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Transport.UDPSendInterval = dur
			logger.Infof("overriding from LAVA_UDP_SEND_INTERVAL: %s", dur)
		} else {
			logger.Warnf("ignoring LAVA_UDP_SEND_INTERVAL=%q: %v", val, err)
		}
	}
}
