// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"time"

	"lava/internal/config"
	"lava/pkg/build"

	"github.com/spf13/cobra"
)

// Commands set on Config.Command.
const (
	CommandList    = "list"
	CommandSelect  = "select"
	CommandVersion = "version"
)

// flagValues holds raw flag values. Only flags the user actually set are
// copied over the loaded configuration.
type flagValues struct {
	configPath      string
	deviceID        int
	sampleRate      float64
	framesPerBuffer int
	channels        int
	lowLatency      bool
	record          bool
	outputFile      string
	verbose         bool
	noTUI           bool
	wsAddress       string
	udpTarget       string
	focus           float64
	taper           string
	gate            float64
	logFrames       bool
}

// ParseArgs parses args (without the program name), loads the configuration
// file and applies flag overrides. A nil config with a nil error means cobra
// already handled the invocation (help) and there is nothing to run.
func ParseArgs(args []string) (*config.Config, error) {
	buildInfo := build.GetBuildFlags()
	var (
		flags   flagValues
		options *config.Config
		command string
	)

	load := func(cmd *cobra.Command) error {
		cfg, err := config.LoadConfig(flags.configPath)
		if err != nil {
			return err
		}
		applyFlags(cmd, cfg, &flags)
		if err := cfg.Validate(); err != nil {
			return err
		}
		cfg.Command = command
		options = cfg
		return nil
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return load(cmd)
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   CommandList,
			Short: "List available audio devices",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				command = CommandList
				return load(cmd)
			},
		},
		&cobra.Command{
			Use:   CommandSelect,
			Short: "Pick an input device and sample rate interactively, then run",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				command = CommandSelect
				return load(cmd)
			},
		},
		&cobra.Command{
			Use:   CommandVersion,
			Short: "Print build information",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				options = config.NewConfig()
				options.Command = CommandVersion
				return nil
			},
		},
	)

	pf := rootCmd.PersistentFlags()

	// Configuration file
	pf.StringVar(&flags.configPath, "config", "",
		"Path to a YAML configuration file (default: ./config.yaml or ./lava.yaml if present)")

	// Audio Device Configuration
	pf.IntVarP(&flags.deviceID, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	pf.IntVarP(&flags.channels, "channels", "c", config.DefaultChannels,
		"Number of channels to capture before the mono down-mix")
	pf.Float64VarP(&flags.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	pf.IntVarP(&flags.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	pf.BoolVarP(&flags.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode for real-time processing")
	pf.Float64Var(&flags.gate, "gate", config.DefaultGateThreshold,
		"Enable the noise gate with this peak threshold in [0,1]")

	// Analysis Configuration
	pf.Float64VarP(&flags.focus, "focus", "f", config.DefaultFocus,
		"Waveform focus in [0,1], 0 is the oldest sample in the history")
	pf.StringVar(&flags.taper, "taper", config.DefaultTaper,
		"Bin window taper: bump, hann, hamming, blackman, blackman-harris, nuttall")

	// Recording Configuration
	pf.BoolVarP(&flags.record, "record", "r", config.DefaultRecordInputStream,
		"Record audio from the specified input device")
	pf.StringVarP(&flags.outputFile, "output", "o", config.DefaultOutputFile,
		"Output file name. Default is recording-DD-MM-YYYY-HHMMSS.wav")

	// Transport Configuration
	pf.StringVar(&flags.wsAddress, "ws", "",
		"Serve frames over WebSocket on this address (e.g. :8080)")
	pf.StringVar(&flags.udpTarget, "udp", "",
		"Publish binary frames over UDP to this address (e.g. 127.0.0.1:9090)")
	pf.BoolVar(&flags.logFrames, "log-frames", false,
		"Log a summary of every frame at debug level")

	// Display and Debug Configuration
	pf.BoolVar(&flags.noTUI, "no-tui", false,
		"Run headless without the terminal visualizer")
	pf.BoolVarP(&flags.verbose, "verbose", "v", config.DefaultVerbosity,
		"Show verbose output")

	// Execute the CLI
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return options, nil
}

// applyFlags copies every flag the user set onto cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config, f *flagValues) {
	set := cmd.Flags().Changed

	if set("device") {
		cfg.Audio.InputDevice = f.deviceID
	}
	if set("channels") {
		cfg.Audio.InputChannels = f.channels
	}
	if set("sample-rate") {
		cfg.Audio.SampleRate = f.sampleRate
	}
	if set("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = f.framesPerBuffer
		cfg.Audio.StoreBufferSize = max(cfg.Audio.StoreBufferSize, f.framesPerBuffer)
	}
	if set("low-latency") {
		cfg.Audio.LowLatency = f.lowLatency
	}
	if set("gate") {
		cfg.Audio.GateEnabled = true
		cfg.Audio.GateThreshold = f.gate
	}
	if set("focus") {
		cfg.Analysis.Focus = f.focus
	}
	if set("taper") {
		cfg.Analysis.Taper = f.taper
	}
	if set("record") {
		cfg.Recording.Enabled = f.record
	}
	if set("output") {
		cfg.Recording.OutputFile = f.outputFile
	}
	if set("ws") {
		cfg.Transport.WebSocketEnabled = true
		cfg.Transport.WebSocketAddress = f.wsAddress
	}
	if set("udp") {
		cfg.Transport.UDPEnabled = true
		cfg.Transport.UDPTargetAddress = f.udpTarget
	}
	if set("log-frames") {
		cfg.Transport.LogFrames = f.logFrames
	}
	if set("no-tui") {
		cfg.Display.TUI = !f.noTUI
	}
	if set("verbose") && f.verbose {
		cfg.Debug = true
	}

	// Defaults
	if cfg.Recording.Enabled && cfg.Recording.OutputFile == "" {
		cfg.Recording.OutputFile = defaultOutputFile(time.Now())
	}
}

func defaultOutputFile(now time.Time) string {
	return fmt.Sprintf("recording-%s.wav", now.UTC().Format("02-01-2006-150405"))
}
