// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"lava/cmd"
	"lava/internal/analysis"
	"lava/internal/audio"
	"lava/internal/config"
	applog "lava/internal/log"
	"lava/internal/stats"
	"lava/internal/transport"
	"lava/internal/transport/udp"
	"lava/internal/tui"
	"lava/pkg/build"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

var logger = applog.Named("main")

// main is the entry point for the analyzer.
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information and configuration
//   - Initialize PortAudio
//   - Execute one-off commands if requested
//
// 2. Concurrent Phase (Hot Path):
//   - Start the capture stream and the frame loop
//   - Publish frames to the visualizer and transports
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals or the visualizer quitting
//   - Stop recording and release the stream and transports
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	if err := build.Initialize(); err != nil {
		logger.Fatalf("%v", err)
	}

	cfg, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg == nil {
		return
	}
	applyLogLevel(cfg)

	if cfg.Command == cmd.CommandVersion {
		fmt.Println(build.GetBuildFlags())
		return
	}

	if err := run(cfg); err != nil {
		logger.Fatalf("%v", err)
	}
}

func applyLogLevel(cfg *config.Config) {
	level, ok := applog.ParseLevel(cfg.LogLevel)
	if !ok {
		logger.Warnf("Unknown log level %q, using %s", cfg.LogLevel, applog.LevelInfo)
		level = applog.LevelInfo
	}
	if cfg.Debug {
		level = applog.LevelDebug
	}
	applog.SetLevel(level)
}

func run(cfg *config.Config) error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer func() {
		if err := audio.Terminate(); err != nil {
			logger.Errorf("%v", err)
		}
	}()

	// Handle one-off commands that don't require the frame loop
	switch cfg.Command {
	case cmd.CommandList:
		devices, err := audio.HostDevices()
		if err != nil {
			return err
		}
		fmt.Print(tui.RenderDeviceList(devices))
		return nil

	case cmd.CommandSelect:
		sel, err := tui.SelectDevice(audio.HostDevices)
		if err != nil {
			return err
		}
		if sel == nil {
			return nil
		}
		cfg.Audio.InputDevice = sel.DeviceID
		cfg.Audio.SampleRate = sel.SampleRate
	}

	return capture(cfg)
}

func capture(cfg *config.Config) error {
	taper, err := analysis.ParseTaperFunc(cfg.Analysis.Taper)
	if err != nil {
		return err
	}
	analyzer, err := analysis.NewAnalyzer(analysis.Options{
		BufferSize: cfg.Analysis.BufferSize,
		BinCount:   cfg.Analysis.BinCount,
		SampleRate: cfg.Audio.SampleRate,
		Focus:      cfg.Analysis.Focus,
		Taper:      taper,
		TaperShape: cfg.Analysis.TaperShape,
	})
	if err != nil {
		return err
	}

	stream, err := audio.NewStream(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := stream.Close(); err != nil {
			logger.Errorf("Error closing stream: %v", err)
		}
	}()

	engine := audio.NewEngine(stream, analyzer)

	var timer *stats.FrameTimer
	if cfg.Display.TimeFrames {
		timer = stats.NewFrameTimer(stats.DefaultWindow)
		engine.SetFrameTimer(timer)
	}

	closeTransports, err := addTransports(cfg, engine)
	defer closeTransports()
	if err != nil {
		return err
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	if err := stream.Start(); err != nil {
		return err
	}

	if cfg.Recording.Enabled {
		if err := stream.StartRecording(cfg.Recording.OutputFile); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Display.TUI && term.IsTerminal(int(os.Stdout.Fd())) {
		err = runVisualizer(ctx, cfg, engine)
	} else {
		logger.Infof("Running headless, press Ctrl+C to stop")
		err = engine.Run(ctx, cfg.FrameInterval())
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if cfg.Recording.Enabled {
		if stopErr := stream.StopRecording(); stopErr != nil {
			logger.Errorf("Error stopping recording: %v", stopErr)
		} else {
			fmt.Printf("Recording saved to: %s\n", cfg.Recording.OutputFile)
		}
	}
	if dropped := stream.Dropped(); dropped > 0 {
		logger.Warnf("Dropped %d samples, the frame loop fell behind capture", dropped)
	}
	if timer != nil {
		fmt.Println(timer.Summary())
	}
	return err
}

// addTransports registers the configured network and logging sinks. The
// returned func closes everything that was opened, even on error.
func addTransports(cfg *config.Config, engine *audio.Engine) (func(), error) {
	var opened []transport.Transport
	closeAll := func() {
		for _, t := range opened {
			if err := t.Close(); err != nil {
				logger.Errorf("Error closing transport: %v", err)
			}
		}
	}

	tc := cfg.Transport
	if tc.WebSocketEnabled {
		ws, err := transport.NewWebSocketTransport(tc.WebSocketAddress)
		if err != nil {
			return closeAll, err
		}
		opened = append(opened, ws)
		engine.AddSink(ws)
		logger.Infof("Serving frames on ws://%s/ws", ws.Addr())
	}

	if tc.UDPEnabled {
		sender, err := udp.NewSender(tc.UDPTargetAddress)
		if err != nil {
			return closeAll, err
		}
		pub, err := udp.NewPublisher(tc.UDPSendInterval, sender)
		if err != nil {
			sender.Close()
			return closeAll, err
		}
		pub.Start()
		opened = append(opened, pub)
		engine.AddSink(pub)
		logger.Infof("Publishing frames to udp://%s every %v", tc.UDPTargetAddress, tc.UDPSendInterval)
	}

	if tc.LogFrames {
		lt := transport.NewLoggingTransport()
		opened = append(opened, lt)
		engine.AddSink(lt)
	}
	return closeAll, nil
}

// runVisualizer runs the frame loop in the background and the terminal UI in
// the foreground until either the user quits or ctx is cancelled.
func runVisualizer(ctx context.Context, cfg *config.Config, engine *audio.Engine) error {
	panels, err := tui.PanelsFromConfig(cfg.Display.Panels)
	if err != nil {
		return err
	}

	// Log lines would tear the alternate screen.
	logOut := io.Discard
	if cfg.Debug {
		f, err := os.OpenFile("lava.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open debug log: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	applog.SetOutput(logOut)
	defer applog.SetOutput(os.Stderr)

	vis := tui.NewVisualizer(panels, cfg.Audio.SampleRate, cfg.Analysis.Focus, engine.RequestFocus, tea.WithAltScreen())
	engine.AddSink(vis)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- engine.Run(ctx, cfg.FrameInterval())
	}()
	go func() {
		<-ctx.Done()
		vis.Quit()
	}()

	err = vis.Run()
	cancel()
	if runErr := <-loopErr; err == nil {
		err = runErr
	}
	return err
}
