// SPDX-License-Identifier: MIT
/*
Package audio captures live input with PortAudio and drives the analysis
frame loop:
  - Stream down-mixes each callback block to mono and queues it
  - The noise gate silences blocks below a peak threshold
  - Recording writes the mono capture to a WAV file
  - Engine drains the queue once per frame, feeds the analyzer and fans the
    result out to sinks

Thread Safety:
  - The PortAudio callback and the frame loop share only the sample queue,
    which is guarded by a mutex held for a copy at most
  - Gate and recording state are atomic
  - The analyzer is touched only by the frame loop
*/
package audio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"lava/internal/config"
	applog "lava/internal/log"
	"lava/pkg/bitint"
	"lava/pkg/ring"

	"github.com/gordonklaus/portaudio"
)

var logger = applog.Named("capture")

// Stream is a mono capture stream. Samples() hands everything captured since
// the previous call to the frame loop.
type Stream struct {
	config config.AudioConfig

	// Audio input handling.
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream
	mono         []float32 // Callback scratch, one mono block.

	// Hand-off queue between the callback and the frame loop.
	mu      sync.Mutex
	queue   *ring.Buffer[float32]
	drained []float32
	dropped atomic.Uint64

	// Noise gate for signal conditioning.
	gateEnabled   atomic.Bool
	gateThreshold atomic.Uint64 // math.Float64bits of the peak threshold.

	// Recording state and buffers.
	isRecording int32 // Atomic flag for thread-safe state
	recMu       sync.Mutex
	recording   *recorder
	bitDepth    int
}

// NewStream resolves the configured input device and prepares a stream. The
// stream is not started.
func NewStream(cfg *config.Config) (*Stream, error) {
	inputDevice, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}
	s := newStream(cfg.Audio, inputDevice)
	s.bitDepth = cfg.Recording.BitDepth
	return s, nil
}

func newStream(cfg config.AudioConfig, device *portaudio.DeviceInfo) *Stream {
	capacity := bitint.NextPowerOfTwo(max(cfg.StoreBufferSize, cfg.FramesPerBuffer))
	s := &Stream{
		config:      cfg,
		inputDevice: device,
		mono:        make([]float32, cfg.FramesPerBuffer),
		queue:       ring.New[float32](capacity, 0),
		drained:     make([]float32, 0, capacity),
		bitDepth:    config.DefaultBitDepth,
	}
	s.gateEnabled.Store(cfg.GateEnabled)
	s.SetGateThreshold(cfg.GateThreshold)

	if device != nil {
		if cfg.LowLatency {
			s.inputLatency = device.DefaultLowInputLatency
		} else {
			s.inputLatency = device.DefaultHighInputLatency
		}
	}

	logger.Debugf("Initializing stream (Channels: %d, Frames: %d, Queue: %d, Gate: %v)",
		cfg.InputChannels, cfg.FramesPerBuffer, capacity, cfg.GateEnabled)
	return s
}

// Start opens the PortAudio input stream and begins capture.
func (s *Stream) Start() error {
	if s.inputDevice == nil {
		return fmt.Errorf("no input device")
	}
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: s.config.InputChannels,
			Device:   s.inputDevice,
			Latency:  s.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: s.config.FramesPerBuffer,
		SampleRate:      s.config.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, s.processInputStream)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	s.inputStream = stream

	if err := s.inputStream.Start(); err != nil {
		s.inputStream.Close()
		s.inputStream = nil
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	logger.Infof("Capturing from %q (%d ch @ %.0f Hz, latency %v)",
		s.inputDevice.Name, s.config.InputChannels, s.config.SampleRate, s.inputLatency)
	return nil
}

// Stop stops and closes the PortAudio stream. It is a no-op when not started.
func (s *Stream) Stop() error {
	if s.inputStream == nil {
		return nil
	}
	if err := s.inputStream.Stop(); err != nil {
		return err
	}
	if err := s.inputStream.Close(); err != nil {
		return err
	}
	s.inputStream = nil
	return nil
}

// Close stops any recording and the stream.
func (s *Stream) Close() error {
	if err := s.StopRecording(); err != nil {
		return err
	}
	return s.Stop()
}

// Samples returns, in arrival order, every mono sample captured since the
// previous call, possibly none. The returned slice is reused by the next
// call. It never blocks on the audio device.
func (s *Stream) Samples() []float32 {
	s.mu.Lock()
	s.drained = s.queue.Drain(s.drained[:0])
	s.mu.Unlock()
	return s.drained
}

// Dropped returns the number of samples evicted because the frame loop fell
// behind.
func (s *Stream) Dropped() uint64 {
	return s.dropped.Load()
}

// processInputStream is the PortAudio callback. It runs on the audio thread
// and uses preallocated buffers only.
func (s *Stream) processInputStream(in []float32) {
	mono := downmix(s.mono, in, max(1, s.config.InputChannels))

	if s.gateEnabled.Load() && blockPeak(mono) < s.GateThreshold() {
		clear(mono)
	}

	if atomic.LoadInt32(&s.isRecording) == 1 {
		s.writeRecording(mono)
	}

	s.mu.Lock()
	var dropped uint64
	for _, v := range mono {
		if s.queue.Full() {
			dropped++
		}
		s.queue.Push(v)
	}
	s.mu.Unlock()
	if dropped > 0 {
		s.dropped.Add(dropped)
	}
}

// downmix averages interleaved frames into dst and returns the filled
// prefix.
func downmix(dst, in []float32, channels int) []float32 {
	frames := min(len(in)/channels, len(dst))
	dst = dst[:frames]
	if channels == 1 {
		copy(dst, in)
		return dst
	}
	scale := 1 / float32(channels)
	for i := range dst {
		var sum float32
		for _, v := range in[i*channels : (i+1)*channels] {
			sum += v
		}
		dst[i] = sum * scale
	}
	return dst
}
