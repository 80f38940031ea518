// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"lava/internal/config"

	"github.com/go-audio/wav"
)

func TestRecordingStartStop(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "test_recording.wav")
	s := newStream(testAudioConfig(2, 2048), nil)

	if err := s.StartRecording(filename); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}
	if !s.IsRecording() {
		t.Error("Stream should be in recording state")
	}

	for block := range 3 {
		s.processInputStream(ramp(testFrameSize, 2, block*testFrameSize))
	}

	if err := s.StopRecording(); err != nil {
		t.Fatalf("Failed to stop recording: %v", err)
	}
	if s.IsRecording() {
		t.Error("Stream should not be in recording state after stopping")
	}

	f, err := os.Open(filename)
	if err != nil {
		t.Fatalf("Recording file was not created: %v", err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		t.Fatal("Recording is not a valid WAV file")
	}
	if d.NumChans != 1 || d.SampleRate != testSampleRate || d.BitDepth != 16 {
		t.Errorf("format = %d ch, %d Hz, %d bit; want mono 48000 Hz 16 bit",
			d.NumChans, d.SampleRate, d.BitDepth)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		t.Fatalf("Failed to decode recording: %v", err)
	}
	if len(buf.Data) != 3*testFrameSize {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), 3*testFrameSize)
	}
	for _, i := range []int{0, 1, 100, 3*testFrameSize - 1} {
		want := int(float64(i) / 1000 * 32767)
		if got := buf.Data[i]; got < want-1 || got > want+1 {
			t.Errorf("sample %d = %d, want ~%d", i, got, want)
		}
	}
}

func TestRecordingErrorCases(t *testing.T) {
	dir := t.TempDir()

	t.Run("Already recording", func(t *testing.T) {
		s := newStream(testAudioConfig(1, 1024), nil)
		if err := s.StartRecording(filepath.Join(dir, "a.wav")); err != nil {
			t.Fatal(err)
		}
		defer s.StopRecording()
		if err := s.StartRecording(filepath.Join(dir, "b.wav")); !errors.Is(err, ErrAlreadyRecording) {
			t.Errorf("expected ErrAlreadyRecording, got %v", err)
		}
	})

	t.Run("Invalid path", func(t *testing.T) {
		s := newStream(testAudioConfig(1, 1024), nil)
		if err := s.StartRecording(filepath.Join(dir, "missing", "file.wav")); err == nil {
			t.Error("expected error for invalid path")
		}
		if s.IsRecording() {
			t.Error("failed start must not leave the stream recording")
		}
	})

	t.Run("Unsupported bit depth", func(t *testing.T) {
		s := newStream(testAudioConfig(1, 1024), nil)
		s.bitDepth = 12
		if err := s.StartRecording(filepath.Join(dir, "c.wav")); err == nil {
			t.Error("expected error for 12-bit recording")
		}
	})

	t.Run("Stop when not recording", func(t *testing.T) {
		s := newStream(testAudioConfig(1, 1024), nil)
		if err := s.StopRecording(); err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	})
}

func TestCloseStreamWithRecording(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "test_close.wav")
	s := newStream(testAudioConfig(1, 1024), nil)

	if err := s.StartRecording(filename); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Failed to close stream: %v", err)
	}
	if s.IsRecording() {
		t.Error("Stream should not be in recording state after Close()")
	}
	if s.recording != nil {
		t.Error("Recorder should be released after Close()")
	}
}

func TestRecordingClampsOverload(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "clip.wav")
	s := newStream(testAudioConfig(1, 1024), nil)
	if err := s.StartRecording(filename); err != nil {
		t.Fatal(err)
	}
	s.processInputStream([]float32{2, -3, 0.5})
	if err := s.StopRecording(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	buf, err := wav.NewDecoder(f).FullPCMBuffer()
	if err != nil {
		t.Fatal(err)
	}
	want := []int{32767, -32767, 16384}
	for i, w := range want {
		if buf.Data[i] != w {
			t.Errorf("sample %d = %d, want %d", i, buf.Data[i], w)
		}
	}
}

func TestRecordingAcceptsConfiguredBitDepths(t *testing.T) {
	dir := t.TempDir()
	for _, depth := range []int{16, 24, 32} {
		t.Run(fmt.Sprintf("%d-bit", depth), func(t *testing.T) {
			if !config.ValidBitDepth(depth) {
				t.Fatalf("config rejects %d-bit recording", depth)
			}
			filename := filepath.Join(dir, fmt.Sprintf("depth%d.wav", depth))
			s := newStream(testAudioConfig(1, 1024), nil)
			s.bitDepth = depth
			if err := s.StartRecording(filename); err != nil {
				t.Fatalf("StartRecording: %v", err)
			}
			s.processInputStream(ramp(testFrameSize, 1, 0))
			if err := s.StopRecording(); err != nil {
				t.Fatal(err)
			}

			f, err := os.Open(filename)
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()
			d := wav.NewDecoder(f)
			if !d.IsValidFile() || int(d.BitDepth) != depth {
				t.Errorf("header bit depth = %d, want %d", d.BitDepth, depth)
			}
		})
	}
}
