// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync/atomic"

	"lava/internal/config"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrAlreadyRecording is returned by StartRecording while a recording is
// open.
var ErrAlreadyRecording = errors.New("already recording")

// recorder owns an open WAV file and a reusable conversion buffer.
type recorder struct {
	path    string
	file    *os.File
	encoder *wav.Encoder
	buf     *audio.IntBuffer
	scale   float64 // Full-scale integer value for the bit depth.
}

// StartRecording writes the mono capture to a PCM WAV file at path until
// StopRecording.
func (s *Stream) StartRecording(path string) error {
	if atomic.LoadInt32(&s.isRecording) == 1 {
		return ErrAlreadyRecording
	}
	bitDepth := s.bitDepth
	if !config.ValidBitDepth(bitDepth) {
		return fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}

	sampleRate := int(s.config.SampleRate)
	rec := &recorder{
		path:    path,
		file:    file,
		encoder: wav.NewEncoder(file, sampleRate, bitDepth, 1, 1),
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: 1,
				SampleRate:  sampleRate,
			},
			Data:           make([]int, s.config.FramesPerBuffer),
			SourceBitDepth: bitDepth,
		},
		scale: float64(int64(1)<<(bitDepth-1) - 1),
	}

	s.recMu.Lock()
	s.recording = rec
	s.recMu.Unlock()
	atomic.StoreInt32(&s.isRecording, 1)

	logger.Infof("Recording to %s (%d-bit, %d Hz)", path, bitDepth, sampleRate)
	return nil
}

// StopRecording finalizes the WAV header and closes the file. It is a no-op
// when not recording.
func (s *Stream) StopRecording() error {
	if !atomic.CompareAndSwapInt32(&s.isRecording, 1, 0) {
		return nil
	}

	s.recMu.Lock()
	rec := s.recording
	s.recording = nil
	s.recMu.Unlock()
	if rec == nil {
		return nil
	}

	if err := rec.encoder.Close(); err != nil {
		rec.file.Close()
		return fmt.Errorf("failed to finalize recording: %w", err)
	}
	if err := rec.file.Close(); err != nil {
		return err
	}
	logger.Infof("Recording saved to %s", rec.path)
	return nil
}

// IsRecording reports whether a recording is open.
func (s *Stream) IsRecording() bool {
	return atomic.LoadInt32(&s.isRecording) == 1
}

// writeRecording converts one mono block to integer PCM and appends it.
func (s *Stream) writeRecording(mono []float32) {
	s.recMu.Lock()
	defer s.recMu.Unlock()
	rec := s.recording
	if rec == nil {
		return
	}

	if cap(rec.buf.Data) < len(mono) {
		rec.buf.Data = make([]int, len(mono))
	}
	rec.buf.Data = rec.buf.Data[:len(mono)]
	for i, v := range mono {
		x := math.Max(-1, math.Min(1, float64(v)))
		rec.buf.Data[i] = int(math.Round(x * rec.scale))
	}

	if err := rec.encoder.Write(rec.buf); err != nil {
		logger.Errorf("Error writing to WAV file: %v", err)
	}
}
