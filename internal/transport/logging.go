// SPDX-License-Identifier: MIT
package transport

import (
	"lava/internal/audio"
	applog "lava/internal/log"
)

// LoggingTransport implements the Transport interface by debug-logging a
// one-line summary of each frame.
type LoggingTransport struct {
	logger applog.Logger
}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	lt := &LoggingTransport{logger: applog.Named("frames")}
	lt.logger.Infof("Using LoggingTransport")
	return lt
}

// Send logs the received data. It never fails.
func (lt *LoggingTransport) Send(data any) error {
	f, ok := data.(*audio.Frame)
	if !ok {
		lt.logger.Debugf("Received (%T): %+v", data, data)
		return nil
	}
	s := f.Snapshot
	lt.logger.Debugf("Frame %d: +%d samples, bin %d, period %.1f, bass %.2f, chrono %.2fs, beat %v",
		f.Seq, f.NewSamples, s.MaxBin, s.Period, s.Bass, s.Chrono, f.Beat)
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
