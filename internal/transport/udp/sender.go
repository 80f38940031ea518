// SPDX-License-Identifier: MIT
package udp

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	applog "lava/internal/log"
)

var logger = applog.Named("udp")

// MaxDatagramSize is the largest IPv4 UDP payload.
const MaxDatagramSize = 65507

// MaxDatagramMagnitudes is the most bins an encoded frame packet can carry
// and still fit in one datagram.
const MaxDatagramMagnitudes = (MaxDatagramSize - HeaderSize) / 4

// Sender writes encoded frame packets to a single consumer, one packet per
// datagram. Packets are never split, so a packet larger than MaxDatagramSize
// is refused rather than fragmented.
type Sender struct {
	conn   *net.UDPConn
	remote *net.UDPAddr

	mu     sync.Mutex // Guards conn against Close.
	closed bool

	packets atomic.Uint64
	bytes   atomic.Uint64
}

// NewSender connects a Sender to the consumer at addr ("host:port").
func NewSender(addr string) (*Sender, error) {
	remote, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve frame consumer address '%s': %w", addr, err)
	}

	conn, err := net.DialUDP("udp", nil, remote)
	if err != nil {
		return nil, fmt.Errorf("failed to dial frame consumer '%s': %w", addr, err)
	}

	logger.Infof("Sending frame packets to %s", conn.RemoteAddr())

	return &Sender{conn: conn, remote: remote}, nil
}

// Send writes one encoded packet. The publisher is the only caller in
// practice, but Send and Close may race safely.
func (s *Sender) Send(packet []byte) error {
	if len(packet) > MaxDatagramSize {
		return fmt.Errorf("frame packet of %d bytes exceeds the %d byte datagram limit", len(packet), MaxDatagramSize)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("frame sender is closed")
	}
	_, err := s.conn.Write(packet)
	s.mu.Unlock()

	if err != nil {
		// Nobody listening shows up here as ECONNREFUSED on the next write.
		logger.Warnf("Frame packet to %s dropped: %v", s.remote, err)
		return fmt.Errorf("failed to send frame packet: %w", err)
	}
	s.packets.Add(1)
	s.bytes.Add(uint64(len(packet)))
	return nil
}

// Stats returns how many packets and payload bytes have been sent.
func (s *Sender) Stats() (packets, bytes uint64) {
	return s.packets.Load(), s.bytes.Load()
}

// Close releases the socket. It is idempotent.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	packets, bytes := s.Stats()
	logger.Infof("Closing frame sender to %s after %d packets (%d bytes)", s.remote, packets, bytes)
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close frame sender: %w", err)
	}
	return nil
}
