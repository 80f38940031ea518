// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"testing"
	"time"
)

func TestSenderSendAndStats(t *testing.T) {
	conn := listenUDP(t)
	sender, err := NewSender(conn.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	defer sender.Close()

	payload := []byte("lava")
	if err := sender.Send(payload); err != nil {
		t.Fatalf("Send: %v", err)
	}

	buf := make([]byte, 64)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP: %v", err)
	}
	if !bytes.Equal(buf[:n], payload) {
		t.Errorf("received %q, want %q", buf[:n], payload)
	}

	if packets, sent := sender.Stats(); packets != 1 || sent != uint64(len(payload)) {
		t.Errorf("Stats() = %d, %d; want 1, %d", packets, sent, len(payload))
	}
}

func TestSenderRejectsOversizedPacket(t *testing.T) {
	conn := listenUDP(t)
	sender, err := NewSender(conn.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	defer sender.Close()

	if err := sender.Send(make([]byte, MaxDatagramSize+1)); err == nil {
		t.Error("expected error for oversized packet")
	}
	if packets, _ := sender.Stats(); packets != 0 {
		t.Errorf("oversized packet counted as sent")
	}
}

func TestSenderLargestFramePacketFits(t *testing.T) {
	pkt := &Packet{Magnitudes: make([]float32, MaxDatagramMagnitudes)}
	var buf bytes.Buffer
	if err := pkt.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if buf.Len() > MaxDatagramSize {
		t.Fatalf("%d-bin packet is %d bytes, over the datagram limit", MaxDatagramMagnitudes, buf.Len())
	}

	pkt.Magnitudes = append(pkt.Magnitudes, 0)
	buf.Reset()
	if err := pkt.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if buf.Len() <= MaxDatagramSize {
		t.Errorf("MaxDatagramMagnitudes is not the largest packet that fits")
	}
}

func TestSenderClosed(t *testing.T) {
	conn := listenUDP(t)
	sender, err := NewSender(conn.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	if err := sender.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sender.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := sender.Send([]byte{1}); err == nil {
		t.Error("expected error sending on closed sender")
	}
}
