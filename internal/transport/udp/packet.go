// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Period            | float32        | 4            | Dominant period, samples|
| Center Sample     | float32        | 4            | Phase-locked centre     |
| Bass              | float32        | 4            | Bass level in [0,1]     |
| Chrono            | float32        | 4            | Bass clock, seconds     |
| Magnitude Count   | uint16         | 2            | Number of floats (N)    |
| Magnitudes        | []float32      | N * 4        | Per-bin magnitudes      |
+-----------------------------------------------------------------------------+
*/

// HeaderSize is the encoded size of everything before the magnitudes.
const HeaderSize = 4 + 8 + 4*4 + 2

// MaxMagnitudes is the most bins a packet can carry.
const MaxMagnitudes = math.MaxUint16

type header struct {
	Seq          uint32
	Timestamp    int64
	Period       float32
	CenterSample float32
	Bass         float32
	Chrono       float32
	Count        uint16
}

// Packet is one decoded analysis packet.
type Packet struct {
	Seq          uint32
	Timestamp    int64
	Period       float32
	CenterSample float32
	Bass         float32
	Chrono       float32
	Magnitudes   []float32
}

// Encode appends the wire form of p to buf. Magnitudes beyond MaxMagnitudes
// are truncated.
func (p *Packet) Encode(buf *bytes.Buffer) error {
	mags := p.Magnitudes
	if len(mags) > MaxMagnitudes {
		mags = mags[:MaxMagnitudes]
	}
	h := header{
		Seq:          p.Seq,
		Timestamp:    p.Timestamp,
		Period:       p.Period,
		CenterSample: p.CenterSample,
		Bass:         p.Bass,
		Chrono:       p.Chrono,
		Count:        uint16(len(mags)),
	}
	if err := binary.Write(buf, binary.BigEndian, &h); err != nil {
		return err
	}
	return binary.Write(buf, binary.BigEndian, mags)
}

// Decode parses a packet produced by Encode.
func Decode(data []byte) (*Packet, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("packet too short: %d bytes", len(data))
	}
	r := bytes.NewReader(data)
	var h header
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if want := HeaderSize + 4*int(h.Count); len(data) != want {
		return nil, fmt.Errorf("packet length %d does not match %d magnitudes", len(data), h.Count)
	}
	p := &Packet{
		Seq:          h.Seq,
		Timestamp:    h.Timestamp,
		Period:       h.Period,
		CenterSample: h.CenterSample,
		Bass:         h.Bass,
		Chrono:       h.Chrono,
		Magnitudes:   make([]float32, h.Count),
	}
	if err := binary.Read(r, binary.BigEndian, p.Magnitudes); err != nil {
		return nil, fmt.Errorf("failed to read magnitudes: %w", err)
	}
	return p, nil
}
