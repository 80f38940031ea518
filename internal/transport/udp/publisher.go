// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"fmt"
	"math/cmplx"
	"sync"
	"sync/atomic"
	"time"

	"lava/internal/audio"
)

// Publisher sends the most recent frame over UDP at a fixed interval,
// independent of the frame rate. Frames arrive through Send; only the latest
// is kept. It runs in a separate goroutine managed by Start and Stop.
type Publisher struct {
	sender   *Sender
	interval time.Duration

	latest atomic.Pointer[Packet] // Replaced by Send, read by the ticker.

	ticker   *time.Ticker   // Ticker that triggers packet sending.
	doneChan chan struct{}  // Channel used to signal the publisher goroutine to stop.
	stopOnce sync.Once      // Ensures the stop logic runs only once per Start/Stop cycle.
	wg       sync.WaitGroup // Waits for the publisher goroutine to finish during Stop.
	mu       sync.Mutex     // Protects access to ticker and doneChan during Start/Stop.

	truncateOnce sync.Once

	sequenceNum  uint32
	lastSent     *Packet
	packetBuffer *bytes.Buffer
}

// NewPublisher creates a publisher over sender. An interval <= 0 defaults to
// 16ms (~60Hz).
func NewPublisher(interval time.Duration, sender *Sender) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDP sender cannot be nil")
	}
	if interval <= 0 {
		interval = 16 * time.Millisecond
		logger.Warnf("Invalid interval provided, defaulting to %s", interval)
	}
	logger.Infof("Initializing publisher (Interval: %s)", interval)

	return &Publisher{
		sender:       sender,
		interval:     interval,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Send records the latest frame. It is called on the frame loop goroutine and
// copies what the packet needs, so the frame's history view is not retained.
func (p *Publisher) Send(data any) error {
	f, ok := data.(*audio.Frame)
	if !ok {
		return fmt.Errorf("unsupported data type %T", data)
	}
	s := f.Snapshot
	bins := len(s.DFT)
	if bins > MaxDatagramMagnitudes {
		p.truncateOnce.Do(func() {
			logger.Warnf("%d bins do not fit in one datagram, sending the lowest %d", bins, MaxDatagramMagnitudes)
		})
		bins = MaxDatagramMagnitudes
	}
	pkt := &Packet{
		Timestamp:    f.Timestamp.UnixNano(),
		Period:       float32(s.Period),
		CenterSample: float32(s.CenterSample),
		Bass:         float32(s.Bass),
		Chrono:       float32(s.Chrono),
		Magnitudes:   make([]float32, bins),
	}
	for i := range pkt.Magnitudes {
		pkt.Magnitudes[i] = float32(cmplx.Abs(s.DFT[i]))
	}
	p.latest.Store(pkt)
	return nil
}

// Start begins the periodic publishing process.
// It is safe to call Start multiple times; subsequent calls are no-ops if already started.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		logger.Warnf("Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		logger.Debugf("Publisher goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publisher goroutine to terminate and waits for it to exit.
// It is safe to call Stop multiple times; subsequent calls are no-ops.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	logger.Debugf("Publisher goroutine finished after %d packets", p.sequenceNum)
	return nil
}

// buildAndSendPacket sends the latest frame if it has not been sent yet.
func (p *Publisher) buildAndSendPacket() {
	pkt := p.latest.Load()
	if pkt == nil || pkt == p.lastSent {
		return
	}
	p.lastSent = pkt

	p.sequenceNum++
	pkt.Seq = p.sequenceNum

	p.packetBuffer.Reset()
	if err := pkt.Encode(p.packetBuffer); err != nil {
		logger.Errorf("Error packing data into binary buffer: %v", err)
		return
	}

	if err := p.sender.Send(p.packetBuffer.Bytes()); err == nil {
		logger.Debugf("Sent packet %d (%d bytes)", p.sequenceNum, p.packetBuffer.Len())
	}
}

// Close stops the publisher and closes the sender.
func (p *Publisher) Close() error {
	if err := p.Stop(); err != nil {
		return err
	}
	return p.sender.Close()
}
