// SPDX-License-Identifier: MIT
// Package stats measures frame loop timing.
package stats

import (
	"fmt"
	"math"
	"sync"
	"time"

	"lava/pkg/ring"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultWindow is the number of most recent frames a FrameTimer keeps.
const DefaultWindow = 4096

// Results summarises the recorded frames.
type Results struct {
	Count  int           // Frames recorded since the last Clear.
	Mean   time.Duration // Over the retained window.
	StdDev time.Duration
	Min    time.Duration
	Max    time.Duration
	FPS    float64 // Frames per second of wall time.
}

// FrameTimer records the duration of each frame. It is safe for concurrent
// use, although frames are expected to come from a single loop.
type FrameTimer struct {
	mu        sync.Mutex
	durations *ring.Buffer[float64] // Seconds.
	scratch   []float64
	count     int
	start     time.Time // Start of the frame in progress.
	first     time.Time
	last      time.Time

	now func() time.Time
}

// NewFrameTimer keeps the durations of the last window frames. A window <= 0
// selects DefaultWindow.
func NewFrameTimer(window int) *FrameTimer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &FrameTimer{
		durations: ring.New[float64](window, 0),
		scratch:   make([]float64, 0, window),
		now:       time.Now,
	}
}

// StartFrame marks the beginning of a frame.
func (t *FrameTimer) StartFrame() {
	t.mu.Lock()
	t.start = t.now()
	if t.first.IsZero() {
		t.first = t.start
	}
	t.mu.Unlock()
}

// EndFrame records the frame started by the last StartFrame. Calls without a
// matching StartFrame are ignored.
func (t *FrameTimer) EndFrame() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.start.IsZero() {
		return
	}
	t.last = t.now()
	t.durations.Push(t.last.Sub(t.start).Seconds())
	t.start = time.Time{}
	t.count++
}

// Results computes statistics over the retained frames.
func (t *FrameTimer) Results() Results {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := Results{Count: t.count}
	if t.durations.Len() == 0 {
		return r
	}

	t.scratch = t.scratch[:0]
	for i := range t.durations.Len() {
		t.scratch = append(t.scratch, t.durations.At(i))
	}
	mean, std := stat.MeanStdDev(t.scratch, nil)
	if len(t.scratch) < 2 {
		std = 0
	}
	r.Mean = seconds(mean)
	r.StdDev = seconds(std)
	r.Min = seconds(floats.Min(t.scratch))
	r.Max = seconds(floats.Max(t.scratch))
	if wall := t.last.Sub(t.first).Seconds(); wall > 0 {
		r.FPS = float64(t.count) / wall
	}
	return r
}

// Summary formats Results for the exit log.
func (t *FrameTimer) Summary() string {
	r := t.Results()
	if r.Count == 0 {
		return "no frames recorded"
	}
	return fmt.Sprintf("%d frames, avg %v (±%v), min %v, max %v, %.1f fps",
		r.Count, r.Mean.Round(time.Microsecond), r.StdDev.Round(time.Microsecond),
		r.Min.Round(time.Microsecond), r.Max.Round(time.Microsecond), r.FPS)
}

// Clear discards all recorded frames.
func (t *FrameTimer) Clear() {
	t.mu.Lock()
	t.durations.Reset()
	t.count = 0
	t.start, t.first, t.last = time.Time{}, time.Time{}, time.Time{}
	t.mu.Unlock()
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
