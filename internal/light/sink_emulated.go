package light

import (
	"sync"
	"time"
)

// WS2812 wire timing: 24 bits of 1.25us per pixel plus the latch gap.
const (
	bitTime   = 1250 * time.Nanosecond
	latchTime = 50 * time.Microsecond
)

// FrameTime is how long a real strip of n pixels takes to flush.
func FrameTime(n int) time.Duration {
	return time.Duration(n*24)*bitTime + latchTime
}

// EmulatedSink keeps the last frame in memory and takes as long as a real
// strip would to show it.
type EmulatedSink struct {
	mu    sync.Mutex
	last  []Color
	delay time.Duration
}

// NewEmulatedSink creates a sink paced like a strip of n pixels.
func NewEmulatedSink(n int) *EmulatedSink {
	return &EmulatedSink{delay: FrameTime(n)}
}

func (e *EmulatedSink) Show(pixels []Color) error {
	e.mu.Lock()
	e.last = append(e.last[:0], pixels...)
	e.mu.Unlock()
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	return nil
}

// Last returns a copy of the last shown frame.
func (e *EmulatedSink) Last() []Color {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Color(nil), e.last...)
}

func (e *EmulatedSink) Close() error {
	return nil
}
