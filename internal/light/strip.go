package light

import (
	"fmt"
	"sync"
)

// Layout places each zone's trunk and branch cells on the strip. Zones are
// contiguous and never overlap.
type Layout struct {
	Zones  int
	Trunk  int
	Branch int
}

// PerZone is the number of cells owned by one zone.
func (l Layout) PerZone() int {
	return l.Trunk + l.Branch
}

// Len is the length of the whole strip.
func (l Layout) Len() int {
	return l.Zones * l.PerZone()
}

// Zone returns the half-open cell range of zone.
func (l Layout) Zone(zone int) (start, end int) {
	start = zone * l.PerZone()
	return start, start + l.PerZone()
}

// Section returns the trunk or branch sub-range of zone.
func (l Layout) Section(zone int, branch bool) (start, end int) {
	start, _ = l.Zone(zone)
	if branch {
		start += l.Trunk
		return start, start + l.Branch
	}
	return start, start + l.Trunk
}

// Sink pushes a whole frame to the LEDs. Show blocks for as long as the
// transfer takes.
type Sink interface {
	Show(pixels []Color) error
	Close() error
}

// Strip is the global pixel buffer in front of a Sink.
type Strip struct {
	mu     sync.RWMutex
	pixels []Color
	sink   Sink
	frames uint64
}

// NewStrip creates an all-black buffer of n cells.
func NewStrip(n int, sink Sink) *Strip {
	return &Strip{
		pixels: make([]Color, n),
		sink:   sink,
	}
}

// Len returns the number of cells.
func (s *Strip) Len() int {
	return len(s.pixels)
}

// SetRange copies colors into the buffer starting at start.
func (s *Strip) SetRange(start int, colors []Color) error {
	if start < 0 || start+len(colors) > len(s.pixels) {
		return fmt.Errorf("light: range [%d,%d) outside strip of %d", start, start+len(colors), len(s.pixels))
	}
	s.mu.Lock()
	copy(s.pixels[start:], colors)
	s.mu.Unlock()
	return nil
}

// Show flushes the whole buffer to the sink.
func (s *Strip) Show() error {
	frame := s.Snapshot()
	if err := s.sink.Show(frame); err != nil {
		return fmt.Errorf("light: show: %w", err)
	}
	s.mu.Lock()
	s.frames++
	s.mu.Unlock()
	return nil
}

// Clear blanks the strip and flushes it.
func (s *Strip) Clear() error {
	s.mu.Lock()
	for i := range s.pixels {
		s.pixels[i] = Black
	}
	s.mu.Unlock()
	return s.Show()
}

// Snapshot returns a copy of the buffer.
func (s *Strip) Snapshot() []Color {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Color, len(s.pixels))
	copy(out, s.pixels)
	return out
}

// Frames returns the number of flushes so far.
func (s *Strip) Frames() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frames
}

// Close closes the sink.
func (s *Strip) Close() error {
	return s.sink.Close()
}
