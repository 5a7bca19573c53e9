package proximity

import (
	"sync"
	"time"

	"echotree.klederson.com/internal/config"
)

// State holds the latest smoothed distance of every zone. The sampler is the
// only writer; the animator, the sound bridge and the monitor read it. Each
// zone is replaced whole on write, so readers see either the initial
// sentinel or a value from a complete sampling pass, possibly a pass behind.
type State struct {
	mu      sync.RWMutex
	dist    []float64
	updated []time.Time
}

// NewState creates state for a fixed number of zones, all at the no-echo
// sentinel distance.
func NewState(zones int) *State {
	s := &State{
		dist:    make([]float64, zones),
		updated: make([]time.Time, zones),
	}
	for i := range s.dist {
		s.dist[i] = config.MaxRangeCM
	}
	return s
}

// Distance returns the current smoothed distance of zone.
func (s *State) Distance(zone int) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dist[zone]
}

// Set replaces the smoothed distance of zone.
func (s *State) Set(zone int, distance float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dist[zone] = distance
	s.updated[zone] = time.Now()
}

// Updated returns when zone was last written, zero before the first pass.
func (s *State) Updated(zone int) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updated[zone]
}

// Snapshot returns a copy of all zone distances in zone order.
func (s *State) Snapshot() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]float64, len(s.dist))
	copy(out, s.dist)
	return out
}

// Zones returns the fixed zone count.
func (s *State) Zones() int {
	return len(s.dist)
}
