// Package sound turns zone proximity into note events for the external
// synthesis engine.
package sound

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"echotree.klederson.com/internal/config"
	"echotree.klederson.com/internal/log"
	"echotree.klederson.com/internal/proximity"
)

var (
	// ErrNoDevice is returned when no output port matches the device name.
	ErrNoDevice = errors.New("sound: no matching output device")

	// ErrTransmit wraps every failed note send.
	ErrTransmit = errors.New("sound: transmit failed")
)

// Output sends note-on messages to the synthesis engine.
type Output interface {
	NoteOn(channel, key, velocity uint8) error
	Close() error
}

// Bridge maps zones to channels and emits one note per smoothed distance.
// Sends are fire-and-forget: a failed send is returned, never retried.
type Bridge struct {
	out      Output
	channels []uint8
	disabled map[int]bool
	velocity uint8

	mu    sync.Mutex
	last  []int
	sent  uint64
	muted uint64
}

// NewBridge creates a bridge. channels[i] is zone i's output channel; zones
// listed in disabled never produce notes.
func NewBridge(out Output, channels []int, disabled []int, velocity int) *Bridge {
	b := &Bridge{
		out:      out,
		channels: make([]uint8, len(channels)),
		disabled: make(map[int]bool, len(disabled)),
		velocity: clampNote(velocity),
		last:     make([]int, len(channels)),
	}
	for i, ch := range channels {
		b.channels[i] = uint8(ch & 0x0F)
		b.last[i] = -1
	}
	for _, z := range disabled {
		b.disabled[z] = true
	}
	return b
}

// NoteFor converts a smoothed distance to a note value: the floor of the
// normalized intensity on a 0-127 scale.
func NoteFor(distance float64) uint8 {
	v := math.Floor(proximity.Normalize(distance, config.MaxNote))
	return uint8(proximity.Clamp(v, 0, config.MaxNote))
}

// Notify sends zone's note for distance unless the zone is muted.
func (b *Bridge) Notify(zone int, distance float64) error {
	if zone < 0 || zone >= len(b.channels) {
		return fmt.Errorf("sound: zone %d has no channel", zone)
	}
	if b.disabled[zone] {
		b.mu.Lock()
		b.muted++
		b.mu.Unlock()
		return nil
	}

	note := NoteFor(distance)
	if err := b.out.NoteOn(b.channels[zone], note, b.velocity); err != nil {
		return fmt.Errorf("%w: zone %d channel %d: %v", ErrTransmit, zone, b.channels[zone], err)
	}

	b.mu.Lock()
	b.last[zone] = int(note)
	b.sent++
	b.mu.Unlock()
	return nil
}

// RandomizePatch sends between 1 and max notes on channel to make the
// engine step through its presets. It returns how many were sent.
func (b *Bridge) RandomizePatch(rng *rand.Rand, channel, note, max int) (int, error) {
	if max < 1 {
		max = 1
	}
	count := rng.Intn(max) + 1
	ch := uint8(channel & 0x0F)
	key := clampNote(note)
	for i := 0; i < count; i++ {
		if err := b.out.NoteOn(ch, key, b.velocity); err != nil {
			return i, fmt.Errorf("%w: patch change %d/%d: %v", ErrTransmit, i+1, count, err)
		}
	}
	log.Info("sound: patch randomized", "channel", channel, "events", count)
	return count, nil
}

// LastNotes returns the last note sent per zone, -1 where none was sent.
func (b *Bridge) LastNotes() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]int, len(b.last))
	copy(out, b.last)
	return out
}

// Stats returns the number of sent and muted zone notes.
func (b *Bridge) Stats() (sent, muted uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent, b.muted
}

func clampNote(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > config.MaxNote {
		return config.MaxNote
	}
	return uint8(v)
}
