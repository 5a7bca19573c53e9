package sound

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"echotree.klederson.com/internal/log"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// MIDIOutput is an open rtmidi output port.
type MIDIOutput struct {
	drv  *rtmididrv.Driver
	out  drivers.Out
	name string
}

// ListOutputs returns the names of all MIDI output ports.
func ListOutputs() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	defer drv.Close()

	outs, err := drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("sound: list outputs: %w", err)
	}
	names := make([]string, 0, len(outs))
	for _, o := range outs {
		names = append(names, o.String())
	}
	return names, nil
}

// OpenMIDIOutput opens the first output port whose name contains match,
// compared case-insensitively.
func OpenMIDIOutput(match string) (*MIDIOutput, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}

	outs, err := drv.Outs()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("sound: list outputs: %w", err)
	}

	var found drivers.Out
	names := make([]string, 0, len(outs))
	for _, o := range outs {
		names = append(names, o.String())
		if found == nil && ContainsCI(o.String(), match) {
			found = o
		}
	}
	if found == nil {
		drv.Close()
		return nil, fmt.Errorf("%w: %q among [%s]", ErrNoDevice, match, strings.Join(names, ", "))
	}
	if err := found.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("sound: open %q: %w", found.String(), err)
	}

	log.Info("sound: midi output connected", "device", found.String())
	return &MIDIOutput{drv: drv, out: found, name: found.String()}, nil
}

// WaitForMIDIOutput retries OpenMIDIOutput every interval until it succeeds,
// timeout passes or ctx is done. The engine registers its port some time
// after it starts.
func WaitForMIDIOutput(ctx context.Context, match string, timeout, interval time.Duration) (*MIDIOutput, error) {
	deadline := time.Now().Add(timeout)
	for {
		out, err := OpenMIDIOutput(match)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, ErrNoDevice) || time.Now().Add(interval).After(deadline) {
			return nil, err
		}
		log.Debug("sound: waiting for midi output", "match", match, "err", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// NoteOn sends a note-on message.
func (m *MIDIOutput) NoteOn(channel, key, velocity uint8) error {
	return m.out.Send(midi.NoteOn(channel, key, velocity).Bytes())
}

// Name returns the connected port name.
func (m *MIDIOutput) Name() string {
	return m.name
}

// Close closes the port and the driver.
func (m *MIDIOutput) Close() error {
	log.Info("sound: closing midi output", "device", m.name)
	err := m.out.Close()
	m.drv.Close()
	return err
}

// ContainsCI reports whether sub is within s, ignoring case.
func ContainsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
