package main

import (
	"context"
	"fmt"

	"echotree.klederson.com/internal/config"
	"echotree.klederson.com/internal/light"
	"echotree.klederson.com/internal/sensor"
	"echotree.klederson.com/internal/sound"
	"echotree.klederson.com/internal/supervisor"
)

// openSink opens the pixel driver named in the installation.
func openSink(inst config.Installation, n int) (light.Sink, error) {
	switch inst.LEDs.Driver {
	case "spi":
		s, err := light.OpenSPISink(inst.LEDs.SPIPort, n)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "serial":
		s, err := light.OpenSerialSink(inst.LEDs.SerialPort, inst.LEDs.Baud)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "emulated":
		return light.NewEmulatedSink(n), nil
	}
	return nil, fmt.Errorf("%w: unknown LED driver %q", config.ErrInvalid, inst.LEDs.Driver)
}

// sessionDeps builds what each supervisor session opens: the real engine,
// MIDI port and GPIO lines, or their simulated stand-ins in demo mode.
func sessionDeps(inst config.Installation, demo bool) supervisor.Deps {
	if demo {
		return supervisor.Deps{
			StartEngine: func(context.Context) (supervisor.Process, error) {
				return supervisor.NopProcess{}, nil
			},
			OpenOutput: func(context.Context) (sound.Output, error) {
				return sound.NewLogOutput(), nil
			},
			OpenPins: func() (sensor.Pins, error) {
				return sensor.NewDemoPins(len(inst.Zones)), nil
			},
		}
	}

	engine := supervisor.NewEngine(inst.Engine)
	echoes := make([]string, len(inst.Zones))
	for i, z := range inst.Zones {
		echoes[i] = z.EchoPin
	}
	return supervisor.Deps{
		StartEngine: engine.Start,
		OpenOutput: func(ctx context.Context) (sound.Output, error) {
			out, err := sound.WaitForMIDIOutput(ctx, inst.Sound.DeviceMatch, inst.Sound.DiscoveryTimeout, config.DiscoveryInterval)
			if err != nil {
				return nil, err
			}
			return out, nil
		},
		OpenPins: func() (sensor.Pins, error) {
			pins, err := sensor.OpenGPIO(inst.TriggerPin, echoes)
			if err != nil {
				return nil, err
			}
			return pins, nil
		},
	}
}
