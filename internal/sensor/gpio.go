package sensor

import (
	"errors"
	"fmt"
	"time"

	"echotree.klederson.com/internal/log"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// GPIOPins drives real sensor lines through periph.io.
type GPIOPins struct {
	trigger gpio.PinIO
	echoes  []gpio.PinIO
}

// OpenGPIO claims the trigger line as an output held low and every echo
// line as an edge-triggered input.
func OpenGPIO(trigger string, echoes []string) (*GPIOPins, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("sensor: host init: %w", err)
	}

	trig := gpioreg.ByName(trigger)
	if trig == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPin, trigger)
	}
	if err := trig.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("sensor: trigger %s: %w", trigger, err)
	}

	g := &GPIOPins{trigger: trig}
	for _, name := range echoes {
		p := gpioreg.ByName(name)
		if p == nil {
			_ = g.Close()
			return nil, fmt.Errorf("%w: %s", ErrUnknownPin, name)
		}
		if err := p.In(gpio.Float, gpio.BothEdges); err != nil {
			_ = g.Close()
			return nil, fmt.Errorf("sensor: echo %s: %w", name, err)
		}
		g.echoes = append(g.echoes, p)
	}

	log.Info("sensor: gpio opened", "trigger", trigger, "echoes", echoes)
	return g, nil
}

func (g *GPIOPins) Trigger() Trigger {
	return gpioTrigger{g.trigger}
}

func (g *GPIOPins) Echo(zone int) (Echo, error) {
	if zone < 0 || zone >= len(g.echoes) {
		return nil, fmt.Errorf("%w: %d", ErrNoZone, zone)
	}
	return gpioEcho{g.echoes[zone]}, nil
}

// Close drives the trigger low and halts every line.
func (g *GPIOPins) Close() error {
	var errs []error
	if g.trigger != nil {
		errs = append(errs, g.trigger.Out(gpio.Low), g.trigger.Halt())
	}
	for _, p := range g.echoes {
		errs = append(errs, p.Halt())
	}
	log.Info("sensor: gpio released")
	return errors.Join(errs...)
}

type gpioTrigger struct{ p gpio.PinIO }

func (t gpioTrigger) Out(high bool) error {
	return t.p.Out(gpio.Level(high))
}

type gpioEcho struct{ p gpio.PinIO }

func (e gpioEcho) Read() bool {
	return e.p.Read() == gpio.High
}

func (e gpioEcho) WaitForEdge(timeout time.Duration) bool {
	return e.p.WaitForEdge(timeout)
}
