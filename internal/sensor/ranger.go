// Package sensor measures zone distances with ultrasonic time-of-flight
// sensors that share one trigger line and have one echo line each.
package sensor

import (
	"errors"
	"fmt"
	"math"
	"time"

	"echotree.klederson.com/internal/config"
)

var (
	// ErrUnknownPin is returned when a configured pin name does not exist.
	ErrUnknownPin = errors.New("sensor: unknown pin")

	// ErrNoZone is returned when a zone has no echo line.
	ErrNoZone = errors.New("sensor: no such zone")
)

// Trigger drives the trigger line shared by all sensors.
type Trigger interface {
	Out(high bool) error
}

// Echo is one sensor's echo input line.
type Echo interface {
	// Read returns true while the line is high.
	Read() bool
	// WaitForEdge blocks until the line changes level or timeout elapses.
	// It returns false on timeout.
	WaitForEdge(timeout time.Duration) bool
}

// Pins is the session-scoped set of sensor lines. Close releases them.
type Pins interface {
	Trigger() Trigger
	Echo(zone int) (Echo, error)
	Close() error
}

// EchoRanger times one echo pulse per call and converts it to centimeters.
type EchoRanger struct {
	pins    Pins
	pulse   time.Duration
	timeout time.Duration

	now   func() time.Time
	sleep func(time.Duration)
}

// NewEchoRanger creates a ranger that holds the trigger high for pulse and
// waits at most timeout for the whole echo.
func NewEchoRanger(pins Pins, pulse, timeout time.Duration) *EchoRanger {
	return &EchoRanger{
		pins:    pins,
		pulse:   pulse,
		timeout: timeout,
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

// Range fires the trigger and measures zone's echo. A missing rising or
// falling edge is not an error: it reports config.MaxRangeCM. Errors are
// only returned when the lines themselves fail.
func (r *EchoRanger) Range(zone int) (float64, error) {
	echo, err := r.pins.Echo(zone)
	if err != nil {
		return config.MaxRangeCM, err
	}

	trig := r.pins.Trigger()
	if err := trig.Out(true); err != nil {
		return config.MaxRangeCM, fmt.Errorf("sensor: trigger high: %w", err)
	}
	r.sleep(r.pulse)
	if err := trig.Out(false); err != nil {
		return config.MaxRangeCM, fmt.Errorf("sensor: trigger low: %w", err)
	}

	deadline := r.now().Add(r.timeout)

	// A line that is already high belongs to an earlier echo.
	if echo.Read() {
		return config.MaxRangeCM, nil
	}
	start, ok := r.waitLevel(echo, true, deadline)
	if !ok {
		return config.MaxRangeCM, nil
	}
	end, ok := r.waitLevel(echo, false, deadline)
	if !ok {
		return config.MaxRangeCM, nil
	}

	return PulseToDistance(end.Sub(start)), nil
}

// waitLevel waits until echo reads level, returning the time it was seen.
func (r *EchoRanger) waitLevel(echo Echo, level bool, deadline time.Time) (time.Time, bool) {
	for {
		remaining := deadline.Sub(r.now())
		if remaining <= 0 {
			return time.Time{}, false
		}
		if !echo.WaitForEdge(remaining) {
			return time.Time{}, false
		}
		if echo.Read() == level {
			return r.now(), true
		}
	}
}

// PulseToDistance converts an echo pulse width to centimeters, rounded to
// two decimals and capped at the no-echo sentinel.
func PulseToDistance(d time.Duration) float64 {
	if d < 0 {
		return config.MaxRangeCM
	}
	cm := d.Seconds() * config.PulseToCM
	cm = math.Round(cm*config.DistancePrecision) / config.DistancePrecision
	if cm > config.MaxRangeCM {
		return config.MaxRangeCM
	}
	return cm
}
