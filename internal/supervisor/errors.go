package supervisor

import (
	"context"
	"errors"

	"echotree.klederson.com/internal/config"
	"echotree.klederson.com/internal/sensor"
	"echotree.klederson.com/internal/sound"
)

// ErrPanic wraps a panic recovered inside a session.
var ErrPanic = errors.New("supervisor: session panicked")

// Classify names the failure kind of a session error for logs and the
// monitor. Every kind leads to the same restart.
func Classify(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, context.Canceled):
		return "shutdown"
	case errors.Is(err, ErrPanic):
		return "panic"
	case errors.Is(err, ErrEngineExited):
		return "engine exited"
	case errors.Is(err, sound.ErrNoDevice):
		return "device discovery"
	case errors.Is(err, sound.ErrTransmit):
		return "transmission"
	case errors.Is(err, sensor.ErrUnknownPin), errors.Is(err, sensor.ErrNoZone):
		return "sensor setup"
	case errors.Is(err, config.ErrInvalid):
		return "configuration"
	default:
		return "unexpected"
	}
}
