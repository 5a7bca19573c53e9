// Package proximity turns echo distances into the shared per-zone state that
// drives sound and light.
package proximity

import "echotree.klederson.com/internal/config"

// Normalizer maps a distance onto [0, max] with a clamped linear law:
// full output at or below Near, nothing at or above Far.
type Normalizer struct {
	Near float64 // cm
	Far  float64 // cm
}

// DefaultNormalizer uses the installation's 20 cm / 200 cm thresholds.
var DefaultNormalizer = Normalizer{
	Near: config.NearThresholdCM,
	Far:  config.FarThresholdCM,
}

// Normalize maps distance with the default thresholds.
func Normalize(distance, max float64) float64 {
	return DefaultNormalizer.Normalize(distance, max)
}

// Normalize returns max for distance <= Near, 0 for distance >= Far and a
// linear interpolation in between. The result never leaves [0, max].
func (n Normalizer) Normalize(distance, max float64) float64 {
	if distance <= n.Near {
		return max
	}
	if distance >= n.Far {
		return 0
	}
	v := max - (distance-n.Near)*max/(n.Far-n.Near)
	return Clamp(v, 0, max)
}

// Clamp restricts v to the range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
