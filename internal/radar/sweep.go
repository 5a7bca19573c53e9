package radar

import (
	"math"
	"time"

	"echotree.klederson.com/internal/config"
)

// Sweep is the rotating beam drawn over the dial.
type Sweep struct {
	Angle     float64 // radians [0, 2π)
	StartTime time.Time
}

func NewSweep() *Sweep {
	return &Sweep{StartTime: time.Now()}
}

// Update advances the beam from wall time.
func (s *Sweep) Update() {
	s.UpdateAt(time.Now())
}

// UpdateAt sets the beam position for time t.
func (s *Sweep) UpdateAt(t time.Time) {
	rps := float64(config.SweepSpeedRPM) / 60.0
	s.Angle = math.Mod(t.Sub(s.StartTime).Seconds()*rps*2*math.Pi, 2*math.Pi)
}

func (s *Sweep) Degrees() float64 {
	return s.Angle * 180 / math.Pi
}

// Intensity is 1 under the beam, fading linearly to 0 over the trail.
func (s *Sweep) Intensity(cellAngle float64) float64 {
	behind := NormalizeAngle(s.Angle - cellAngle)
	trail := config.SweepTrailDeg * math.Pi / 180.0
	if behind > trail {
		return 0
	}
	return 1.0 - behind/trail
}
