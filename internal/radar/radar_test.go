package radar

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
)

func TestNormalizeAngle(t *testing.T) {
	for _, tt := range []struct{ in, want float64 }{
		{0, 0},
		{-math.Pi / 2, 3 * math.Pi / 2},
		{5 * math.Pi, math.Pi},
	} {
		if got := NormalizeAngle(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("NormalizeAngle(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if d := AngleDiff(0.1, 2*math.Pi-0.1); math.Abs(d-0.2) > 1e-9 {
		t.Errorf("AngleDiff across north = %v", d)
	}
}

func TestZoneAngle(t *testing.T) {
	if ZoneAngle(0, 5) != 0 {
		t.Error("zone 0 not at north")
	}
	if got := ZoneAngle(1, 4); math.Abs(got-math.Pi/2) > 1e-9 {
		t.Errorf("ZoneAngle(1, 4) = %v", got)
	}
	if ZoneAngle(3, 0) != 0 {
		t.Error("no zones should not divide by zero")
	}
}

func TestDistanceToRadius(t *testing.T) {
	if got := DistanceToRadius(125, 250, 10); got != 5 {
		t.Errorf("half range = %v", got)
	}
	if got := DistanceToRadius(1000, 250, 10); got != 10 {
		t.Errorf("sentinel distance = %v, want outer ring", got)
	}
	if got := DistanceToRadius(-3, 250, 10); got != 0 {
		t.Errorf("negative distance = %v", got)
	}
}

func TestSweep_Intensity(t *testing.T) {
	s := NewSweep()
	s.UpdateAt(s.StartTime.Add(500 * time.Millisecond)) // a quarter turn at 30 RPM
	if math.Abs(s.Degrees()-90) > 1e-6 {
		t.Fatalf("Degrees = %v", s.Degrees())
	}
	if got := s.Intensity(s.Angle); got != 1 {
		t.Errorf("under beam = %v", got)
	}
	if got := s.Intensity(s.Angle + 0.1); got != 0 {
		t.Errorf("ahead of beam = %v", got)
	}
	if got := s.Intensity(s.Angle - math.Pi/6); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("half trail = %v", got)
	}
}

func TestRender_PlacesZones(t *testing.T) {
	blips := []Blip{
		{Zone: 0, Angle: ZoneAngle(0, 2), Distance: 100, Color: "#FF0000", Near: true},
		{Zone: 1, Angle: ZoneAngle(1, 2), Distance: 1000},
	}
	out := ansi.Strip(Render(40, 20, blips, NewSweep()))
	lines := strings.Split(out, "\n")
	if len(lines) != 20 {
		t.Fatalf("rows = %d", len(lines))
	}
	for _, want := range []string{"Z1 100", "Z2 1000", "+"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q:\n%s", want, out)
		}
	}
	// Zone 1 sits on the outer ring due south, below zone 0.
	row1, row2 := -1, -1
	for i, l := range lines {
		if strings.Contains(l, "Z1") {
			row1 = i
		}
		if strings.Contains(l, "Z2") {
			row2 = i
		}
	}
	if row2 <= row1 {
		t.Errorf("zone rows %d, %d", row1, row2)
	}
}

func TestRender_TooSmall(t *testing.T) {
	if Render(5, 3, nil, NewSweep()) != "" {
		t.Error("expected empty render")
	}
}
