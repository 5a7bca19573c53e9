package radar

import (
	"math"

	"echotree.klederson.com/internal/config"
)

// CellDistance is the distance from a cell to the center in column units,
// corrected for the terminal aspect ratio.
func CellDistance(col, row, centerX, centerY int) float64 {
	dx := float64(col - centerX)
	dy := float64(row-centerY) / config.AspectRatio
	return math.Sqrt(dx*dx + dy*dy)
}

// CellAngle returns the bearing of a cell in [0, 2π), 0 = north, clockwise.
func CellAngle(col, row, centerX, centerY int) float64 {
	dx := float64(col - centerX)
	dy := float64(row-centerY) / config.AspectRatio
	return NormalizeAngle(math.Atan2(dx, -dy))
}

// RingChar picks the ring glyph for a bearing.
func RingChar(angle float64) rune {
	sector := int(math.Round(NormalizeAngle(angle)/(math.Pi/4))) % 8
	switch sector {
	case 0, 4:
		return '-'
	case 1, 5:
		return '/'
	case 2, 6:
		return '|'
	default:
		return '\\'
	}
}

// NormalizeAngle wraps an angle to [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// AngleDiff returns the shortest angular distance between two angles, in [0, π].
func AngleDiff(a, b float64) float64 {
	d := math.Abs(NormalizeAngle(a) - NormalizeAngle(b))
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

// ZoneAngle spreads n zones evenly around the dial, zone 0 at north.
func ZoneAngle(zone, n int) float64 {
	if n <= 0 {
		return 0
	}
	return 2 * math.Pi * float64(zone) / float64(n)
}

// DistanceToRadius maps a distance in cm onto the dial; anything beyond
// maxRange sits on the outer ring.
func DistanceToRadius(cm, maxRange, radius float64) float64 {
	if cm >= maxRange {
		return radius
	}
	if cm < 0 {
		cm = 0
	}
	return cm / maxRange * radius
}
