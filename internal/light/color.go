// Package light animates the installation's LED strip from zone proximity.
package light

import (
	"fmt"
	"math/rand"
)

// Color is one RGB pixel.
type Color struct {
	R, G, B uint8
}

var (
	Red     = Color{255, 0, 0}
	Green   = Color{0, 255, 0}
	Blue    = Color{0, 0, 255}
	Yellow  = Color{255, 255, 0}
	Cyan    = Color{0, 255, 255}
	Magenta = Color{255, 0, 255}
	Black   = Color{}
)

// Palette is the set of colors zones drift between and sparks flash.
var Palette = []Color{Red, Green, Blue, Yellow, Cyan, Magenta}

// Hex returns the color as #RRGGBB.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// RandomColor picks uniformly from palette.
func RandomColor(rng *rand.Rand, palette []Color) Color {
	return palette[rng.Intn(len(palette))]
}

// ColorsSimilar reports whether every channel of a and b differs by at most
// threshold.
func ColorsSimilar(a, b Color, threshold int) bool {
	return absDiff(a.R, b.R) <= threshold &&
		absDiff(a.G, b.G) <= threshold &&
		absDiff(a.B, b.B) <= threshold
}

// GoToColor steps c towards target by speed per channel, the way the
// installation has always done it: a falling green channel is computed
// from the red value.
func GoToColor(c, target Color, speed int) Color {
	return stepToward(c, target, speed, true)
}

// StepToward moves every channel of c by speed towards target. A channel
// that is not below its target moves down. Results are clamped to [0,255].
func StepToward(c, target Color, speed int) Color {
	return stepToward(c, target, speed, false)
}

func stepToward(c, target Color, speed int, greenUsesRed bool) Color {
	greenFrom := c.G
	if greenUsesRed {
		greenFrom = c.R
	}
	return Color{
		R: stepChannel(c.R, c.R, target.R, speed),
		G: stepChannel(c.G, greenFrom, target.G, speed),
		B: stepChannel(c.B, c.B, target.B, speed),
	}
}

// stepChannel compares cur with target; a rise starts from cur, a fall
// starts from down.
func stepChannel(cur, down, target uint8, speed int) uint8 {
	if target > cur {
		return clampByte(int(cur) + speed)
	}
	return clampByte(int(down) - speed)
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func absDiff(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}
