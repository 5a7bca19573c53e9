package radar

import (
	"fmt"
	"math"
	"strings"

	"echotree.klederson.com/internal/config"
	"github.com/charmbracelet/lipgloss"
)

var (
	colorBright = lipgloss.Color("#00FF41")
	colorMid    = lipgloss.Color("#008F11")
	colorDim    = lipgloss.Color("#004A0A")
	colorMuted  = lipgloss.Color("#FFAA00")

	styleCenter   = lipgloss.NewStyle().Foreground(colorBright).Bold(true)
	styleRing     = lipgloss.NewStyle().Foreground(colorMid)
	styleDot      = lipgloss.NewStyle().Foreground(colorDim)
	styleLabelDim = lipgloss.NewStyle().Foreground(colorMid)
	styleLegNear  = lipgloss.NewStyle().Foreground(colorBright)
	styleLegMuted = lipgloss.NewStyle().Foreground(colorMuted)
)

// Blip is one zone on the dial.
type Blip struct {
	Zone     int
	Angle    float64 // bearing, radians
	Distance float64 // smoothed, cm
	Color    string  // lead LED color, "#RRGGBB"
	Near     bool    // inside the far threshold
	Muted    bool    // zone produces no notes
}

type blipPos struct {
	col, row int
	blip     Blip
	label    string
	labelCol int
	labelRow int
}

// Render draws the dial with every zone at its bearing and a radius
// proportional to its distance.
func Render(width, height int, blips []Blip, sweep *Sweep) string {
	if width < 10 || height < 5 {
		return ""
	}

	centerX := width / 2
	centerY := height / 2
	radius := float64(min(centerX-1, int(float64(centerY-1)/config.AspectRatio)))
	if radius < 3 {
		radius = 3
	}

	rings := make([]float64, config.RingCount)
	for i := range rings {
		rings[i] = radius * float64(i+1) / float64(config.RingCount)
	}

	bps := placeBlips(blips, centerX, centerY, radius, width)

	type labelCell struct{ bp, ch int }
	labels := make(map[int]labelCell)
	for i, bp := range bps {
		for ci := 0; ci < len(bp.label); ci++ {
			labels[bp.labelRow*width+bp.labelCol+ci] = labelCell{i, ci}
		}
	}

	var sb strings.Builder
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			if lc, ok := labels[row*width+col]; ok {
				bp := bps[lc.bp]
				sb.WriteString(renderLabel(bp.blip, bp.label[lc.ch], sweep, CellAngle(col, row, centerX, centerY)))
				continue
			}
			sb.WriteString(renderCell(col, row, centerX, centerY, radius, rings, sweep, bps))
		}
		if row < height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// placeBlips positions each zone and its label, moving a label one row down
// or up when it would overlap another and dropping it when neither fits.
func placeBlips(blips []Blip, centerX, centerY int, radius float64, width int) []blipPos {
	type segment struct{ start, end int }
	occupied := make(map[int][]segment)
	free := func(row, col, n int) bool {
		for _, seg := range occupied[row] {
			if col < seg.end && col+n > seg.start {
				return false
			}
		}
		return true
	}

	out := make([]blipPos, 0, len(blips))
	for _, b := range blips {
		r := DistanceToRadius(b.Distance, config.RadarRangeCM, radius)
		dc := centerX + int(math.Round(r*math.Sin(b.Angle)))
		dr := centerY - int(math.Round(r*math.Cos(b.Angle)*config.AspectRatio))

		label := fmt.Sprintf("Z%d %.0f", b.Zone+1, b.Distance)
		lc := dc + 2
		if lc+len(label) >= width {
			lc = dc - len(label) - 1
		}
		if lc < 0 {
			lc = 0
		}

		lr := dr
		placed := false
		for _, cand := range []int{dr, dr + 1, dr - 1} {
			if free(cand, lc, len(label)) {
				lr, placed = cand, true
				break
			}
		}
		if !placed {
			label = ""
		}

		out = append(out, blipPos{col: dc, row: dr, blip: b, label: label, labelCol: lc, labelRow: lr})
		occupied[dr] = append(occupied[dr], segment{dc, dc + 1})
		if label != "" {
			occupied[lr] = append(occupied[lr], segment{lc, lc + len(label)})
		}
	}
	return out
}

func renderLabel(b Blip, ch byte, sweep *Sweep, angle float64) string {
	s := string(ch)
	if sweep.Intensity(angle) > 0.5 {
		return lipgloss.NewStyle().Foreground(colorBright).Bold(true).Render(s)
	}
	if b.Muted {
		return styleLegMuted.Render(s)
	}
	if b.Near {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(b.Color)).Render(s)
	}
	return styleLabelDim.Render(s)
}

func renderCell(col, row, centerX, centerY int, radius float64, rings []float64, sweep *Sweep, bps []blipPos) string {
	for _, bp := range bps {
		if col == bp.col && row == bp.row {
			return renderBlip(bp.blip)
		}
	}

	dist := CellDistance(col, row, centerX, centerY)
	angle := CellAngle(col, row, centerX, centerY)
	if dist > radius+0.5 {
		return " "
	}
	if col == centerX && row == centerY {
		return styleCenter.Render("+")
	}
	if col == centerX {
		return renderSweepChar('|', sweep, angle)
	}
	if row == centerY {
		return renderSweepChar('-', sweep, angle)
	}
	for _, r := range rings {
		if math.Abs(dist-r) < 0.8 {
			return renderSweepChar(RingChar(angle), sweep, angle)
		}
	}
	return renderSweepChar('.', sweep, angle)
}

// renderBlip draws the zone number in its lead LED color, bold when
// someone is inside the far threshold.
func renderBlip(b Blip) string {
	sym := fmt.Sprintf("%d", (b.Zone+1)%10)
	sty := lipgloss.NewStyle().Foreground(lipgloss.Color(b.Color))
	if b.Color == "" || b.Color == "#000000" {
		sty = lipgloss.NewStyle().Foreground(colorBright)
	}
	if b.Near {
		sty = sty.Bold(true).Reverse(true)
	}
	return sty.Render(sym)
}

func renderSweepChar(ch rune, sweep *Sweep, angle float64) string {
	color := sweepColor(sweep.Intensity(angle))
	if color == "" {
		if ch == '.' {
			return styleDot.Render(string(ch))
		}
		return styleRing.Render(string(ch))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(string(ch))
}

func sweepColor(intensity float64) string {
	switch {
	case intensity <= 0:
		return ""
	case intensity > 0.8:
		return "#00FF41"
	case intensity > 0.5:
		return "#00CC33"
	case intensity > 0.3:
		return "#00AA22"
	}
	return "#005511"
}

// RenderLegend produces the line under the dial.
func RenderLegend(width int) string {
	legend := "   " +
		styleLegNear.Render(fmt.Sprintf("[n] within %.0fcm", config.FarThresholdCM)) +
		"  " +
		styleLegMuted.Render("muted")

	pad := (width - lipgloss.Width(legend)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + legend
}
