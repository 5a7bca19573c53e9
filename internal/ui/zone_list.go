package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ZoneRow is one zone as shown in the list and the detail panel.
type ZoneRow struct {
	Zone      int
	Pin       string
	Channel   int
	Distance  float64 // smoothed, cm
	Intensity float64 // 0..1
	Note      int     // last note sent, -1 for none
	Muted     bool
	Base      string // "#RRGGBB"
	Lead      string
	Spark     float64
}

// cursor row: black on bright green
var cursorRowSty = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#000000")).
	Background(ColorMatrixGreen).
	Bold(true)

const linesPerZone = 4 // three lines of content plus a blank

// RenderZoneList renders the scrolling zone list. The title stays fixed;
// the entries scroll to keep the cursor visible.
func RenderZoneList(rows []ZoneRow, width, height, cursor int) string {
	innerW := width - 4
	if innerW < 10 {
		innerW = 10
	}

	header := []string{
		StylePanelTitle.Render(fmt.Sprintf("ZONES [%d]", len(rows))),
		StyleRule.Render(strings.Repeat("-", innerW)),
	}

	innerH := height - 2
	if innerH < len(header)+1 {
		innerH = len(header) + 1
	}
	space := innerH - len(header)

	var lines []string
	if len(rows) == 0 {
		lines = append(lines, "", StyleHelp.Render(" Waiting for sensors"))
	} else {
		visible := space / linesPerZone
		if visible < 1 {
			visible = 1
		}
		start := 0
		if cursor >= visible {
			start = cursor - visible + 1
		}
		for i := start; i < len(rows) && len(lines) < space; i++ {
			lines = append(lines, renderZoneEntry(rows[i], innerW, i == cursor)...)
		}
	}

	if len(lines) > space {
		lines = lines[:space]
	}
	for len(lines) < space {
		lines = append(lines, "")
	}

	content := strings.Join(append(header, lines...), "\n")
	rendered := StylePanelBorder.Width(width - 2).Height(innerH).Render(content)

	// Height only sets a minimum; clamp overflow.
	out := strings.Split(rendered, "\n")
	if len(out) > height {
		out = out[:height]
	}
	for len(out) < height {
		out = append(out, "")
	}
	return strings.Join(out, "\n")
}

func renderZoneEntry(r ZoneRow, maxW int, isCursor bool) []string {
	note := "--"
	if r.Note >= 0 {
		note = fmt.Sprintf("%d", r.Note)
	}
	tag := fmt.Sprintf("[ch%d]", r.Channel)
	if r.Muted {
		tag = "[muted]"
	}

	barW := maxW - 16
	if barW < 4 {
		barW = 4
	}

	raw1 := fmt.Sprintf("%s Zone %d  %s %s", cursorMark(isCursor), r.Zone+1, r.Pin, tag)
	raw2 := fmt.Sprintf("     %7.2fcm  note %s", r.Distance, note)
	raw3 := fmt.Sprintf("     spark %.3f", r.Spark)

	if isCursor {
		return []string{
			cursorRowSty.Render(truncRaw(raw1, maxW)),
			cursorRowSty.Render(truncRaw(raw2, maxW)),
			cursorRowSty.Render(truncRaw(raw3, maxW)),
			"",
		}
	}

	tagSty := StyleZoneInfo
	if r.Muted {
		tagSty = StyleMuted
	}
	line1 := fmt.Sprintf("   Zone %s  %s %s", StyleZoneName.Render(fmt.Sprintf("%d", r.Zone+1)), StyleZoneInfo.Render(r.Pin), tagSty.Render(tag))
	line2 := "     " + IntensityBar(r.Intensity, barW) + " " + StyleZoneDist.Render(fmt.Sprintf("%.0fcm", r.Distance))
	line3 := fmt.Sprintf("     %s%s  %s  %s",
		Swatch(r.Base), Swatch(r.Lead),
		StyleZoneInfo.Render("note "+note),
		StyleZoneInfo.Render(fmt.Sprintf("spark %.3f", r.Spark)),
	)
	return []string{line1, line2, line3, ""}
}

func cursorMark(on bool) string {
	if on {
		return ">>"
	}
	return "  "
}

// IntensityBar draws a filled bar for a 0..1 intensity.
func IntensityBar(intensity float64, width int) string {
	intensity = math.Max(0, math.Min(1, intensity))
	filled := int(math.Round(intensity * float64(width)))
	bar := strings.Repeat("|", filled) + strings.Repeat("-", width-filled)
	filledPart := lipgloss.NewStyle().Foreground(lipgloss.Color(intensityColor(intensity))).Render(bar[:filled])
	emptyPart := lipgloss.NewStyle().Foreground(ColorDimGreen).Render(bar[filled:])
	return StyleHelp.Render("[") + filledPart + emptyPart + StyleHelp.Render("]")
}

func intensityColor(v float64) string {
	switch {
	case v > 0.8:
		return "#00FF41"
	case v > 0.6:
		return "#00CC33"
	case v > 0.4:
		return "#00AA22"
	case v > 0.2:
		return "#008F11"
	}
	return "#005511"
}

// truncRaw pads or truncates a raw string to exactly w characters.
func truncRaw(s string, w int) string {
	if len(s) > w {
		return s[:w]
	}
	return s + strings.Repeat(" ", w-len(s))
}
