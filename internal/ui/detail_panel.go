package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderZoneDetail renders the zone detail view that replaces the dial.
func RenderZoneDetail(r ZoneRow, width, height int, history []float64) string {
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}

	title := StylePanelTitle.Render(fmt.Sprintf("ZONE %d", r.Zone+1))
	hint := StyleHelp.Render("[ESC]")
	titleLine := title + strings.Repeat(" ", max(0, innerW-lipgloss.Width(title)-lipgloss.Width(hint))) + hint

	lines := []string{titleLine, StyleRule.Render(strings.Repeat("-", innerW)), ""}

	labelSty := lipgloss.NewStyle().Foreground(ColorMidGreen)
	valSty := lipgloss.NewStyle().Foreground(ColorMatrixGreen).Bold(true)

	note := "none yet"
	if r.Note >= 0 {
		note = fmt.Sprintf("%d", r.Note)
	}
	sound := fmt.Sprintf("channel %d", r.Channel)
	if r.Muted {
		sound = "muted"
	}
	fields := []struct{ label, value string }{
		{"Echo pin", r.Pin},
		{"Sound", sound},
		{"Distance", fmt.Sprintf("%.2f cm", r.Distance)},
		{"Note", note},
		{"Spark", fmt.Sprintf("%.3f per frame", r.Spark)},
		{"Base", r.Base + " " + Swatch(r.Base)},
		{"Lead", r.Lead + " " + Swatch(r.Lead)},
	}
	for _, f := range fields {
		lines = append(lines, labelSty.Render(fmt.Sprintf("  %-10s", f.label))+valSty.Render(f.value))
	}

	lines = append(lines, "")
	barW := innerW - 22
	if barW < 10 {
		barW = 10
	}
	lines = append(lines, labelSty.Render("  Presence ")+IntensityBar(r.Intensity, barW)+valSty.Render(fmt.Sprintf(" %3.0f%%", r.Intensity*100)))

	if len(history) > 0 {
		sparkW := innerW - 4
		if sparkW < 10 {
			sparkW = 10
		}
		lines = append(lines, "", labelSty.Render("  Distance history:"))
		lines = append(lines, "  "+lipgloss.NewStyle().Foreground(ColorGreen).Render(Sparkline(history, sparkW)))
	}

	for len(lines) < height-2 {
		lines = append(lines, "")
	}
	return StylePanelActive.Width(width - 2).Height(height - 2).Render(strings.Join(lines, "\n"))
}

// Sparkline plots the last width values, scaled between their min and max.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	chars := []byte{'_', '.', '-', '~', '^'}

	if len(values) > width {
		values = values[len(values)-width:]
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	if span < 1 {
		span = 1
	}

	var sb strings.Builder
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(chars)-1))
		sb.WriteByte(chars[max(0, min(idx, len(chars)-1))])
	}
	return sb.String()
}
