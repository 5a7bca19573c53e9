package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the bottom bar shows about the sound pipeline.
type StatusInfo struct {
	Phase    string
	Sessions int
	Passes   uint64
	Frames   uint64
	LastErr  string
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, s StatusInfo) string {
	phase := PhaseStyle(s.Phase).Render("[" + s.Phase + "]")

	info := fmt.Sprintf(" Session: %d  Passes: %d  Frames: %d", s.Sessions, s.Passes, s.Frames)
	content := phase + StyleStatusBar.Foreground(ColorGreen).Render(info)
	if s.LastErr != "" {
		content += "  " + StyleStatusCrashed.Render("Last error: "+s.LastErr)
	}

	// Leave room for the bar's own padding.
	if w := width - 2; lipgloss.Width(content) > w && w > 0 {
		content = lipgloss.NewStyle().MaxWidth(w).Render(content)
	}
	gap := width - 2 - lipgloss.Width(content)
	if gap < 0 {
		gap = 0
	}
	return StyleStatusBar.Width(width).Render(content + strings.Repeat(" ", gap))
}
