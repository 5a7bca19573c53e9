package ui

import "github.com/charmbracelet/lipgloss"

// ComposeLayout joins the left and right panels horizontally, with the menu
// bar on top and the status bar at the bottom.
func ComposeLayout(menuBar, left, right, statusBar string) string {
	middle := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return lipgloss.JoinVertical(lipgloss.Left, menuBar, middle, statusBar)
}
