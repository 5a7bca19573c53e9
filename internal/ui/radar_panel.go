package ui

// RenderRadarPanel wraps the dial and its legend in a border. The dial is
// drawn by the radar package.
func RenderRadarPanel(width, height int, dial, legend string) string {
	return StylePanelBorder.Width(width - 2).Height(height - 2).Render(dial + "\n" + legend)
}
