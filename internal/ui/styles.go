package ui

import "github.com/charmbracelet/lipgloss"

// Shared palette, referenced by table.go and the render helpers. Colors
// follow lipgloss's adaptive-color convention so output stays legible on
// both light and dark terminals.
var (
	ColorAccent = lipgloss.AdaptiveColor{Light: "#6124df", Dark: "#9980ff"}
	ColorWarn   = lipgloss.AdaptiveColor{Light: "#b25000", Dark: "#ffb454"}
	ColorPass   = lipgloss.AdaptiveColor{Light: "#2a9d3d", Dark: "#72d97e"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#888888", Dark: "#6c6c6c"}
)
