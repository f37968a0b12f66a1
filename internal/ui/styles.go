package ui

import "github.com/charmbracelet/lipgloss"

// Adaptive palette for light and dark terminals.
var (
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#58A6FF"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008000", Dark: "#3FB950"}
	ColorError   = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#F85149"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#CC6600", Dark: "#D29922"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#8B949E"}
)

const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "!"
	SymbolEvent   = "●"
)

var (
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleMuted   = lipgloss.NewStyle().Foreground(ColorMuted)
)
