package ui

import "github.com/charmbracelet/lipgloss"

// Color palette. A single teal accent keeps the display quiet.
const (
	ColorTeal     = "43"  // Primary accent
	ColorWhite    = "255" // Headers, important text
	ColorGray     = "245" // Secondary text, labels
	ColorDarkGray = "238" // Borders, separators
	ColorRed      = "196" // Errors
	ColorYellow   = "220" // Warnings
)

// Styles holds the lipgloss styles the TUI renders with.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Active  lipgloss.Style
	Border  lipgloss.Style
	Speed   lipgloss.Style
	Label   lipgloss.Style
}

// DefaultStyles returns the colored style set.
func DefaultStyles() Styles {
	accent := lipgloss.Color(ColorTeal)
	muted := lipgloss.Color(ColorGray)
	faint := lipgloss.Color(ColorDarkGray)

	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(accent),
		Success: lipgloss.NewStyle().Foreground(accent),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Dim:     lipgloss.NewStyle().Foreground(faint),
		Active:  lipgloss.NewStyle().Bold(true).Foreground(accent),
		Border:  lipgloss.NewStyle().Foreground(faint),
		Speed:   lipgloss.NewStyle().Foreground(muted),
		Label:   lipgloss.NewStyle().Foreground(muted),
	}
}

// NoColorStyles returns styles that render text unmodified, for
// NO_COLOR terminals.
func NoColorStyles() Styles {
	return Styles{}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
