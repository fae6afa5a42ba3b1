// Package tui provides the Bubble Tea front-end for Port Browser.
// styles.go defines the lipgloss styles for each theme.
package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/insajin/port-browser/internal/branding"
	"github.com/insajin/port-browser/internal/config"
)

// Styles holds every style the model renders with.
type Styles struct {
	// Panel border and title styles.
	Panel       lipgloss.Style
	ActivePanel lipgloss.Style
	Title       lipgloss.Style
	Header      lipgloss.Style

	// List rows.
	SelectedRow lipgloss.Style
	NormalRow   lipgloss.Style

	// Key-value pairs.
	Label lipgloss.Style
	Value lipgloss.Style

	// Status indicators.
	OK      lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style

	// Footer help.
	Help    lipgloss.Style
	HelpKey lipgloss.Style
}

// NewStyles returns the styles for theme. ThemeSystem follows the
// terminal background.
func NewStyles(theme config.Theme) Styles {
	dark := true
	switch theme {
	case config.ThemeLight:
		dark = false
	case config.ThemeSystem:
		dark = lipgloss.HasDarkBackground()
	}
	if dark {
		return darkStyles()
	}
	return lightStyles()
}

func darkStyles() Styles {
	return baseStyles(branding.ColorWhite, branding.ColorDeepBlue, branding.ColorLightGray)
}

func lightStyles() Styles {
	s := baseStyles(branding.ColorInk, branding.ColorSky, branding.ColorMutedGray)
	s.Title = s.Title.Foreground(lipgloss.Color(branding.ColorDeepBlue))
	s.SelectedRow = s.SelectedRow.Foreground(lipgloss.Color(branding.ColorDeepBlue))
	return s
}

// baseStyles builds a theme from its foreground, accent background and
// muted label colors.
func baseStyles(fg, accentBg, muted string) Styles {
	return Styles{
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(branding.ColorBorderGray)).
			Padding(0, 1),
		ActivePanel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(branding.ColorPrimary)).
			Padding(0, 1),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(fg)).
			Background(lipgloss.Color(accentBg)).
			Padding(0, 1),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(fg)).
			Background(lipgloss.Color(accentBg)).
			Padding(0, 1),

		SelectedRow: lipgloss.NewStyle().
			Background(lipgloss.Color(accentBg)).
			Foreground(lipgloss.Color(fg)),
		NormalRow: lipgloss.NewStyle().
			Foreground(lipgloss.Color(muted)),

		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color(muted)).
			Width(14),
		Value: lipgloss.NewStyle().
			Foreground(lipgloss.Color(fg)),

		OK: lipgloss.NewStyle().
			Foreground(lipgloss.Color(branding.ColorGreen)).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(branding.ColorCoral)).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(branding.ColorAmber)),

		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(branding.ColorMutedGray)),
		HelpKey: lipgloss.NewStyle().
			Foreground(lipgloss.Color(branding.ColorPrimary)).
			Bold(true),
	}
}
