package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles one theme resolves to.
type Styles struct {
	Feed      lipgloss.Style
	System    lipgloss.Style
	StatusBar lipgloss.Style
	Topic     lipgloss.Style

	StatusConnected    lipgloss.Style
	StatusDisconnected lipgloss.Style
	StatusBusy         lipgloss.Style

	SidebarCurrent lipgloss.Style
	SidebarUnread  lipgloss.Style
	SidebarStale   lipgloss.Style
	SidebarNormal  lipgloss.Style

	InputPrompt lipgloss.Style
	InputText   lipgloss.Style

	OverlayBorder   lipgloss.Style
	OverlayTitle    lipgloss.Style
	OverlaySelected lipgloss.Style
	OverlayNormal   lipgloss.Style

	HelpText lipgloss.Style
	Muted    lipgloss.Style
}

// StylesFor resolves a theme name to concrete styles. Unknown names fall
// back to the dark theme so a bad config value never blanks the screen.
func StylesFor(theme string) Styles {
	switch theme {
	case "builtin:light":
		return lightStyles()
	case "builtin:solarized-dark":
		return solarizedStyles(false)
	case "builtin:solarized-light":
		return solarizedStyles(true)
	default:
		return darkStyles()
	}
}

func darkStyles() Styles {
	return Styles{
		Feed:      lipgloss.NewStyle(),
		System:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true),
		StatusBar: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Topic:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),

		StatusConnected:    lipgloss.NewStyle().Foreground(lipgloss.Color("71")),
		StatusDisconnected: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		StatusBusy:         lipgloss.NewStyle().Foreground(lipgloss.Color("179")),

		SidebarCurrent: lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")),
		SidebarUnread:  lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
		SidebarStale:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true),
		SidebarNormal:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),

		InputPrompt: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		InputText:   lipgloss.NewStyle(),

		OverlayBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1),
		OverlayTitle:    lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Bold(true),
		OverlaySelected: lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")),
		OverlayNormal:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),

		HelpText: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

func lightStyles() Styles {
	s := darkStyles()
	s.System = s.System.Foreground(lipgloss.Color("241"))
	s.StatusBar = s.StatusBar.Foreground(lipgloss.Color("236"))
	s.Topic = s.Topic.Foreground(lipgloss.Color("241"))
	s.SidebarNormal = s.SidebarNormal.Foreground(lipgloss.Color("236"))
	s.OverlayNormal = s.OverlayNormal.Foreground(lipgloss.Color("236"))
	s.HelpText = s.HelpText.Foreground(lipgloss.Color("236"))
	return s
}

func solarizedStyles(light bool) Styles {
	s := darkStyles()
	accent := lipgloss.Color("33") // solarized blue
	if light {
		accent = lipgloss.Color("37") // solarized cyan
	}
	s.SidebarCurrent = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(accent)
	s.OverlayBorder = s.OverlayBorder.BorderForeground(accent)
	s.OverlaySelected = lipgloss.NewStyle().Background(accent).Foreground(lipgloss.Color("230"))
	s.StatusConnected = s.StatusConnected.Foreground(lipgloss.Color("64"))
	return s
}
