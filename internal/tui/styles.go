package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent  = lipgloss.Color("#8BC34A")
	muted   = lipgloss.Color("#6b7280")
	danger  = lipgloss.Color("#e53935")
	surface = lipgloss.Color("#1e2a3d")
)

type styles struct {
	ActiveTab   lipgloss.Style
	Tab         lipgloss.Style
	Title       lipgloss.Style
	Selected    lipgloss.Style
	Meta        lipgloss.Style
	Error       lipgloss.Style
	Status      lipgloss.Style
	Placeholder lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		ActiveTab:   lipgloss.NewStyle().Bold(true).Foreground(accent).Background(surface).Padding(0, 1),
		Tab:         lipgloss.NewStyle().Foreground(muted).Padding(0, 1),
		Title:       lipgloss.NewStyle().PaddingLeft(2),
		Selected:    lipgloss.NewStyle().Bold(true).Foreground(accent).PaddingLeft(0),
		Meta:        lipgloss.NewStyle().Foreground(muted).PaddingLeft(4),
		Error:       lipgloss.NewStyle().Foreground(danger),
		Status:      lipgloss.NewStyle().Foreground(accent),
		Placeholder: lipgloss.NewStyle().Foreground(muted).Italic(true).PaddingLeft(2),
	}
}
