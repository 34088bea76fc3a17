package tui

import "github.com/charmbracelet/lipgloss"

var (
	// HeaderStyle styles the title and column header rows.
	HeaderStyle = lipgloss.NewStyle().Bold(true)

	barFilled = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	barEmpty  = lipgloss.NewStyle().Faint(true)

	statusStyles = map[string]lipgloss.Style{
		// Terminal states
		"complete": lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"imported": lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"ok":       lipgloss.NewStyle().Foreground(lipgloss.Color("2")),

		// Active states
		"preparing": lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"rendering": lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"recording": lipgloss.NewStyle().Foreground(lipgloss.Color("5")),

		// Warning
		"outdated": lipgloss.NewStyle().Foreground(lipgloss.Color("3")),

		// Error
		"failed":  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		"missing": lipgloss.NewStyle().Foreground(lipgloss.Color("1")),

		// Idle
		"idle": lipgloss.NewStyle().Faint(true),
	}
)

// StatusStyle returns the lipgloss style for the given status string.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}
