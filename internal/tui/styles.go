package tui

import "github.com/charmbracelet/lipgloss"

const (
	colorPrimary = lipgloss.Color("#22c55e")
	colorMuted   = lipgloss.Color("#6b7280")
	colorAlert   = lipgloss.Color("#ef4444")
	colorText    = lipgloss.Color("#e5e7eb")
)

// Styles groups the lipgloss styles of the console.
type Styles struct {
	Header     lipgloss.Style
	Label      lipgloss.Style
	Focused    lipgloss.Style
	Help       lipgloss.Style
	Status     lipgloss.Style
	Empty      lipgloss.Style
	Title      lipgloss.Style
	Modal      lipgloss.Style
	ModalTitle lipgloss.Style
	Spinner    lipgloss.Style
}

// DefaultStyles returns the green-on-black console theme.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true).
			Padding(0, 1).
			MarginBottom(1),
		Label: lipgloss.NewStyle().
			Foreground(colorMuted),
		Focused: lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true),
		Help: lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1),
		Status: lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true),
		Empty: lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(2, 4),
		Title: lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(colorPrimary),
		Modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAlert).
			Padding(1, 2).
			MarginBottom(1),
		ModalTitle: lipgloss.NewStyle().
			Foreground(colorAlert).
			Bold(true),
		Spinner: lipgloss.NewStyle().
			Foreground(colorPrimary),
	}
}
