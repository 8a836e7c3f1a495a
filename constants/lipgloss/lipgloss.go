package lipgloss

import "github.com/charmbracelet/lipgloss"

var (
	Red     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	Green   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD787"))
	Yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD75F"))
	BlueSky = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFFF")).Bold(true)
	Info    = lipgloss.NewStyle().Foreground(lipgloss.Color("#87AFFF")).Bold(true)
	Gray    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A"))
	Cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD7D7"))

	// Added and removed line counters in change previews.
	Added   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD787")).Bold(true)
	Removed = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Bold(true)
	Changed = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD75F")).Bold(true)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5FAFFF")).
			Padding(0, 1)

	ErrorBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF5F5F")).
			Padding(0, 1)
)
