package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFDF5")).Background(lipgloss.Color("62")).Padding(0, 1)
	serverStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AFAFAF")).PaddingLeft(1)

	// Transcript blocks
	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	userBlockStyle      = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderLeft(true).BorderForeground(lipgloss.Color("39")).PaddingLeft(1)
	assistantBlockStyle = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderLeft(true).BorderForeground(lipgloss.Color("170")).PaddingLeft(1)
	metaStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)

	// Settings panel
	fieldLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AFAFAF"))
	panelStyle      = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)

	// Send control
	sendStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("62")).Padding(0, 1)
	sendDisabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Background(lipgloss.Color("236")).Padding(0, 1)

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	helpStyle = lipgloss.NewStyle().BorderStyle(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("170")).Padding(0, 1)
)
