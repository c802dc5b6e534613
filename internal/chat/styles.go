package chat

import "github.com/charmbracelet/lipgloss"

var (
	inputBg      = lipgloss.Color("236")
	caretColor   = lipgloss.Color("153")
	metaColor    = lipgloss.Color("242")
	statusColor  = lipgloss.Color("245")
	userColor    = lipgloss.Color("111")
	agentColor   = lipgloss.Color("157")
	chipBg       = lipgloss.Color("24")
	chipFreshBg  = lipgloss.Color("31")
	selectedBg   = lipgloss.Color("238")
	errorColor   = lipgloss.Color("196")
	connectColor = lipgloss.Color("42")
)

var (
	dimStyle           = lipgloss.NewStyle().Foreground(metaColor)
	errorStyle         = lipgloss.NewStyle().Foreground(errorColor)
	connectedStyle     = lipgloss.NewStyle().Foreground(connectColor)
	spinnerStyle       = lipgloss.NewStyle().Foreground(caretColor)
	caretStyle         = lipgloss.NewStyle().Reverse(true)
	chipStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(chipBg)
	chipFreshStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(chipFreshBg).Bold(true)
	mentionStyle       = lipgloss.NewStyle().Foreground(caretColor).Bold(true)
	userLabelStyle     = lipgloss.NewStyle().Foreground(userColor).Bold(true)
	agentLabelStyle    = lipgloss.NewStyle().Foreground(agentColor).Bold(true)
	systemStyle        = lipgloss.NewStyle().Foreground(metaColor).Italic(true)
	popoverStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(metaColor).Padding(0, 1)
	popoverFocusStyle  = lipgloss.NewStyle().Background(selectedBg).Bold(true)
	sidebarStyle       = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderRight(true).BorderForeground(metaColor)
	sidebarActiveStyle = lipgloss.NewStyle().Foreground(userColor).Bold(true)
	sidebarCursorStyle = lipgloss.NewStyle().Background(selectedBg)
)
