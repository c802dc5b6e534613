package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

func (m *Model) View() string {
	if m.width == 0 {
		return ""
	}
	m.refreshViewport()
	lines := []string{m.viewport.View()}
	if suggestions := m.renderSuggestions(); suggestions != "" {
		lines = append(lines, suggestions)
	} else {
		lines = append(lines, "")
	}
	lines = append(lines, m.renderInput(), m.statusLine())
	main := lipgloss.JoinVertical(lipgloss.Left, lines...)

	output := main
	if sidebar := m.renderSidebar(); sidebar != "" {
		output = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
	}
	return m.zoneManager.Scan(output)
}

func (m *Model) statusLine() string {
	left := m.connectionLabel(m.connState)
	if conv, ok := m.activeConversation(); ok {
		left += dimStyle.Render(" · ") + conversationTitle(conv.Title)
	}
	if m.status != "" {
		left += dimStyle.Render(" · " + m.status)
	}
	right := dimStyle.Render("tab conversations · ctrl+n new · ctrl+y copy")
	return alignStatusLine(left, right, m.mainWidth())
}

func alignStatusLine(left, right string, width int) string {
	if width <= 0 || right == "" {
		return left
	}
	leftWidth := ansi.StringWidth(left)
	rightWidth := ansi.StringWidth(right)
	if leftWidth+rightWidth+1 > width {
		return ansi.Truncate(left, width, "…")
	}
	return left + strings.Repeat(" ", width-leftWidth-rightWidth) + right
}
