package chat

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

func conversationZone(id string) string {
	return "conv-" + id
}

func conversationTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "Untitled"
	}
	return title
}

func (m *Model) renderSidebar() string {
	width := m.sidebarWidth()
	if width == 0 {
		return ""
	}
	inner := width - 2
	header := dimStyle.Render("conversations")
	if m.sidebarFocus {
		header = sidebarActiveStyle.Render("conversations")
	}
	lines := []string{header, ""}
	active := m.store.ConversationID()
	for i, conv := range m.conversations {
		title := ansi.Truncate(conversationTitle(conv.Title), inner, "…")
		if conv.ID == active {
			title = sidebarActiveStyle.Render(title)
		}
		when := dimStyle.Render(ansi.Truncate(humanize.Time(conv.UpdatedAt), inner, "…"))
		row := title + "\n" + when
		if m.sidebarFocus && i == m.convIndex {
			row = sidebarCursorStyle.Width(inner).Render(row)
		}
		lines = append(lines, m.zoneManager.Mark(conversationZone(conv.ID), row))
	}
	if len(m.conversations) == 0 {
		lines = append(lines, dimStyle.Render("none yet"))
	}
	content := strings.Join(lines, "\n")
	return sidebarStyle.Width(width - 1).Height(m.height).MaxHeight(m.height).PaddingRight(1).Render(content)
}
