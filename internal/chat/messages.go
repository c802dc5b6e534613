package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/adamavenir/confab/internal/core"
	"github.com/adamavenir/confab/internal/store"
	"github.com/adamavenir/confab/internal/types"
)

// markdownStyle is fixed; auto style queries the terminal, which can block
// inside the program.
const markdownStyle = "dark"

var markdownRenderers = map[int]*glamour.TermRenderer{}

func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}
	r := markdownRenderers[width]
	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(markdownStyle),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		markdownRenderers[width] = rr
		r = rr
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

func (m *Model) refreshViewport() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages(m.viewport.Width))
	if m.pendingScrollBottom || atBottom {
		m.viewport.GotoBottom()
		m.pendingScrollBottom = false
	}
}

func (m *Model) renderMessages(width int) string {
	msgs := m.store.Messages()
	if len(msgs) == 0 {
		switch {
		case m.store.State() == store.Loading:
			return dimStyle.Render("loading…")
		case m.store.ConversationID() == "":
			return dimStyle.Render("no conversation open")
		}
		return dimStyle.Render("no messages yet")
	}
	blocks := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		blocks = append(blocks, m.renderMessage(msg, width))
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderMessage(msg types.Message, width int) string {
	header := m.renderByline(msg)
	if out, ok := m.rendered[msg.ID]; ok && !msg.Temporary {
		return header + "\n" + out
	}

	var body string
	switch msg.Type {
	case types.MessageTypeAssistant:
		body = renderMarkdown(core.ReplaceWireTokens(msg.Content, func(mention types.Mention) string {
			return "**" + core.FormatShort(mention) + "**"
		}), width)
	case types.MessageTypeSystem:
		body = systemStyle.Width(width).Render(msg.Content)
	default:
		text := core.ReplaceWireTokens(msg.Content, func(mention types.Mention) string {
			return mentionStyle.Render(core.FormatShort(mention))
		})
		body = lipgloss.NewStyle().Width(width).Render(highlightCodeBlocks(text))
	}
	if !msg.Temporary {
		m.rendered[msg.ID] = body
	}
	return header + "\n" + body
}

func (m *Model) renderByline(msg types.Message) string {
	var label string
	switch msg.Type {
	case types.MessageTypeAssistant:
		label = agentLabelStyle.Render("assistant")
	case types.MessageTypeSystem:
		label = systemStyle.Render("system")
	default:
		label = userLabelStyle.Render("you")
	}
	parts := []string{label}
	if !msg.CreatedAt.IsZero() {
		parts = append(parts, dimStyle.Render(msg.CreatedAt.Local().Format("15:04")))
	}
	switch {
	case msg.Error:
		parts = append(parts, errorStyle.Render("failed to send"))
	case msg.Temporary:
		parts = append(parts, dimStyle.Render("sending…"))
	}
	return strings.Join(parts, " ")
}

func (m *Model) lastReply() (types.Message, bool) {
	msgs := m.store.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == types.MessageTypeAssistant {
			return msgs[i], true
		}
	}
	return types.Message{}, false
}
