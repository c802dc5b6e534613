package chat

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/adamavenir/confab/internal/core"
	"github.com/adamavenir/confab/internal/types"
)

type configMsg struct {
	cfg core.Config
	err error
}

type highlightTickMsg struct{}

const highlightTick = 100 * time.Millisecond

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
	case tea.KeyMsg:
		cmd = m.handleKeyMsg(msg)
	case tea.MouseMsg:
		cmd = m.handleMouseMsg(msg)
	case tea.FocusMsg:
		m.focused = true
		m.push.SetVisible(true)
	case tea.BlurMsg:
		m.focused = false
		m.push.SetVisible(false)
	case loopMsg:
		msg.fn()
	case conversationsMsg:
		cmd = m.handleConversations(msg)
	case conversationCreatedMsg:
		cmd = m.handleConversationCreated(msg)
	case messagesMsg:
		m.handleMessages(msg)
	case sentMsg:
		m.handleSent(msg)
	case configMsg:
		m.applyConfig(msg)
	case highlightTickMsg:
		m.highlightTicking = false
	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
	}
	m.loop.drain()
	return m, tea.Batch(cmd, m.highlightCmd())
}

// highlightCmd keeps redrawing while a freshly inserted chip is highlighted.
func (m *Model) highlightCmd() tea.Cmd {
	if m.highlightTicking || !m.surface.ExpireHighlights(time.Now()) {
		return nil
	}
	m.highlightTicking = true
	return tea.Tick(highlightTick, func(time.Time) tea.Msg { return highlightTickMsg{} })
}

func (m *Model) applyConfig(msg configMsg) {
	if msg.err != nil {
		m.status = fmt.Sprintf("config reload failed: %v", msg.err)
		m.log.Warn("config reload failed", "error", msg.err)
		return
	}
	m.cfg = msg.cfg
	m.suggest.SetDebounce(msg.cfg.Debounce())
	m.suggest.SetLimit(msg.cfg.SearchLimit)
	m.limiter.SetLimit(rate.Limit(msg.cfg.SearchRate))
	m.limiter.SetBurst(msg.cfg.SearchBurst)
	m.log.Info("config reloaded", "debounce_ms", msg.cfg.DebounceMS, "search_limit", msg.cfg.SearchLimit)
	m.status = "config reloaded"
}

func (m *Model) handleMouseMsg(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	if m.popover.Open {
		for i, item := range m.popover.Items {
			if m.zoneManager.Get(suggestionZone(i)).InBounds(msg) {
				if _, ok := m.suggest.Commit(item); ok {
					m.resize()
				}
				return nil
			}
		}
	}
	if m.sidebarOpen {
		for i, conv := range m.conversations {
			if m.zoneManager.Get(conversationZone(conv.ID)).InBounds(msg) {
				m.convIndex = i
				return m.openConversation(conv.ID)
			}
		}
	}
	return nil
}

func (m *Model) connectionLabel(state types.ConnectionState) string {
	switch state {
	case types.ConnectionConnecting:
		return m.spinner.View() + " connecting"
	case types.ConnectionConnected:
		return connectedStyle.Render("● live")
	case types.ConnectionError:
		return errorStyle.Render("✕ error")
	}
	if m.connErr != nil {
		return errorStyle.Render("○ offline") + dimStyle.Render(" · ctrl+r to reconnect")
	}
	return dimStyle.Render("○ offline")
}
