package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/adamavenir/confab/internal/editor"
	"github.com/adamavenir/confab/internal/suggest"
)

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		if !m.surface.IsEmpty() {
			m.sel = m.surface.Clear()
			m.suggest.Close()
			return nil
		}
		return tea.Quit
	case "tab":
		m.sidebarOpen = true
		m.sidebarFocus = !m.sidebarFocus
		m.resize()
		return nil
	case "ctrl+b":
		m.sidebarOpen = !m.sidebarOpen
		if !m.sidebarOpen {
			m.sidebarFocus = false
		}
		m.resize()
		return nil
	case "ctrl+y":
		m.copyLastReply()
		return nil
	case "ctrl+r":
		m.push.Reconnect()
		return m.loadConversationsCmd()
	case "ctrl+n":
		return m.createConversationCmd("")
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}

	if m.sidebarFocus {
		return m.handleSidebarKey(msg)
	}
	if ev, ok := suggestionKey(msg); ok && m.suggest.OnKeyDown(ev) {
		m.resize()
		return nil
	}
	return m.handleInputKey(msg)
}

// suggestionKey maps a key press onto the popover's keys. alt+enter is the
// terminal's shift+enter.
func suggestionKey(msg tea.KeyMsg) (suggest.KeyEvent, bool) {
	switch msg.String() {
	case "esc":
		return suggest.KeyEvent{Key: suggest.KeyEscape}, true
	case "up":
		return suggest.KeyEvent{Key: suggest.KeyUp}, true
	case "down":
		return suggest.KeyEvent{Key: suggest.KeyDown}, true
	case "enter":
		return suggest.KeyEvent{Key: suggest.KeyEnter}, true
	case "alt+enter", "ctrl+j":
		return suggest.KeyEvent{Key: suggest.KeyEnter, Shift: true}, true
	}
	return suggest.KeyEvent{}, false
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	var (
		sel editor.Selection
		err error
	)
	switch {
	case msg.String() == "enter":
		return m.send()
	case msg.String() == "alt+enter" || msg.Type == tea.KeyCtrlJ:
		sel, err = m.surface.InsertText(m.sel, "\n")
	case msg.Type == tea.KeyBackspace:
		sel, err = m.surface.Backspace(m.sel)
	case msg.Type == tea.KeyDelete:
		sel, err = m.surface.Delete(m.sel)
	case msg.Type == tea.KeyLeft:
		sel, err = m.surface.MoveLeft(m.sel)
	case msg.Type == tea.KeyRight:
		sel, err = m.surface.MoveRight(m.sel)
	case msg.Type == tea.KeyHome:
		sel = editor.Caret(m.surface.Start())
	case msg.Type == tea.KeyEnd:
		sel = editor.Caret(m.surface.End())
	case msg.Type == tea.KeySpace:
		sel, err = m.surface.InsertText(m.sel, " ")
	case msg.Type == tea.KeyRunes && msg.Paste:
		sel, err = m.surface.Paste(m.sel, string(msg.Runes), editor.DisplayShort)
	case msg.Type == tea.KeyRunes:
		sel, err = m.surface.InsertText(m.sel, string(msg.Runes))
	default:
		return nil
	}
	if err != nil {
		// the caret no longer addresses the surface
		m.log.Debug("edit rejected", "key", msg.String(), "error", err)
		sel = editor.Caret(m.surface.End())
	}
	m.sel = sel
	m.afterEdit()
	return nil
}

// afterEdit lets the popover re-evaluate the trigger at the caret.
func (m *Model) afterEdit() {
	m.suggest.OnInput(m.sel)
	m.resize()
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.sidebarFocus = false
	case "up", "k":
		if m.convIndex > 0 {
			m.convIndex--
		}
	case "down", "j":
		if m.convIndex < len(m.conversations)-1 {
			m.convIndex++
		}
	case "enter":
		if m.convIndex >= 0 && m.convIndex < len(m.conversations) {
			m.sidebarFocus = false
			return m.openConversation(m.conversations[m.convIndex].ID)
		}
	}
	return nil
}
