package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/adamavenir/confab/internal/api"
	"github.com/adamavenir/confab/internal/db"
	"github.com/adamavenir/confab/internal/editor"
	"github.com/adamavenir/confab/internal/types"
)

const requestTimeout = 20 * time.Second

type conversationsMsg struct {
	conversations []types.Conversation
	err           error
}

type conversationCreatedMsg struct {
	conversation types.Conversation
	err          error
}

type messagesMsg struct {
	conversationID string
	messages       []types.Message
	err            error
}

type sentMsg struct {
	conversationID string
	tempID         string
	result         api.SendResult
	err            error
}

func (m *Model) loadConversationsCmd() tea.Cmd {
	client := m.client
	if client == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		convs, _, err := client.ListConversations(ctx, 1, 100)
		return conversationsMsg{conversations: convs, err: err}
	}
}

func (m *Model) createConversationCmd(title string) tea.Cmd {
	client := m.client
	if client == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		conv, err := client.CreateConversation(ctx, title)
		return conversationCreatedMsg{conversation: conv, err: err}
	}
}

func (m *Model) handleConversations(msg conversationsMsg) tea.Cmd {
	if msg.err != nil {
		m.status = fmt.Sprintf("load conversations: %v", msg.err)
		m.log.Error("load conversations", "error", msg.err)
		return nil
	}
	m.conversations = msg.conversations
	if m.store.ConversationID() != "" {
		m.convIndex = m.indexOfConversation(m.store.ConversationID())
		return nil
	}

	target := m.initialID
	if target == "" && m.db != nil {
		last, err := db.GetSetting(m.db, db.LastConversationKey)
		if err != nil {
			m.log.Warn("read last conversation", "error", err)
		}
		if m.indexOfConversation(last) >= 0 {
			target = last
		}
	}
	if target == "" && len(m.conversations) > 0 {
		target = m.conversations[0].ID
	}
	if target == "" {
		m.status = "no conversations · ctrl+n to start one"
		return nil
	}
	if idx := m.indexOfConversation(target); idx >= 0 {
		m.convIndex = idx
	}
	return m.openConversation(target)
}

func (m *Model) handleConversationCreated(msg conversationCreatedMsg) tea.Cmd {
	if msg.err != nil {
		m.status = fmt.Sprintf("create conversation: %v", msg.err)
		return nil
	}
	m.conversations = append([]types.Conversation{msg.conversation}, m.conversations...)
	m.convIndex = 0
	return m.openConversation(msg.conversation.ID)
}

func (m *Model) indexOfConversation(id string) int {
	if id == "" {
		return -1
	}
	for i, conv := range m.conversations {
		if conv.ID == id {
			return i
		}
	}
	return -1
}

// openConversation switches the store and the push connection to id and
// fetches its history.
func (m *Model) openConversation(id string) tea.Cmd {
	if id == m.store.ConversationID() {
		return nil
	}
	m.saveDraft()
	m.store.BeginLoading(id)
	m.push.SetActive(id)
	m.restoreDraft(id)
	m.rendered = make(map[string]string)
	m.pendingScrollBottom = true
	m.refreshViewport()
	if m.db != nil {
		if err := db.SetSetting(m.db, db.LastConversationKey, id); err != nil {
			m.log.Warn("save last conversation", "error", err)
		}
	}

	client := m.client
	if client == nil {
		return nil
	}
	limit := m.cfg.HistoryLimit
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		msgs, err := client.ListMessages(ctx, id, limit)
		return messagesMsg{conversationID: id, messages: msgs, err: err}
	}
}

func (m *Model) handleMessages(msg messagesMsg) {
	if msg.err != nil {
		if msg.conversationID == m.store.ConversationID() {
			m.status = fmt.Sprintf("load messages: %v", msg.err)
		}
		m.log.Error("load messages", "conversation", msg.conversationID, "error", msg.err)
		return
	}
	if !m.store.LoadInitial(msg.conversationID, msg.messages) {
		return
	}
	m.pendingScrollBottom = true
}

// send posts the input as a message. The message shows immediately and is
// replaced by the server's copy once the request returns.
func (m *Model) send() tea.Cmd {
	out := m.surface.Serialize()
	if strings.TrimSpace(out.Content) == "" {
		return nil
	}
	conversationID := m.store.ConversationID()
	tempID, err := m.store.SendOptimistic(out.Content, out.Mentions...)
	if err != nil {
		m.status = err.Error()
		return nil
	}
	m.sel = m.surface.Clear()
	m.suggest.Close()
	m.deleteDraft(conversationID)
	m.pendingScrollBottom = true

	client := m.client
	if client == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		result, err := client.SendMessage(ctx, conversationID, out.Content, out.Mentions)
		return sentMsg{conversationID: conversationID, tempID: tempID, result: result, err: err}
	}
}

func (m *Model) handleSent(msg sentMsg) {
	if msg.conversationID != m.store.ConversationID() {
		// the switch already dropped the temporary message
		m.log.Debug("send result for inactive conversation", "conversation", msg.conversationID, "error", msg.err)
		return
	}
	if msg.err == nil {
		m.store.ConfirmSent(msg.tempID, msg.result.UserMessage)
		return
	}
	m.log.Warn("send failed", "error", msg.err)
	m.status = fmt.Sprintf("send failed: %v", msg.err)
	failed, ok := m.store.FailSent(msg.tempID)
	if !ok {
		return
	}
	// Give the text back unless the user already started a new message.
	if m.surface.IsEmpty() {
		m.replaceSurface(editor.FromSerialized(failed.Content, failed.Mentions, editor.DisplayShort))
	}
}

func (m *Model) replaceSurface(surface *editor.Surface) {
	m.surface = surface
	m.sel = editor.Caret(surface.End())
	m.suggest.SetSurface(surface)
}

func (m *Model) saveDraft() {
	id := m.store.ConversationID()
	if m.db == nil || id == "" {
		return
	}
	if err := db.SaveDraft(m.db, id, m.surface.Serialize().Content, time.Now()); err != nil {
		m.log.Warn("save draft", "conversation", id, "error", err)
	}
}

func (m *Model) restoreDraft(id string) {
	draft := ""
	if m.db != nil {
		var err error
		if draft, err = db.GetDraft(m.db, id); err != nil {
			m.log.Warn("load draft", "conversation", id, "error", err)
		}
	}
	m.replaceSurface(editor.FromText(draft, editor.DisplayShort))
}

func (m *Model) deleteDraft(id string) {
	if m.db == nil || id == "" {
		return
	}
	if err := db.DeleteDraft(m.db, id); err != nil {
		m.log.Warn("delete draft", "conversation", id, "error", err)
	}
}
