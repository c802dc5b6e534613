// Package store keeps the ordered messages of the active conversation and
// reconciles optimistic sends with what the server reports.
package store

import (
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/adamavenir/confab/internal/core"
	"github.com/adamavenir/confab/internal/types"
)

// ErrNoConversation is returned when sending before a conversation is loaded.
var ErrNoConversation = errors.New("no active conversation")

// State is the load state of the store.
type State int

const (
	Idle State = iota
	Loading
	Loaded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	}
	return "unknown"
}

// Store holds the messages of one conversation. It is not safe for concurrent
// use; callers drive it from the event loop.
type Store struct {
	conversationID string
	state          State
	messages       []types.Message
	now            func() time.Time
	log            *slog.Logger
}

// New returns an idle store. A nil logger uses slog.Default.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{now: time.Now, log: logger}
}

// SetClock replaces the clock used to stamp optimistic messages.
func (s *Store) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
}

// ConversationID returns the conversation the store belongs to.
func (s *Store) ConversationID() string { return s.conversationID }

// State returns the load state.
func (s *Store) State() State { return s.state }

// Len returns the number of messages.
func (s *Store) Len() int { return len(s.messages) }

// Messages returns a copy of the messages in display order.
func (s *Store) Messages() []types.Message {
	return append([]types.Message(nil), s.messages...)
}

// Get returns the message with id.
func (s *Store) Get(id string) (types.Message, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.messages[i], true
	}
	return types.Message{}, false
}

// Temporary returns the ids of messages still awaiting server confirmation.
func (s *Store) Temporary() []string {
	var ids []string
	for _, msg := range s.messages {
		if msg.Temporary {
			ids = append(ids, msg.ID)
		}
	}
	return ids
}

// BeginLoading enters Loading for conversationID. Switching to a different
// conversation drops everything, pending sends included; reloading the same
// conversation keeps its pending sends.
func (s *Store) BeginLoading(conversationID string) {
	if conversationID != s.conversationID {
		if pending := len(s.Temporary()); pending > 0 {
			s.log.Debug("dropping pending sends on switch", "from", s.conversationID, "to", conversationID, "pending", pending)
		}
		s.messages = nil
		s.conversationID = conversationID
	} else {
		s.messages = s.pending()
	}
	s.state = Loading
}

// LoadInitial replaces the contents with the server's list for
// conversationID, sorted by creation time. Pending sends survive unless the
// list already holds a message with the same content and type. It reports
// false when conversationID is no longer current.
func (s *Store) LoadInitial(conversationID string, messages []types.Message) bool {
	if conversationID != s.conversationID {
		s.log.Debug("ignoring stale message list", "conversation", conversationID, "current", s.conversationID)
		return false
	}

	loaded := make([]types.Message, 0, len(messages))
	seen := make(map[string]bool, len(messages))
	for _, msg := range messages {
		if msg.ID == "" || seen[msg.ID] {
			continue
		}
		seen[msg.ID] = true
		msg.Temporary = false
		loaded = append(loaded, msg)
	}
	sort.SliceStable(loaded, func(i, j int) bool {
		return loaded[i].CreatedAt.Before(loaded[j].CreatedAt)
	})

	for _, tmp := range s.pending() {
		if hasContent(loaded, tmp) {
			continue
		}
		loaded = append(loaded, tmp)
	}
	s.messages = loaded
	s.state = Loaded
	return true
}

// SendOptimistic appends a temporary user message and returns its id.
func (s *Store) SendOptimistic(content string, mentions ...types.MentionOccurrence) (string, error) {
	if s.conversationID == "" {
		return "", ErrNoConversation
	}
	msg := types.Message{
		ID:             core.GenerateTempID(),
		ConversationID: s.conversationID,
		Type:           types.MessageTypeUser,
		Content:        content,
		CreatedAt:      s.now(),
		Mentions:       mentions,
		Temporary:      true,
	}
	s.messages = append(s.messages, msg)
	return msg.ID, nil
}

// ConfirmSent replaces the temporary message in place with the server's copy.
// If the server copy is already present the temporary message is removed. A
// confirmation for another conversation is ignored: switching conversations
// already dropped its temporary message.
func (s *Store) ConfirmSent(tempID string, msg types.Message) {
	if msg.ConversationID != "" && msg.ConversationID != s.conversationID {
		return
	}
	msg.Temporary = false
	idx := s.indexOf(tempID)
	existing := s.indexOf(msg.ID)
	switch {
	case existing >= 0 && idx >= 0:
		s.removeAt(idx)
	case existing >= 0:
	case idx >= 0:
		s.messages[idx] = msg
	default:
		s.messages = append(s.messages, msg)
	}
}

// FailSent removes a temporary message and returns it so the caller can
// restore the input.
func (s *Store) FailSent(tempID string) (types.Message, bool) {
	idx := s.indexOf(tempID)
	if idx < 0 {
		return types.Message{}, false
	}
	msg := s.messages[idx]
	s.removeAt(idx)
	return msg, true
}

// ReceivePush applies a pushed message. Known ids are ignored, as is a copy of
// a send that is still pending. The content and type match only runs against
// pending sends, so a server reply that repeats an earlier reply's text is
// kept. It reports whether the message was appended.
func (s *Store) ReceivePush(msg types.Message) bool {
	if msg.ID == "" {
		return false
	}
	if msg.ConversationID != "" && msg.ConversationID != s.conversationID {
		return false
	}
	if s.indexOf(msg.ID) >= 0 {
		return false
	}
	if hasContent(s.pending(), msg) {
		return false
	}
	msg.Temporary = false
	if msg.ConversationID == "" {
		msg.ConversationID = s.conversationID
	}
	s.messages = append(s.messages, msg)
	return true
}

func (s *Store) pending() []types.Message {
	var out []types.Message
	for _, msg := range s.messages {
		if msg.Temporary {
			out = append(out, msg)
		}
	}
	return out
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, msg := range s.messages {
		if msg.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) removeAt(i int) {
	s.messages = append(s.messages[:i], s.messages[i+1:]...)
}

func hasContent(messages []types.Message, msg types.Message) bool {
	for _, other := range messages {
		if other.Content == msg.Content && other.Type == msg.Type {
			return true
		}
	}
	return false
}
