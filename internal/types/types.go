package types

import (
	"encoding/json"
	"time"
)

// MentionType identifies the kind of entity a mention references.
type MentionType string

const (
	MentionMeeting MentionType = "meeting"
	MentionFile    MentionType = "file"
	MentionProject MentionType = "project"
)

// Valid reports whether the mention type is one the wire format accepts.
func (t MentionType) Valid() bool {
	switch t {
	case MentionMeeting, MentionFile, MentionProject:
		return true
	}
	return false
}

// Mention is a reference to an external entity.
// ID and Name may coincide when the wire format carries no separate identifier.
type Mention struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Type MentionType `json:"type"`
}

// MentionOccurrence locates a mention token inside serialized message content.
// Offsets are rune offsets into the serialized text.
type MentionOccurrence struct {
	EntityType  MentionType `json:"entity_type"`
	EntityID    string      `json:"entity_id"`
	OffsetStart int         `json:"offset_start"`
	OffsetEnd   int         `json:"offset_end"`
	Length      int         `json:"length,omitempty"`
}

// MessageType represents the author side of a message.
type MessageType string

const (
	MessageTypeUser      MessageType = "user"
	MessageTypeAssistant MessageType = "assistant"
	MessageTypeSystem    MessageType = "system"
)

// NormalizeMessageType maps server spellings onto the client's message types.
// The backend labels model replies "agent".
func NormalizeMessageType(raw string) MessageType {
	switch raw {
	case "agent", "assistant", "ai":
		return MessageTypeAssistant
	case "", "user", "human":
		return MessageTypeUser
	default:
		return MessageType(raw)
	}
}

// Message represents one chat message in a conversation.
type Message struct {
	ID             string              `json:"id"`
	ConversationID string              `json:"conversation_id,omitempty"`
	Type           MessageType         `json:"message_type"`
	Content        string              `json:"content"`
	CreatedAt      time.Time           `json:"created_at"`
	Mentions       []MentionOccurrence `json:"mentions,omitempty"`
	Error          bool                `json:"error,omitempty"`
	Temporary      bool                `json:"-"`
}

// UnmarshalJSON accepts the backend's role/timestamp aliases.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID             string              `json:"id"`
		ConversationID string              `json:"conversation_id"`
		MessageType    string              `json:"message_type"`
		Role           string              `json:"role"`
		Content        string              `json:"content"`
		CreatedAt      string              `json:"created_at"`
		Timestamp      string              `json:"timestamp"`
		Mentions       []MentionOccurrence `json:"mentions"`
		Error          bool                `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kind := raw.MessageType
	if kind == "" {
		kind = raw.Role
	}
	stamp := raw.CreatedAt
	if stamp == "" {
		stamp = raw.Timestamp
	}
	created, err := ParseTimestamp(stamp)
	if err != nil {
		return err
	}
	*m = Message{
		ID:             raw.ID,
		ConversationID: raw.ConversationID,
		Type:           NormalizeMessageType(kind),
		Content:        raw.Content,
		CreatedAt:      created,
		Mentions:       raw.Mentions,
		Error:          raw.Error,
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses the backend's ISO-8601 timestamps, which may omit the
// zone (naive UTC). An empty string yields the zero time.
func ParseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// Conversation is a conversation summary as listed by the backend.
type Conversation struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	IsActive     bool      `json:"is_active"`
}

// UnmarshalJSON tolerates null titles and naive timestamps.
func (c *Conversation) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID           string  `json:"id"`
		Title        *string `json:"title"`
		MessageCount int     `json:"message_count"`
		CreatedAt    string  `json:"created_at"`
		UpdatedAt    *string `json:"updated_at"`
		IsActive     *bool   `json:"is_active"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	created, err := ParseTimestamp(raw.CreatedAt)
	if err != nil {
		return err
	}
	updated := created
	if raw.UpdatedAt != nil {
		if updated, err = ParseTimestamp(*raw.UpdatedAt); err != nil {
			return err
		}
	}
	*c = Conversation{
		ID:           raw.ID,
		MessageCount: raw.MessageCount,
		CreatedAt:    created,
		UpdatedAt:    updated,
		IsActive:     raw.IsActive == nil || *raw.IsActive,
	}
	if raw.Title != nil {
		c.Title = *raw.Title
	}
	return nil
}

// ConnectionState is the push connection lifecycle state.
type ConnectionState string

const (
	ConnectionDisconnected ConnectionState = "disconnected"
	ConnectionConnecting   ConnectionState = "connecting"
	ConnectionConnected    ConnectionState = "connected"
	ConnectionError        ConnectionState = "error"
)

// SearchItem is one entity returned by the suggestion search.
type SearchItem struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Type     MentionType `json:"type,omitempty"`
	Subtitle string      `json:"subtitle,omitempty"`
}

// Mention converts a search result into a mention. Items without a type are
// meetings, which is what the entity search returns by default.
func (s SearchItem) Mention() Mention {
	kind := s.Type
	if kind == "" {
		kind = MentionMeeting
	}
	id := s.ID
	if id == "" {
		id = s.Title
	}
	return Mention{ID: id, Name: s.Title, Type: kind}
}

// PushEventType discriminates server-push events.
type PushEventType string

const (
	PushConnected         PushEventType = "connected"
	PushChatMessage       PushEventType = "chat_message"
	PushHeartbeat         PushEventType = "heartbeat"
	PushConnectionTimeout PushEventType = "connection_timeout"
)

// PushEvent is one decoded event from the conversation event stream.
type PushEvent struct {
	Type           PushEventType `json:"type"`
	ConversationID string        `json:"conversation_id,omitempty"`
	Message        *Message      `json:"message,omitempty"`
}
