package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/adamavenir/confab/internal/types"
)

// MaxMessageLimit is the largest page the messages endpoint serves.
const MaxMessageLimit = 200

// SendResult is the backend's reply to a send. The assistant's answer arrives
// later on the event stream.
type SendResult struct {
	UserMessage types.Message `json:"user_message"`
	TaskID      string        `json:"task_id"`
}

type sendRequest struct {
	Content  string                    `json:"content"`
	Mentions []types.MentionOccurrence `json:"mentions"`
}

// messageList accepts {messages: [...]} (optionally wrapped in the
// conversation object) or a bare list.
type messageList []types.Message

func (l *messageList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var msgs []types.Message
		if err := json.Unmarshal(data, &msgs); err != nil {
			return err
		}
		*l = msgs
		return nil
	}
	var wrapped struct {
		ID       string          `json:"id"`
		Messages []types.Message `json:"messages"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	for i := range wrapped.Messages {
		if wrapped.Messages[i].ConversationID == "" {
			wrapped.Messages[i].ConversationID = wrapped.ID
		}
	}
	*l = wrapped.Messages
	return nil
}

// ListMessages returns up to limit recent messages of a conversation.
func (c *Client) ListMessages(ctx context.Context, conversationID string, limit int) ([]types.Message, error) {
	query := url.Values{}
	if limit > MaxMessageLimit {
		limit = MaxMessageLimit
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var msgs messageList
	if _, err := c.doJSON(ctx, http.MethodGet, conversationPath(conversationID)+"/messages", query, nil, &msgs); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	for i := range msgs {
		if msgs[i].ConversationID == "" {
			msgs[i].ConversationID = conversationID
		}
	}
	return msgs, nil
}

// SendMessage posts a user message with its mention occurrences.
func (c *Client) SendMessage(ctx context.Context, conversationID, content string, mentions []types.MentionOccurrence) (SendResult, error) {
	if mentions == nil {
		mentions = []types.MentionOccurrence{}
	}
	var result SendResult
	body := sendRequest{Content: content, Mentions: mentions}
	if _, err := c.doJSON(ctx, http.MethodPost, conversationPath(conversationID)+"/messages", nil, body, &result); err != nil {
		return SendResult{}, fmt.Errorf("send message: %w", err)
	}
	if result.UserMessage.ConversationID == "" {
		result.UserMessage.ConversationID = conversationID
	}
	return result, nil
}
