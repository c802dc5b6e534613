package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/adamavenir/confab/internal/push"
	"github.com/adamavenir/confab/internal/types"
)

var errEventTooLarge = errors.New("event exceeds size limit")

// EventStream reads push events for one conversation. It implements
// push.Stream.
type EventStream struct {
	conversationID string
	body           io.ReadCloser
	reader         *sseReader
	log            *slog.Logger
}

var _ push.Stream = (*EventStream)(nil)

// OpenEvents opens the conversation's server-sent event stream. The stream
// lives until ctx is cancelled, the server ends it, or Close is called.
func (c *Client) OpenEvents(ctx context.Context, conversationID string) (*EventStream, error) {
	req, err := c.newRequest(ctx, http.MethodGet, conversationPath(conversationID)+"/events", nil, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open events: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		resp.Body.Close()
		return nil, fmt.Errorf("open events: %w", parseError(resp.StatusCode, data))
	}
	return &EventStream{
		conversationID: conversationID,
		body:           resp.Body,
		reader:         newSSEReader(resp.Body),
		log:            c.log,
	}, nil
}

// Dial opens an event stream as a push.Stream.
func (c *Client) Dial(ctx context.Context, conversationID string) (push.Stream, error) {
	stream, err := c.OpenEvents(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// Next returns the next well-formed event. Events that fail to decode, carry
// an error payload, or have no type are logged and skipped.
func (s *EventStream) Next(ctx context.Context) (types.PushEvent, error) {
	for {
		if err := ctx.Err(); err != nil {
			return types.PushEvent{}, err
		}
		name, data, err := s.reader.ReadEvent()
		if err != nil {
			if errors.Is(err, errEventTooLarge) {
				s.log.Warn("skipping oversized push event", "conversation", s.conversationID)
			}
			return types.PushEvent{}, err
		}
		ev, ok := s.decode(name, data)
		if ok {
			return ev, nil
		}
	}
}

func (s *EventStream) decode(name string, data []byte) (types.PushEvent, bool) {
	var errPayload struct {
		Type  string          `json:"type"`
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &errPayload); err != nil {
		s.log.Warn("skipping malformed push event", "conversation", s.conversationID, "error", err)
		return types.PushEvent{}, false
	}
	if len(errPayload.Error) > 0 && string(errPayload.Error) != "null" {
		s.log.Warn("push stream reported error", "conversation", s.conversationID, "error", compactJSON(errPayload.Error))
		return types.PushEvent{}, false
	}
	var ev types.PushEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		s.log.Warn("skipping malformed push event", "conversation", s.conversationID, "error", err)
		return types.PushEvent{}, false
	}
	if ev.Type == "" {
		ev.Type = types.PushEventType(name)
	}
	if ev.Type == "" {
		s.log.Debug("skipping untyped push event", "conversation", s.conversationID)
		return types.PushEvent{}, false
	}
	if ev.ConversationID == "" {
		ev.ConversationID = s.conversationID
	}
	return ev, true
}

// Close ends the stream and unblocks a pending Next.
func (s *EventStream) Close() error {
	return s.body.Close()
}
