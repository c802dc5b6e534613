package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/adamavenir/confab/internal/types"
)

// ListConversations returns one page of the user's conversations. Zero page or
// limit uses the server defaults.
func (c *Client) ListConversations(ctx context.Context, page, limit int) ([]types.Conversation, *Pagination, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var convs []types.Conversation
	pagination, err := c.doJSON(ctx, http.MethodGet, "/conversations", query, nil, &convs)
	if err != nil {
		return nil, nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, pagination, nil
}

// CreateConversation creates a conversation. An empty title lets the server
// pick one.
func (c *Client) CreateConversation(ctx context.Context, title string) (types.Conversation, error) {
	body := map[string]any{}
	if title != "" {
		body["title"] = title
	}
	var conv types.Conversation
	if _, err := c.doJSON(ctx, http.MethodPost, "/conversations", nil, body, &conv); err != nil {
		return types.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

// GetConversation fetches one conversation.
func (c *Client) GetConversation(ctx context.Context, id string) (types.Conversation, error) {
	var conv types.Conversation
	if _, err := c.doJSON(ctx, http.MethodGet, conversationPath(id), nil, nil, &conv); err != nil {
		return types.Conversation{}, fmt.Errorf("get conversation %s: %w", id, err)
	}
	return conv, nil
}

// RenameConversation sets a conversation's title.
func (c *Client) RenameConversation(ctx context.Context, id, title string) (types.Conversation, error) {
	var conv types.Conversation
	body := map[string]any{"title": title}
	if _, err := c.doJSON(ctx, http.MethodPut, conversationPath(id), nil, body, &conv); err != nil {
		return types.Conversation{}, fmt.Errorf("rename conversation %s: %w", id, err)
	}
	return conv, nil
}

// DeleteConversation deletes a conversation.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	if _, err := c.doJSON(ctx, http.MethodDelete, conversationPath(id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete conversation %s: %w", id, err)
	}
	return nil
}

func conversationPath(id string) string {
	return "/conversations/" + url.PathEscape(id)
}
