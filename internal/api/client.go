// Package api is the HTTP client for the chat backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultSearchPath is the entity search endpoint used for mention
// suggestions.
const DefaultSearchPath = "/meetings/search"

// ErrNotFound is matched by errors.Is for 404 responses.
var ErrNotFound = errors.New("not found")

// APIError represents a non-2xx or unsuccessful response from the backend.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" && e.Message != "" {
		return fmt.Sprintf("backend error: %s (%d): %s", e.Code, e.Status, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("backend error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (%d)", e.Status)
}

// Is lets errors.Is(err, ErrNotFound) match 404s.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Pagination is the backend's page metadata.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

type envelope struct {
	Success    *bool           `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Errors     json.RawMessage `json:"errors"`
	Pagination *Pagination     `json:"pagination"`
}

type errorPayload struct {
	Detail  json.RawMessage `json:"detail"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// Client talks to the chat backend. The base URL includes the API prefix.
type Client struct {
	baseURL      string
	userID       string
	token        string
	searchPath   string
	httpClient   *http.Client
	streamClient *http.Client
	log          *slog.Logger
}

// NewClient constructs a backend client acting as userID.
func NewClient(baseURL, userID, token string) (*Client, error) {
	normalized, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:    normalized,
		userID:     strings.TrimSpace(userID),
		token:      strings.TrimSpace(token),
		searchPath: DefaultSearchPath,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		// event streams stay open; cancellation comes from the request context
		streamClient: &http.Client{},
		log:          slog.Default(),
	}, nil
}

// SetSearchPath overrides the entity search endpoint.
func (c *Client) SetSearchPath(path string) {
	if strings.TrimSpace(path) != "" {
		c.searchPath = path
	}
}

// SetLogger sets the logger used for skipped stream events.
func (c *Client) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.log = logger
	}
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// NormalizeBaseURL normalizes a backend base URL and ensures it has a scheme.
func NormalizeBaseURL(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("server url cannot be empty")
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("server url must include scheme and host (http://host:port/api/v1)")
	}
	return strings.TrimRight(value, "/"), nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, reqBody any) (*http.Request, error) {
	endpoint, err := c.buildURL(path, query)
	if err != nil {
		return nil, err
	}
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.userID != "" {
		req.Header.Set("current-user-id", c.userID)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// doJSON performs a request and decodes the envelope's data into respBody.
// Responses without an envelope are decoded as-is.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, reqBody any, respBody any) (*Pagination, error) {
	req, err := c.newRequest(ctx, method, path, query, reqBody)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseError(resp.StatusCode, respData)
	}
	if len(bytes.TrimSpace(respData)) == 0 {
		return nil, nil
	}

	var env envelope
	if err := json.Unmarshal(respData, &env); err != nil || env.Success == nil {
		// bare payload
		if respBody == nil {
			return nil, nil
		}
		return nil, json.Unmarshal(respData, respBody)
	}
	if !*env.Success {
		apiErr := &APIError{Status: resp.StatusCode, Message: env.Message}
		if len(env.Errors) > 0 && string(env.Errors) != "null" {
			apiErr.Code = compactJSON(env.Errors)
		}
		return nil, apiErr
	}
	if respBody == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return env.Pagination, nil
	}
	if err := json.Unmarshal(env.Data, respBody); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return env.Pagination, nil
}

func parseError(status int, body []byte) error {
	apiErr := &APIError{Status: status}
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}
	apiErr.Code = payload.Error
	apiErr.Message = payload.Message
	if len(payload.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(payload.Detail, &detail); err == nil {
			apiErr.Message = detail
		} else {
			apiErr.Message = compactJSON(payload.Detail)
		}
	}
	return apiErr
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return buf.String()
}

func (c *Client) buildURL(path string, query url.Values) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	if ref.IsAbs() {
		base = ref
	} else {
		base.Path = strings.TrimRight(base.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
		base.RawPath = ""
	}
	if len(query) > 0 {
		base.RawQuery = query.Encode()
	}
	return base.String(), nil
}
