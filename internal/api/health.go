package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
)

// HealthPath is served at the server root, outside the API prefix.
const HealthPath = "/health"

// ServiceHealth is one backend dependency as reported by the health check.
type ServiceHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Health is the backend's health report. Status is "healthy" or "degraded".
type Health struct {
	Status    string                   `json:"status"`
	Timestamp string                   `json:"timestamp,omitempty"`
	Services  map[string]ServiceHealth `json:"services"`
}

// ServiceNames returns the reported services in name order.
func (h Health) ServiceNames() []string {
	names := make([]string, 0, len(h.Services))
	for name := range h.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Health fetches the backend health report. When a critical service is down
// the backend answers 503 with the report under "detail"; the decoded report
// is returned together with an *APIError.
func (c *Client) Health(ctx context.Context) (Health, error) {
	endpoint, err := c.rootURL(HealthPath)
	if err != nil {
		return Health{}, err
	}
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return Health{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Health{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Health{}, err
	}

	var health Health
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.Unmarshal(data, &health); err != nil {
			return Health{}, fmt.Errorf("decode health: %w", err)
		}
		return health, nil
	}

	var wrapped struct {
		Detail Health `json:"detail"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Detail.Status != "" {
		health = wrapped.Detail
		return health, &APIError{Status: resp.StatusCode, Message: "backend " + health.Status}
	}
	return Health{}, parseError(resp.StatusCode, data)
}

// rootURL resolves path against the server origin, dropping the API prefix.
func (c *Client) rootURL(path string) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	origin := url.URL{Scheme: base.Scheme, Host: base.Host, User: base.User, Path: path}
	return origin.String(), nil
}
