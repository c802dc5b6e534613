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

type searchResults []types.SearchItem

func (r *searchResults) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []types.SearchItem
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*r = items
		return nil
	}
	var wrapped struct {
		Items   []types.SearchItem `json:"items"`
		Results []types.SearchItem `json:"results"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*r = append(wrapped.Items, wrapped.Results...)
	return nil
}

// SearchEntities queries the entity search endpoint. Its signature matches
// suggest.Searcher.
func (c *Client) SearchEntities(ctx context.Context, query string, limit int) ([]types.SearchItem, error) {
	params := url.Values{}
	params.Set("q", query)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var items searchResults
	if _, err := c.doJSON(ctx, http.MethodGet, c.searchPath, params, nil, &items); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
