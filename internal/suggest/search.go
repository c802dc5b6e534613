package suggest

import (
	"context"
	"strings"

	"golang.org/x/time/rate"

	"github.com/adamavenir/confab/internal/types"
)

// Throttled shapes upstream request volume with a token bucket. A caller that
// gives up while waiting for a token gets ctx's error and no request is made.
func Throttled(search Searcher, limiter *rate.Limiter) Searcher {
	if limiter == nil {
		return search
	}
	return func(ctx context.Context, query string, limit int) ([]types.SearchItem, error) {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return search(ctx, query, limit)
	}
}

// Recents returns recently used mentions, most recent first.
type Recents interface {
	RecentMentions(ctx context.Context, prefix string, limit int) ([]types.Mention, error)
}

// WithRecents puts recently used mentions ahead of remote results for an empty
// query, and falls back to them when the remote search fails.
func WithRecents(search Searcher, recents Recents) Searcher {
	if recents == nil {
		return search
	}
	return func(ctx context.Context, query string, limit int) ([]types.SearchItem, error) {
		query = strings.TrimSpace(query)
		remote, err := search(ctx, query, limit)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			local, lerr := recents.RecentMentions(ctx, query, limit)
			if lerr != nil || len(local) == 0 {
				return nil, err
			}
			return mentionItems(local), nil
		}
		if query != "" {
			return remote, nil
		}
		local, lerr := recents.RecentMentions(ctx, "", limit)
		if lerr != nil {
			return remote, nil
		}
		return mergeItems(mentionItems(local), remote, limit), nil
	}
}

func mentionItems(mentions []types.Mention) []types.SearchItem {
	items := make([]types.SearchItem, 0, len(mentions))
	for _, m := range mentions {
		items = append(items, types.SearchItem{ID: m.ID, Title: m.Name, Type: m.Type, Subtitle: "recent"})
	}
	return items
}

func mergeItems(first, second []types.SearchItem, limit int) []types.SearchItem {
	seen := make(map[string]bool, len(first)+len(second))
	out := make([]types.SearchItem, 0, len(first)+len(second))
	for _, group := range [][]types.SearchItem{first, second} {
		for _, item := range group {
			m := item.Mention()
			key := string(m.Type) + "\x00" + m.ID
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, item)
			if limit > 0 && len(out) >= limit {
				return out
			}
		}
	}
	return out
}
