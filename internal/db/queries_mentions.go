package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/adamavenir/confab/internal/types"
)

// RecordMention bumps a mention's recency and use count.
func RecordMention(db *sql.DB, m types.Mention, now time.Time) error {
	_, err := db.Exec(`
		INSERT INTO recent_mentions (type, id, name, used_at, use_count) VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(type, id) DO UPDATE SET
		  name = excluded.name,
		  used_at = excluded.used_at,
		  use_count = recent_mentions.use_count + 1
	`, string(m.Type), m.ID, m.Name, now.UnixMilli())
	return err
}

// GetRecentMentions returns recently used mentions whose name starts with
// prefix (case-insensitive), most recent first.
func GetRecentMentions(ctx context.Context, db *sql.DB, prefix string, limit int) ([]types.Mention, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.QueryContext(ctx, `
		SELECT type, id, name FROM recent_mentions
		WHERE name LIKE ? ESCAPE '\'
		ORDER BY used_at DESC, use_count DESC
		LIMIT ?
	`, likePrefix(prefix), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mentions []types.Mention
	for rows.Next() {
		var (
			m    types.Mention
			kind string
		)
		if err := rows.Scan(&kind, &m.ID, &m.Name); err != nil {
			return nil, err
		}
		m.Type = types.MentionType(kind)
		mentions = append(mentions, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return mentions, nil
}

// PruneMentions keeps only the keep most recently used mentions.
func PruneMentions(db *sql.DB, keep int) (int64, error) {
	res, err := db.Exec(`
		DELETE FROM recent_mentions WHERE rowid NOT IN (
		  SELECT rowid FROM recent_mentions ORDER BY used_at DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MentionHistory adapts the recent_mentions table to suggest.Recents.
type MentionHistory struct {
	DB *sql.DB
}

// RecentMentions implements suggest.Recents.
func (h MentionHistory) RecentMentions(ctx context.Context, prefix string, limit int) ([]types.Mention, error) {
	return GetRecentMentions(ctx, h.DB, prefix, limit)
}

func likePrefix(prefix string) string {
	escaper := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return escaper.Replace(strings.TrimSpace(prefix)) + "%"
}
