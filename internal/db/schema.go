package db

import (
	"database/sql"
	"fmt"
)

const schemaSQL = `
-- Unsent input per conversation
CREATE TABLE IF NOT EXISTS drafts (
  conversation_id TEXT PRIMARY KEY,
  content TEXT NOT NULL,               -- wire-token serialized text
  updated_at INTEGER NOT NULL          -- unix ms
);

-- Mentions the user has committed, for suggestion fallback
CREATE TABLE IF NOT EXISTS recent_mentions (
  type TEXT NOT NULL,                  -- meeting, file, project
  id TEXT NOT NULL,
  name TEXT NOT NULL,
  used_at INTEGER NOT NULL,            -- unix ms
  use_count INTEGER NOT NULL DEFAULT 1,
  PRIMARY KEY (type, id)
);

CREATE INDEX IF NOT EXISTS idx_recent_mentions_used ON recent_mentions(used_at);

CREATE TABLE IF NOT EXISTS settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`

// InitSchema creates the state tables if they do not exist.
func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}
