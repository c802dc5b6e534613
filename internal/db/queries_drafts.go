package db

import (
	"database/sql"
	"strings"
	"time"
)

// SaveDraft stores the unsent input of a conversation. Blank content clears
// the draft.
func SaveDraft(db *sql.DB, conversationID, content string, now time.Time) error {
	if strings.TrimSpace(content) == "" {
		return DeleteDraft(db, conversationID)
	}
	_, err := db.Exec(`
		INSERT INTO drafts (conversation_id, content, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at
	`, conversationID, content, now.UnixMilli())
	return err
}

// GetDraft returns a conversation's draft, or "" when there is none.
func GetDraft(db *sql.DB, conversationID string) (string, error) {
	row := db.QueryRow("SELECT content FROM drafts WHERE conversation_id = ?", conversationID)
	var content string
	if err := row.Scan(&content); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return content, nil
}

// DeleteDraft removes a conversation's draft.
func DeleteDraft(db *sql.DB, conversationID string) error {
	_, err := db.Exec("DELETE FROM drafts WHERE conversation_id = ?", conversationID)
	return err
}
