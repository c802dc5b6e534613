package db

import "database/sql"

// LastConversationKey holds the conversation the chat reopens by default.
const LastConversationKey = "last_conversation"

// GetSetting returns a setting value, or "" when unset.
func GetSetting(db *sql.DB, key string) (string, error) {
	row := db.QueryRow("SELECT value FROM settings WHERE key = ?", key)
	var value string
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// SetSetting sets a setting value.
func SetSetting(db *sql.DB, key, value string) error {
	_, err := db.Exec("INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value)
	return err
}
