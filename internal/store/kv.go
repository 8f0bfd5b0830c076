package store

import (
	"database/sql"
	"time"
)

// Keys used in the kv table. Each key is owned by exactly one feature.
const (
	KeySessionToken  = "session_token"
	KeyCurrentUser   = "current_user"
	KeyAIContext     = "ai_context"
	KeyGenAIKey      = "genai_key"
	KeyAutoLoadMedia = "auto_load_media"
)

// GetKV returns the value for a key, or "" if unset.
func (db *DB) GetKV(key string) (string, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetKV inserts or replaces a key.
func (db *DB) SetKV(key, value string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now)
	return err
}

// DeleteKV removes a key. Deleting an absent key is not an error.
func (db *DB) DeleteKV(key string) error {
	_, err := db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}

// ClearSession drops the stored session token and user snapshot. Called
// on explicit logout and whenever the backend rejects our credentials.
func (db *DB) ClearSession() error {
	if err := db.DeleteKV(KeySessionToken); err != nil {
		return err
	}
	return db.DeleteKV(KeyCurrentUser)
}
