// Package settings persists the chat client's connection settings
// (bearer token and user id) across sessions.
package settings

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	// TokenKey is the storage key holding the bearer token.
	TokenKey = "chat_token"

	// UserKey is the storage key holding the user id.
	UserKey = "chat_user"

	// DefaultUserID is used whenever no user id has been saved.
	DefaultUserID = "demo"
)

// Settings are the values a user saves between sessions.
type Settings struct {
	Token  string
	UserID string
}

// Defaults returns the settings used when nothing has been persisted.
func Defaults() Settings {
	return Settings{Token: "", UserID: DefaultUserID}
}

// normalize applies the same fallback on save that Load applies on read,
// so a blank user id is never persisted.
func (s Settings) normalize() Settings {
	if s.UserID == "" {
		s.UserID = DefaultUserID
	}
	return s
}

// Store persists Settings in a durable key-value backend.
type Store interface {
	// Load reads persisted values, substituting defaults for any missing key.
	// It never fails: an unreadable backend yields Defaults().
	Load() Settings

	// Save writes both values, overwriting whatever was stored before.
	Save(s Settings) error

	// Close releases any resources held by the store.
	Close() error
}

// Open returns the Store backend appropriate for path. SQLite files
// (.db, .sqlite, .sqlite3) get a SQLiteStore, anything else a TOMLStore.
func Open(path string, logger *zap.Logger) (Store, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteStore(path, logger)
	default:
		return NewTOMLStore(path, logger), nil
	}
}
