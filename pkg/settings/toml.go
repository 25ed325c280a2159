package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
)

// TOMLStore keeps settings in a small TOML file, e.g.:
//
//	chat_token = "abc"
//	chat_user = "alice"
type TOMLStore struct {
	path   string
	logger *zap.Logger
}

// tomlFile mirrors the on-disk layout. Pointers distinguish a missing key
// from an empty one.
type tomlFile struct {
	Token *string `toml:"chat_token"`
	User  *string `toml:"chat_user"`
}

// NewTOMLStore returns a store backed by the file at path. The file is
// created on first Save.
func NewTOMLStore(path string, logger *zap.Logger) *TOMLStore {
	return &TOMLStore{path: path, logger: logger}
}

// Path returns the backing file location.
func (t *TOMLStore) Path() string {
	return t.path
}

func (t *TOMLStore) Load() Settings {
	s := Defaults()

	var f tomlFile
	if _, err := toml.DecodeFile(t.path, &f); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			t.logger.Warn("could not read settings file, using defaults",
				zap.String("path", t.path),
				zap.Error(err),
			)
		}
		return s
	}

	if f.Token != nil {
		s.Token = *f.Token
	}
	if f.User != nil && *f.User != "" {
		s.UserID = *f.User
	}
	return s
}

func (t *TOMLStore) Save(s Settings) error {
	s = s.normalize()

	if err := os.MkdirAll(filepath.Dir(t.path), 0o700); err != nil {
		return fmt.Errorf("could not create settings directory: %w", err)
	}

	// Write to a sibling temp file and rename so a crash never leaves a
	// half-written settings file behind.
	tmp, err := os.CreateTemp(filepath.Dir(t.path), ".settings-*.toml")
	if err != nil {
		return fmt.Errorf("could not create temp settings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("could not restrict settings file: %w", err)
	}

	f := tomlFile{Token: &s.Token, User: &s.UserID}
	if err := toml.NewEncoder(tmp).Encode(f); err != nil {
		tmp.Close()
		return fmt.Errorf("could not encode settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not write settings: %w", err)
	}

	if err := os.Rename(tmp.Name(), t.path); err != nil {
		return fmt.Errorf("could not replace settings file: %w", err)
	}

	t.logger.Debug("settings saved", zap.String("path", t.path), zap.String("user_id", s.UserID))
	return nil
}

func (t *TOMLStore) Close() error {
	return nil
}
