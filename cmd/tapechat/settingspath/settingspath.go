// Package settingspath resolves where tapechat keeps its files on disk.
package settingspath

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// EnvVar overrides the default settings file location.
	EnvVar = "TAPECHAT_SETTINGS"

	dirName      = ".tapechat"
	settingsFile = "settings.toml"
	logFile      = "tapechat.log"
)

// ResolveSettingsPath returns the settings file to use: the explicit flag
// value if set, then $TAPECHAT_SETTINGS, then ~/.tapechat/settings.toml.
func ResolveSettingsPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv(EnvVar); env != "" {
		return env, nil
	}

	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, settingsFile), nil
}

// ResolveLogPath returns the log file to use: the flag value if set,
// otherwise ~/.tapechat/tapechat.log.
func ResolveLogPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, logFile), nil
}

// Dir returns the tapechat home directory, ~/.tapechat.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}
