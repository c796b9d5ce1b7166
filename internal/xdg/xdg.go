// Package xdg resolves XDG Base Directory paths for sqlagent: the config
// directory holding config.yaml and the state directory holding the shell history.
//
// Environment variables win; otherwise the conventional locations under the home
// directory are used. Directories are created private (0700) on first use.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "sqlagent"

// ConfigDir returns the XDG config directory for sqlagent.
// It falls back to ~/.config/sqlagent when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	return appDir("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the XDG state directory for sqlagent.
// It falls back to ~/.local/state/sqlagent when XDG_STATE_HOME is unset.
func StateDir() (string, error) {
	return appDir("XDG_STATE_HOME", ".local", "state")
}

// ConfigFile returns the default config file path. The file itself may not exist.
func ConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// HistoryFile returns the interactive shell history path.
func HistoryFile() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history"), nil
}

func appDir(env string, fallback ...string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(append([]string{home}, fallback...)...)
	}
	dir := filepath.Join(base, appName)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}
