// Package storage persists opening book entries and per-position move
// statistics in BadgerDB.
package storage

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "chesscore"

// EnvDataDir names the environment variable that overrides the data directory.
const EnvDataDir = "CHESSCORE_DATA"

// DataDir returns the data directory for the application, creating it if
// needed. CHESSCORE_DATA wins when set; otherwise:
//   - macOS: ~/Library/Application Support/chesscore/
//   - Linux: $XDG_DATA_HOME/chesscore/ or ~/.local/share/chesscore/
//   - Windows: %APPDATA%/chesscore/
func DataDir() (string, error) {
	dir, err := dataDirFor(runtime.GOOS, os.Getenv, os.UserHomeDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func dataDirFor(goos string, getenv func(string) string, home func() (string, error)) (string, error) {
	if dir := getenv(EnvDataDir); dir != "" {
		return dir, nil
	}

	var base string
	switch goos {
	case "darwin":
		h, err := home()
		if err != nil {
			return "", err
		}
		base = filepath.Join(h, "Library", "Application Support")
	case "windows":
		if base = getenv("APPDATA"); base == "" {
			h, err := home()
			if err != nil {
				return "", err
			}
			base = filepath.Join(h, "AppData", "Roaming")
		}
	default:
		if base = getenv("XDG_DATA_HOME"); base == "" {
			h, err := home()
			if err != nil {
				return "", err
			}
			base = filepath.Join(h, ".local", "share")
		}
	}
	return filepath.Join(base, appName), nil
}

// DefaultDir returns the directory for the BadgerDB database, creating it if needed.
func DefaultDir() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}

	dbDir := filepath.Join(dataDir, "db")
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return "", err
	}
	return dbDir, nil
}
