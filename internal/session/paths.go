package session

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.vedchat.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".vedchat")
}

// Dir returns the session-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "sessions", name)
}

// LockPath returns the lock file path for a session.
func LockPath(name string) string {
	return filepath.Join(Dir(name), "LOCK")
}

// DBPath returns the bounded key-value database path for a session.
func DBPath(name string) string {
	return filepath.Join(Dir(name), "vedchat.db")
}

// LocationPath returns the file holding the navigable location token.
func LocationPath(name string) string {
	return filepath.Join(Dir(name), "location")
}

// LogDir returns the log directory for a session.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the client log file path.
func LogPath(name string) string {
	return filepath.Join(LogDir(name), "vedchat.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the session directory tree with proper permissions.
func EnsureDir(name string) error {
	dirs := []string{
		Dir(name),
		LogDir(name),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
