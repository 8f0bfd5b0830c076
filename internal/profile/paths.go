package profile

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.opchat.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".opchat")
}

// Dir returns the profile-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "profiles", name)
}

// DBPath returns the local state database path for a profile.
func DBPath(name string) string {
	return filepath.Join(Dir(name), "opchat.db")
}

// LogPath returns the console log file path for a profile.
func LogPath(name string) string {
	return filepath.Join(Dir(name), "logs", "opchat.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the profile directory tree with 0700 permissions.
func EnsureDir(name string) error {
	dirs := []string{
		Dir(name),
		filepath.Join(Dir(name), "logs"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
