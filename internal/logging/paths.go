package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.quill/logs/). Falls
// back to the temp directory if the home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".quill", "logs")
	}
	return filepath.Join(home, ".quill", "logs")
}

// DefaultLogPath returns the default log file path for a given component
// name (e.g. "crawl" or "serve").
func DefaultLogPath(component string) string {
	return filepath.Join(DefaultLogDir(), component+".log")
}

// EnsureLogDir creates the log directory if it doesn't exist.
func EnsureLogDir() error {
	return os.MkdirAll(DefaultLogDir(), 0o755)
}
