package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// AppName names the per-user data and config directories.
const AppName = "todolist"

// HomeDir returns the current user's home directory.
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return home, nil
}

// DefaultDataDir returns the default todolist data directory.
func DefaultDataDir() (string, error) {
	home, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", AppName), nil
}

// DefaultConfigDir returns the default todolist configuration directory.
func DefaultConfigDir() (string, error) {
	home, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName), nil
}

// DefaultStoragePath returns where a backend keeps its data when no path
// is configured. The file extension follows the backend.
func DefaultStoragePath(backend string) (string, error) {
	dir, err := DefaultDataDir()
	if err != nil {
		return "", err
	}

	name := "todos.json"
	switch backend {
	case "jsonl":
		name = "todos.jsonl"
	case "sqlite":
		name = "todos.db"
	case "automerge":
		name = "todos.automerge"
	}
	return filepath.Join(dir, name), nil
}

// WorkingDir returns the current working directory.
func WorkingDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return dir, nil
}
