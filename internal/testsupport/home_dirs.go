package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ImL1s/TodoListDemo-sub002/internal/config"
	"github.com/ImL1s/TodoListDemo-sub002/internal/paths"
)

// EnsureHomeDirs creates the default data and config directories under
// homeDir.
func EnsureHomeDirs(homeDir string) error {
	if err := os.MkdirAll(filepath.Join(homeDir, ".local", "share", paths.AppName), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(homeDir, ".config", paths.AppName), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return nil
}

// SetupTestHome creates a temp home directory with the default
// directories, points HOME at it and clears config overrides.
func SetupTestHome(t testing.TB) string {
	t.Helper()

	homeDir := t.TempDir()
	if err := EnsureHomeDirs(homeDir); err != nil {
		t.Fatalf("setup home dir: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv(config.EnvConfig, "")
	return homeDir
}
