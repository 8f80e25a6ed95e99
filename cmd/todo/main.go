// Package main implements the todo CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ImL1s/TodoListDemo-sub002/internal/config"
	"github.com/ImL1s/TodoListDemo-sub002/internal/logging"
	"github.com/ImL1s/TodoListDemo-sub002/internal/paths"
	"github.com/ImL1s/TodoListDemo-sub002/internal/service"
	"github.com/ImL1s/TodoListDemo-sub002/todo"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "todo",
	Short: "Keep a todo list",
	Long: `Keep a todo list.

Todos are stored locally (see --backend and --storage) or, with --server,
on a running "todo serve". IDs may be abbreviated to any unique prefix.`,
	SilenceUsage: true,
}

var (
	rootConfigPath  string
	rootStoragePath string
	rootBackend     string
	rootServerURL   string
	rootLogLevel    string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootConfigPath, "config", "", "Configuration file (default ./"+config.ProjectFileName+")")
	flags.StringVar(&rootStoragePath, "storage", "", "Data file for the storage backend")
	flags.StringVar(&rootBackend, "backend", "", "Storage backend (file, jsonl, sqlite, automerge, memory)")
	flags.StringVar(&rootServerURL, "server", "", "Use the todo server at this address instead of local storage")
	flags.StringVar(&rootLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// loadConfig reads the configuration files and applies global flags.
func loadConfig() (*config.Config, error) {
	cwd, err := paths.WorkingDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cwd, rootConfigPath)
	if err != nil {
		return nil, err
	}
	if rootBackend != "" {
		cfg.Storage.Backend = rootBackend
	}
	if rootStoragePath != "" {
		cfg.Storage.Path = rootStoragePath
	}
	if rootServerURL != "" {
		cfg.Server.URL = rootServerURL
	}
	if rootLogLevel != "" {
		cfg.Log.Level = rootLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*log.Logger, error) {
	return logging.New(os.Stderr, logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Prefix: "todo",
	})
}

// openService opens the todo list selected by configuration and flags.
func openService(ctx context.Context) (service.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	return service.Open(ctx, cfg, logger)
}

// withService opens the todo list, runs fn and closes the list again.
// Persistence failures are reported as warnings and never fail the
// command.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc service.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, err := openService(ctx)
	if err != nil {
		return err
	}

	runErr := fn(ctx, svc)
	warnIfUnsaved(cmd, svc.Flush(ctx))

	closeErr := svc.Close(ctx)
	var persistErr *todo.PersistenceError
	if errors.As(closeErr, &persistErr) {
		closeErr = nil
	}
	return errors.Join(runErr, closeErr)
}

func warnIfUnsaved(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "warning: changes could not be saved: %v\n", err)
}
