package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ImL1s/TodoListDemo-sub002/internal/config"
	"github.com/ImL1s/TodoListDemo-sub002/internal/service"
	"github.com/ImL1s/TodoListDemo-sub002/server"
	"github.com/ImL1s/TodoListDemo-sub002/storage"
	"github.com/ImL1s/TodoListDemo-sub002/todo"
	"github.com/spf13/cobra"
)

// todo serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the todo list over HTTP",
	Long: `Serve the todo list over HTTP.

The JSON API lives at /todos, a browser view at /web/todos and a live
change feed at /events. Other todo commands reach the server with
--server.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, "+config.DefaultAddr+")")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Server.URL != "" {
		return fmt.Errorf("serve stores todos locally; drop --server")
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	addr, err := server.ResolveAddr(serveAddr, cfg.Server.Addr)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	opts, err := service.RepositoryOptions(cfg.Todo)
	if err != nil {
		return err
	}
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()
	opts.Storage = store
	opts.Logger = logger

	repo := todo.New(opts)
	_ = repo.Load(ctx)
	defer repo.Close(context.Background())

	srv, err := server.New(server.Options{Repo: repo, Logger: logger})
	if err != nil {
		return err
	}
	path, _ := storage.ResolvePath(cfg.Storage)
	logger.Info("serving todos", "url", server.BaseURL(addr), "backend", cfg.Storage.Backend, "path", path)
	fmt.Fprintf(cmd.ErrOrStderr(), "Serving todos at %s\n", server.BaseURL(addr))
	if err := srv.Serve(ctx, addr); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
