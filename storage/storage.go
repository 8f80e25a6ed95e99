// Package storage opens the todo persistence backend named in the
// configuration.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/ImL1s/TodoListDemo-sub002/internal/config"
	"github.com/ImL1s/TodoListDemo-sub002/internal/paths"
	"github.com/ImL1s/TodoListDemo-sub002/storage/amstore"
	"github.com/ImL1s/TodoListDemo-sub002/storage/filestore"
	"github.com/ImL1s/TodoListDemo-sub002/storage/memstore"
	"github.com/ImL1s/TodoListDemo-sub002/storage/sqlitestore"
	"github.com/ImL1s/TodoListDemo-sub002/todo"
)

// Storage is an open backend. Close releases its resources.
type Storage interface {
	todo.Storage
	io.Closer
}

// Open returns the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.Storage) (Storage, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = config.DefaultBackend
	}
	if backend == "memory" {
		return nopCloser{memstore.New()}, nil
	}

	path, err := ResolvePath(cfg)
	if err != nil {
		return nil, err
	}

	switch backend {
	case "file":
		return nopCloser{filestore.New(path, "")}, nil
	case "jsonl":
		return nopCloser{filestore.New(path, filestore.FormatJSONL)}, nil
	case "sqlite":
		store, err := sqlitestore.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "automerge":
		store, err := amstore.Open(path)
		if err != nil {
			return nil, err
		}
		return nopCloser{store}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", backend)
}

// ResolvePath returns the configured path or the backend's default
// location.
func ResolvePath(cfg config.Storage) (string, error) {
	if cfg.Backend == "memory" {
		return "", nil
	}
	if cfg.Path != "" {
		return cfg.Path, nil
	}
	return paths.DefaultStoragePath(cfg.Backend)
}

type nopCloser struct {
	todo.Storage
}

func (nopCloser) Close() error { return nil }
