// Package amstore keeps todos in an Automerge document on disk.
//
// The collection is stored as a JSON string under the "todos" key and
// every WriteAll is committed as one change, so the saved file carries
// the full edit history.
package amstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ImL1s/TodoListDemo-sub002/storage/filestore"
	"github.com/ImL1s/TodoListDemo-sub002/todo"
	"github.com/automerge/automerge-go"
)

const todosKey = "todos"

// Store is a todo.Storage backed by an Automerge document file.
type Store struct {
	path string

	mu  sync.Mutex
	doc *automerge.Doc
}

// Open returns a store for the document at path. The file is not read
// until ReadAll, so a missing or unreadable document never stops the
// store from opening.
func Open(path string) (*Store, error) {
	return &Store{path: path}, nil
}

func (s *Store) load() (*automerge.Doc, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return automerge.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read automerge file: %w", err)
	}
	doc, err := automerge.Load(data)
	if err != nil {
		return nil, fmt.Errorf("load automerge document: %w", err)
	}
	return doc, nil
}

// ReadAll implements todo.Storage. It rereads the file so changes saved by
// other processes are seen, and returns nil for a document that never
// held todos.
func (s *Store) ReadAll(ctx context.Context) ([]todo.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		// The next WriteAll replaces the unreadable file.
		s.doc = automerge.New()
		return nil, err
	}
	s.doc = doc

	value, err := doc.Path(todosKey).Get()
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", todosKey, err)
	}
	if value.Kind() == automerge.KindVoid {
		return nil, nil
	}
	encoded, err := automerge.As[string](value)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", todosKey, err)
	}

	todos := []todo.Todo{}
	if err := json.Unmarshal([]byte(encoded), &todos); err != nil {
		return nil, fmt.Errorf("unmarshal todos: %w", err)
	}
	return todos, nil
}

// WriteAll implements todo.Storage.
func (s *Store) WriteAll(ctx context.Context, todos []todo.Todo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if todos == nil {
		todos = []todo.Todo{}
	}

	data, err := json.Marshal(todos)
	if err != nil {
		return fmt.Errorf("marshal todos: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		doc, err := s.load()
		if err != nil {
			doc = automerge.New()
		}
		s.doc = doc
	}
	if err := s.doc.Path(todosKey).Set(string(data)); err != nil {
		return fmt.Errorf("set %s: %w", todosKey, err)
	}
	if _, err := s.doc.Commit(fmt.Sprintf("write %d todos", len(todos)), automerge.CommitOptions{AllowEmpty: true}); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return filestore.WriteFileAtomic(s.path, s.doc.Save())
}

// Changes returns how many changes the document holds.
func (s *Store) Changes() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		doc, err := s.load()
		if err != nil {
			return 0, err
		}
		s.doc = doc
	}
	changes, err := s.doc.Changes()
	if err != nil {
		return 0, fmt.Errorf("list changes: %w", err)
	}
	return len(changes), nil
}
