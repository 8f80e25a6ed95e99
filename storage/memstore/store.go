// Package memstore keeps todos in process memory.
package memstore

import (
	"context"
	"sync"

	"github.com/ImL1s/TodoListDemo-sub002/todo"
)

// Store is an in-memory todo.Storage. The zero value is ready to use.
type Store struct {
	mu       sync.Mutex
	todos    []todo.Todo
	written  bool
	writes   int
	readErr  error
	writeErr error
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// ReadAll implements todo.Storage. It returns nil until the first
// successful write.
func (s *Store) ReadAll(ctx context.Context) ([]todo.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	if !s.written {
		return nil, nil
	}
	result := todo.CloneTodos(s.todos)
	if result == nil {
		result = []todo.Todo{}
	}
	return result, nil
}

// WriteAll implements todo.Storage.
func (s *Store) WriteAll(ctx context.Context, todos []todo.Todo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.todos = todo.CloneTodos(todos)
	s.written = true
	s.writes++
	return nil
}

// FailReads makes ReadAll return err until called again with nil.
func (s *Store) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

// FailWrites makes WriteAll return err until called again with nil.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// Writes returns the number of successful writes.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
