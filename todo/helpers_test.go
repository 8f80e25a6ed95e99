package todo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var errDiskFull = errors.New("disk full")

// fakeStorage records every write and can be told to fail.
type fakeStorage struct {
	mu         sync.Mutex
	todos      []Todo
	writes     [][]Todo
	readErr    error
	writeErr   error
	writeDelay time.Duration
}

func (s *fakeStorage) ReadAll(context.Context) ([]Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	return CloneTodos(s.todos), nil
}

func (s *fakeStorage) WriteAll(_ context.Context, todos []Todo) error {
	if s.writeDelay > 0 {
		time.Sleep(s.writeDelay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.todos = CloneTodos(todos)
	s.writes = append(s.writes, CloneTodos(todos))
	return nil
}

func (s *fakeStorage) setWriteErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

func (s *fakeStorage) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

func (s *fakeStorage) stored() []Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CloneTodos(s.todos)
}

// fakeClock advances one second per call.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// newTestRepo returns a loaded repository backed by a fakeStorage.
func newTestRepo(t *testing.T, opts Options) (*Repository, *fakeStorage) {
	t.Helper()

	storage, _ := opts.Storage.(*fakeStorage)
	if storage == nil {
		storage = &fakeStorage{}
		opts.Storage = storage
	}
	if opts.Clock == nil {
		opts.Clock = newFakeClock().Now
	}
	if opts.IDs == nil {
		opts.IDs = &CounterIDs{}
	}

	repo := New(opts)
	if err := repo.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(func() {
		repo.Close(context.Background())
	})
	return repo, storage
}

func mustAdd(t *testing.T, repo *Repository, text string) Todo {
	t.Helper()
	item, err := repo.Add(text, AddOptions{})
	if err != nil {
		t.Fatalf("add %q: %v", text, err)
	}
	return item
}

func mustFlush(t *testing.T, repo *Repository) {
	t.Helper()
	if err := repo.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func texts(todos []Todo) []string {
	out := make([]string, len(todos))
	for i, item := range todos {
		out[i] = item.Text
	}
	return out
}
