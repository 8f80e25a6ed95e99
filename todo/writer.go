package todo

import (
	"context"
	"sync"
)

// Storage persists whole collections of todos.
//
// WriteAll replaces everything previously written. ReadAll returns the
// collection from the last successful WriteAll, or nil when nothing has
// ever been written.
type Storage interface {
	ReadAll(ctx context.Context) ([]Todo, error)
	WriteAll(ctx context.Context, todos []Todo) error
}

const writeQueueSize = 64

type writeRequest struct {
	todos   []Todo
	barrier chan error
}

// writer applies snapshots to storage one at a time in the order they
// were queued.
type writer struct {
	storage   Storage
	onFailure func(error)
	requests  chan writeRequest
	done      chan struct{}

	sendMu sync.Mutex
	closed bool

	errMu   sync.Mutex
	lastErr error
}

func newWriter(storage Storage, onFailure func(error)) *writer {
	w := &writer{
		storage:   storage,
		onFailure: onFailure,
		requests:  make(chan writeRequest, writeQueueSize),
		done:      make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *writer) run() {
	defer close(w.done)
	for req := range w.requests {
		if req.barrier != nil {
			req.barrier <- w.err()
			continue
		}
		w.write(req.todos)
	}
}

func (w *writer) write(todos []Todo) {
	var persistErr error
	if err := w.storage.WriteAll(context.Background(), todos); err != nil {
		persistErr = &PersistenceError{Op: "write", Err: err}
	}

	w.errMu.Lock()
	w.lastErr = persistErr
	w.errMu.Unlock()

	if persistErr != nil && w.onFailure != nil {
		w.onFailure(persistErr)
	}
}

func (w *writer) err() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.lastErr
}

// enqueue queues a snapshot. It reports false once the writer is closed.
func (w *writer) enqueue(todos []Todo) bool {
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	if w.closed {
		return false
	}
	w.requests <- writeRequest{todos: todos}
	return true
}

// flush waits until every snapshot queued before the call is written and
// returns the result of the most recent write.
func (w *writer) flush(ctx context.Context) error {
	barrier := make(chan error, 1)

	w.sendMu.Lock()
	if w.closed {
		w.sendMu.Unlock()
		return w.err()
	}
	select {
	case w.requests <- writeRequest{barrier: barrier}:
	case <-ctx.Done():
		w.sendMu.Unlock()
		return ctx.Err()
	}
	w.sendMu.Unlock()

	select {
	case err := <-barrier:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *writer) close(ctx context.Context) error {
	flushErr := w.flush(ctx)

	w.sendMu.Lock()
	if !w.closed {
		w.closed = true
		close(w.requests)
	}
	w.sendMu.Unlock()

	select {
	case <-w.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return flushErr
}
