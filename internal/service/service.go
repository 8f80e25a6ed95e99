// Package service gives the command line and terminal UI one view of a
// todo list, whether it lives in local storage or behind a running server.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ImL1s/TodoListDemo-sub002/internal/config"
	"github.com/ImL1s/TodoListDemo-sub002/internal/validation"
	"github.com/ImL1s/TodoListDemo-sub002/server"
	"github.com/ImL1s/TodoListDemo-sub002/storage"
	"github.com/ImL1s/TodoListDemo-sub002/todo"
	"github.com/charmbracelet/log"
)

// Listing is a query result together with the list-wide state it was
// taken from.
type Listing struct {
	Todos  []todo.Todo
	Filter todo.Filter
	Stats  todo.Stats
}

// Service is the set of todo operations shared by every front end. IDs
// may be unique prefixes.
//
// Mutations succeed even when they cannot be persisted. Flush reports the
// most recent persistence failure as a *todo.PersistenceError.
type Service interface {
	// List runs q. An empty q.Filter uses the current filter.
	List(ctx context.Context, q todo.Query) (Listing, error)
	Get(ctx context.Context, id string) (todo.Todo, error)
	Add(ctx context.Context, text string, priority todo.Priority) (todo.Todo, error)
	Toggle(ctx context.Context, id string) (todo.Todo, error)
	Edit(ctx context.Context, id, text string) (todo.Todo, error)
	SetPriority(ctx context.Context, id string, priority todo.Priority) (todo.Todo, error)
	Delete(ctx context.Context, id string) (todo.Todo, error)
	// Move places a todo at index in the collection order.
	Move(ctx context.Context, id string, index int) (todo.Todo, error)
	ClearCompleted(ctx context.Context) (int, error)
	ToggleAll(ctx context.Context) (bool, error)
	Stats(ctx context.Context) (todo.Stats, error)
	SetFilter(ctx context.Context, filter todo.Filter) error

	// Export returns the whole collection in order.
	Export(ctx context.Context) ([]todo.Todo, error)
	Import(ctx context.Context, todos []todo.Todo, mode todo.ImportMode) (todo.ImportResult, error)

	// Events streams changes until ctx ends. The error channel receives
	// nil on a clean stop.
	Events(ctx context.Context) (<-chan todo.Event, <-chan error)

	Flush(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open returns the remote service when cfg.Server.URL is set and a
// local one over the configured storage otherwise.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger) (Service, error) {
	if cfg.Server.URL != "" {
		client := server.NewClient(cfg.Server.URL)
		if err := client.Health(ctx); err != nil {
			return nil, fmt.Errorf("connect to %s: %w", client.BaseURL(), err)
		}
		return NewRemote(client), nil
	}

	opts, err := RepositoryOptions(cfg.Todo)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	opts.Storage = store
	opts.Logger = logger

	repo := todo.New(opts)
	// Load logs unreadable data itself and leaves the repository usable.
	_ = repo.Load(ctx)
	return NewLocal(repo, store), nil
}

// Defaults for the todo section of the configuration.
const (
	DefaultOrder      = todo.OrderAppend
	DefaultEditPolicy = todo.EditAllow
	DefaultIDStrategy = todo.IDStrategyHash
)

// ErrInvalidSetting is returned for unknown values in the todo section
// of the configuration.
var ErrInvalidSetting = errors.New("invalid setting")

// RepositoryOptions converts configuration into repository options.
// Storage and logging are left for the caller.
func RepositoryOptions(cfg config.Todo) (todo.Options, error) {
	opts := todo.Options{
		Order:      DefaultOrder,
		EditPolicy: DefaultEditPolicy,
		IDs:        todo.NewIDGenerator(DefaultIDStrategy),
		Seed:       cfg.Seed,
	}

	if cfg.Order != "" {
		order := todo.Order(cfg.Order)
		valid := []todo.Order{todo.OrderAppend, todo.OrderPrepend}
		if !containsValue(valid, order) {
			return todo.Options{}, fmt.Errorf("todo.order: %w", validation.FormatInvalidValueError(ErrInvalidSetting, order, valid))
		}
		opts.Order = order
	}

	if cfg.EditCompleted != "" {
		policy := todo.EditPolicy(cfg.EditCompleted)
		valid := []todo.EditPolicy{todo.EditAllow, todo.EditForbidCompleted}
		if !containsValue(valid, policy) {
			return todo.Options{}, fmt.Errorf("todo.edit-completed: %w", validation.FormatInvalidValueError(ErrInvalidSetting, policy, valid))
		}
		opts.EditPolicy = policy
	}

	if cfg.IDStrategy != "" {
		strategy := todo.IDStrategy(cfg.IDStrategy)
		valid := []todo.IDStrategy{todo.IDStrategyHash, todo.IDStrategyCounter, todo.IDStrategyUUID}
		if !containsValue(valid, strategy) {
			return todo.Options{}, fmt.Errorf("todo.id-strategy: %w", validation.FormatInvalidValueError(ErrInvalidSetting, strategy, valid))
		}
		opts.IDs = todo.NewIDGenerator(strategy)
	}

	if cfg.DefaultPriority != "" {
		priority, err := todo.ParsePriority(cfg.DefaultPriority)
		if err != nil {
			return todo.Options{}, fmt.Errorf("todo.default-priority: %w", err)
		}
		opts.DefaultPriority = priority
	}

	return opts, nil
}

func containsValue[T comparable](values []T, value T) bool {
	for _, candidate := range values {
		if candidate == value {
			return true
		}
	}
	return false
}

// Local serves a repository in this process.
type Local struct {
	repo   *todo.Repository
	closer io.Closer
}

// NewLocal wraps repo. closer, when set, is closed after the repository.
func NewLocal(repo *todo.Repository, closer io.Closer) *Local {
	return &Local{repo: repo, closer: closer}
}

// Repository returns the wrapped repository.
func (l *Local) Repository() *todo.Repository {
	return l.repo
}

func (l *Local) List(_ context.Context, q todo.Query) (Listing, error) {
	if q.Filter == "" {
		q.Filter = l.repo.Filter()
	}
	return Listing{Todos: l.repo.Query(q), Filter: q.Filter, Stats: l.repo.Stats()}, nil
}

func (l *Local) Get(_ context.Context, id string) (todo.Todo, error) {
	resolved, err := l.repo.Resolve(id)
	if err != nil {
		return todo.Todo{}, err
	}
	return l.repo.Get(resolved)
}

func (l *Local) Add(_ context.Context, text string, priority todo.Priority) (todo.Todo, error) {
	return l.repo.Add(text, todo.AddOptions{Priority: priority})
}

func (l *Local) Toggle(_ context.Context, id string) (todo.Todo, error) {
	resolved, err := l.repo.Resolve(id)
	if err != nil {
		return todo.Todo{}, err
	}
	return l.repo.Toggle(resolved)
}

func (l *Local) Edit(_ context.Context, id, text string) (todo.Todo, error) {
	resolved, err := l.repo.Resolve(id)
	if err != nil {
		return todo.Todo{}, err
	}
	return l.repo.Edit(resolved, text)
}

func (l *Local) SetPriority(_ context.Context, id string, priority todo.Priority) (todo.Todo, error) {
	resolved, err := l.repo.Resolve(id)
	if err != nil {
		return todo.Todo{}, err
	}
	return l.repo.SetPriority(resolved, priority)
}

func (l *Local) Delete(_ context.Context, id string) (todo.Todo, error) {
	resolved, err := l.repo.Resolve(id)
	if err != nil {
		return todo.Todo{}, err
	}
	return l.repo.Delete(resolved)
}

func (l *Local) Move(_ context.Context, id string, index int) (todo.Todo, error) {
	resolved, err := l.repo.Resolve(id)
	if err != nil {
		return todo.Todo{}, err
	}
	return l.repo.Move(resolved, index)
}

func (l *Local) ClearCompleted(context.Context) (int, error) {
	return l.repo.ClearCompleted(), nil
}

func (l *Local) ToggleAll(context.Context) (bool, error) {
	return l.repo.ToggleAll(), nil
}

func (l *Local) Stats(context.Context) (todo.Stats, error) {
	return l.repo.Stats(), nil
}

func (l *Local) SetFilter(_ context.Context, filter todo.Filter) error {
	return l.repo.SetFilter(filter)
}

func (l *Local) Export(context.Context) ([]todo.Todo, error) {
	return l.repo.All(), nil
}

func (l *Local) Import(_ context.Context, todos []todo.Todo, mode todo.ImportMode) (todo.ImportResult, error) {
	return l.repo.Import(todos, mode)
}

// Events forwards repository events. Slow readers miss events rather
// than blocking mutations.
func (l *Local) Events(ctx context.Context) (<-chan todo.Event, <-chan error) {
	events := make(chan todo.Event, 64)
	errCh := make(chan error, 1)

	unsubscribe := l.repo.Subscribe(func(event todo.Event) {
		select {
		case events <- event:
		default:
		}
	})
	go func() {
		<-ctx.Done()
		unsubscribe()
		errCh <- nil
	}()
	return events, errCh
}

func (l *Local) Flush(ctx context.Context) error {
	return l.repo.Flush(ctx)
}

// Close flushes pending writes and releases the storage.
func (l *Local) Close(ctx context.Context) error {
	err := l.repo.Close(ctx)
	if l.closer != nil {
		err = errors.Join(err, l.closer.Close())
	}
	return err
}

// Remote talks to a todo server.
type Remote struct {
	client *server.Client
}

// NewRemote wraps client.
func NewRemote(client *server.Client) *Remote {
	return &Remote{client: client}
}

func (r *Remote) List(ctx context.Context, q todo.Query) (Listing, error) {
	result, err := r.client.List(ctx, q)
	if err != nil {
		return Listing{}, err
	}
	return Listing{Todos: result.Todos, Filter: result.Filter, Stats: result.Stats}, nil
}

func (r *Remote) Get(ctx context.Context, id string) (todo.Todo, error) {
	return r.client.Get(ctx, id)
}

func (r *Remote) Add(ctx context.Context, text string, priority todo.Priority) (todo.Todo, error) {
	return r.client.Add(ctx, text, priority)
}

func (r *Remote) Toggle(ctx context.Context, id string) (todo.Todo, error) {
	return r.client.Toggle(ctx, id)
}

// resolve expands an ID prefix through GET; the server mutates by full
// ID only.
func (r *Remote) resolve(ctx context.Context, id string) (string, error) {
	item, err := r.client.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return item.ID, nil
}

func (r *Remote) Edit(ctx context.Context, id, text string) (todo.Todo, error) {
	resolved, err := r.resolve(ctx, id)
	if err != nil {
		return todo.Todo{}, err
	}
	return r.client.Update(ctx, resolved, server.UpdateOptions{Text: &text})
}

func (r *Remote) SetPriority(ctx context.Context, id string, priority todo.Priority) (todo.Todo, error) {
	resolved, err := r.resolve(ctx, id)
	if err != nil {
		return todo.Todo{}, err
	}
	return r.client.Update(ctx, resolved, server.UpdateOptions{Priority: &priority})
}

func (r *Remote) Delete(ctx context.Context, id string) (todo.Todo, error) {
	item, err := r.client.Get(ctx, id)
	if err != nil {
		return todo.Todo{}, err
	}
	if err := r.client.Delete(ctx, item.ID); err != nil {
		return todo.Todo{}, err
	}
	return item, nil
}

func (r *Remote) Move(ctx context.Context, id string, index int) (todo.Todo, error) {
	resolved, err := r.resolve(ctx, id)
	if err != nil {
		return todo.Todo{}, err
	}
	return r.client.Move(ctx, resolved, index)
}

func (r *Remote) ClearCompleted(ctx context.Context) (int, error) {
	return r.client.ClearCompleted(ctx)
}

func (r *Remote) ToggleAll(ctx context.Context) (bool, error) {
	return r.client.ToggleAll(ctx)
}

func (r *Remote) Stats(ctx context.Context) (todo.Stats, error) {
	return r.client.Stats(ctx)
}

func (r *Remote) SetFilter(ctx context.Context, filter todo.Filter) error {
	_, err := r.client.SetFilter(ctx, filter)
	return err
}

func (r *Remote) Export(ctx context.Context) ([]todo.Todo, error) {
	return r.client.Export(ctx)
}

func (r *Remote) Import(ctx context.Context, todos []todo.Todo, mode todo.ImportMode) (todo.ImportResult, error) {
	return r.client.Import(ctx, todos, mode)
}

func (r *Remote) Events(ctx context.Context) (<-chan todo.Event, <-chan error) {
	return r.client.Events(ctx)
}

func (r *Remote) Flush(ctx context.Context) error {
	return r.client.Flush(ctx)
}

// Close is a no-op; the server owns the storage.
func (r *Remote) Close(context.Context) error {
	return nil
}
