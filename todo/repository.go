package todo

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/ImL1s/TodoListDemo-sub002/internal/validation"
	"github.com/charmbracelet/log"
)

// maxIDAttempts bounds how often a generator is asked again after
// producing an ID that is already taken.
const maxIDAttempts = 16

// Options configures a Repository.
type Options struct {
	// Storage receives every mutation. Nil keeps the collection in memory only.
	Storage Storage

	// IDs generates identifiers for new todos. Defaults to HashIDs.
	IDs IDGenerator

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time

	// Logger receives load and persistence warnings. Defaults to a
	// discarding logger.
	Logger *log.Logger

	// Order decides where Add inserts. Defaults to OrderAppend.
	Order Order

	// EditPolicy decides whether completed todos may be edited.
	// Defaults to EditAllow.
	EditPolicy EditPolicy

	// DefaultPriority applies when Add is called without a priority and
	// to stored todos that have none. Defaults to PriorityMedium.
	DefaultPriority Priority

	// Seed lists texts loaded when storage holds nothing usable.
	Seed []string
}

// AddOptions configures a new todo.
type AddOptions struct {
	// Priority overrides the repository default.
	Priority Priority
}

// Repository holds the ordered todo collection and the current filter.
//
// Mutations apply in memory and return immediately. Each one queues a
// full snapshot for the storage writer; Flush waits for queued writes.
type Repository struct {
	mu     sync.Mutex
	todos  []Todo
	filter Filter

	ids             IDGenerator
	clock           func() time.Time
	logger          *log.Logger
	order           Order
	editPolicy      EditPolicy
	defaultPriority Priority
	seed            []string

	writer *writer

	obsMu        sync.Mutex
	observers    map[int]func(Event)
	nextObserver int
}

// New returns an empty repository. Call Load to read persisted todos.
func New(opts Options) *Repository {
	r := &Repository{
		todos:           []Todo{},
		filter:          FilterAll,
		ids:             opts.IDs,
		clock:           opts.Clock,
		logger:          opts.Logger,
		order:           opts.Order,
		editPolicy:      opts.EditPolicy,
		defaultPriority: opts.DefaultPriority,
		seed:            slices.Clone(opts.Seed),
		observers:       make(map[int]func(Event)),
	}
	if r.ids == nil {
		r.ids = HashIDs{}
	}
	if r.clock == nil {
		r.clock = time.Now
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	if r.order == "" {
		r.order = OrderAppend
	}
	if r.editPolicy == "" {
		r.editPolicy = EditAllow
	}
	if !r.defaultPriority.IsValid() {
		r.defaultPriority = PriorityMedium
	}
	if opts.Storage != nil {
		r.writer = newWriter(opts.Storage, r.persistFailed)
	}
	return r
}

// Load replaces the collection with the persisted one.
//
// Unreadable or invalid data is logged and the repository starts from
// the seed texts, or empty without any. The repository is usable either
// way; the returned *PersistenceError only reports what was skipped.
func (r *Repository) Load(ctx context.Context) error {
	var loadErr error
	var stored []Todo
	if r.writer != nil {
		todos, err := r.writer.storage.ReadAll(ctx)
		if err == nil && todos != nil {
			todos = r.repair(todos)
			err = ValidateTodos(todos)
		}
		if err != nil {
			loadErr = &PersistenceError{Op: "read", Err: err}
			r.logger.Warn("starting without persisted todos", "error", err)
		} else {
			stored = todos
		}
	}

	r.mu.Lock()
	if stored != nil {
		r.todos = stored
	} else {
		r.todos = r.seedTodosLocked()
	}
	if seeder, ok := r.ids.(IDSeeder); ok {
		seeder.Seed(r.idsLocked())
	}
	snapshot := CloneTodos(r.todos)
	stats := ComputeStats(r.todos)
	r.mu.Unlock()

	kind := EventLoaded
	if loadErr != nil {
		kind = EventLoadFailed
	}
	r.notify(Event{Kind: kind, Todos: snapshot, Stats: stats, Err: loadErr})
	return loadErr
}

// repair fills in fields older data may lack.
func (r *Repository) repair(todos []Todo) []Todo {
	for i := range todos {
		if todos[i].Priority == "" {
			todos[i].Priority = r.defaultPriority
		}
		if !todos[i].Completed {
			todos[i].CompletedAt = nil
		}
		if todos[i].UpdatedAt.IsZero() {
			todos[i].UpdatedAt = todos[i].CreatedAt
		}
	}
	return todos
}

func (r *Repository) seedTodosLocked() []Todo {
	todos := make([]Todo, 0, len(r.seed))
	now := r.clock()
	for _, text := range r.seed {
		text = NormalizeText(text)
		if ValidateText(text) != nil {
			continue
		}
		todos = append(todos, Todo{
			ID:        r.newIDLocked(todos, text, now),
			Text:      text,
			Priority:  r.defaultPriority,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return todos
}

// Add creates an active todo from text.
func (r *Repository) Add(text string, opts AddOptions) (Todo, error) {
	text = NormalizeText(text)
	if err := ValidateText(text); err != nil {
		return Todo{}, err
	}
	priority := opts.Priority
	if priority == "" {
		priority = r.defaultPriority
	}
	if err := ValidatePriority(priority); err != nil {
		return Todo{}, err
	}

	r.mu.Lock()
	now := r.clock()
	item := Todo{
		ID:        r.newIDLocked(r.todos, text, now),
		Text:      text,
		Priority:  priority,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if r.order == OrderPrepend {
		r.todos = slices.Insert(r.todos, 0, item)
	} else {
		r.todos = append(r.todos, item)
	}
	stats := r.commitLocked()
	r.mu.Unlock()

	created := cloneTodo(item)
	r.notify(Event{Kind: EventAdded, Todos: []Todo{created}, Stats: stats})
	return created, nil
}

// Toggle flips the completion state of the todo with id.
func (r *Repository) Toggle(id string) (Todo, error) {
	r.mu.Lock()
	i, err := r.indexLocked(id)
	if err != nil {
		r.mu.Unlock()
		return Todo{}, err
	}
	return r.setCompletedAndNotify(i, !r.todos[i].Completed)
}

// SetCompleted marks the todo with id completed or active. Setting the
// current state again is a no-op.
func (r *Repository) SetCompleted(id string, completed bool) (Todo, error) {
	r.mu.Lock()
	i, err := r.indexLocked(id)
	if err != nil {
		r.mu.Unlock()
		return Todo{}, err
	}
	if r.todos[i].Completed == completed {
		item := cloneTodo(r.todos[i])
		r.mu.Unlock()
		return item, nil
	}
	return r.setCompletedAndNotify(i, completed)
}

// setCompletedAndNotify must be called with r.mu held and releases it.
func (r *Repository) setCompletedAndNotify(i int, completed bool) (Todo, error) {
	r.setCompletedLocked(i, completed, r.clock())
	item := cloneTodo(r.todos[i])
	stats := r.commitLocked()
	r.mu.Unlock()

	r.notify(Event{Kind: EventUpdated, Todos: []Todo{item}, Stats: stats})
	return item, nil
}

func (r *Repository) setCompletedLocked(i int, completed bool, now time.Time) {
	item := &r.todos[i]
	item.Completed = completed
	item.UpdatedAt = now
	if completed {
		item.CompletedAt = &now
	} else {
		item.CompletedAt = nil
	}
}

// Edit replaces the text of the todo with id.
func (r *Repository) Edit(id, text string) (Todo, error) {
	text = NormalizeText(text)
	if err := ValidateText(text); err != nil {
		return Todo{}, err
	}

	r.mu.Lock()
	i, err := r.indexLocked(id)
	if err != nil {
		r.mu.Unlock()
		return Todo{}, err
	}
	if r.todos[i].Completed && r.editPolicy == EditForbidCompleted {
		r.mu.Unlock()
		return Todo{}, &ValidationError{Field: "text", Err: fmt.Errorf("%w: %s", ErrCompletedTodoLocked, id)}
	}
	if r.todos[i].Text == text {
		item := cloneTodo(r.todos[i])
		r.mu.Unlock()
		return item, nil
	}
	r.todos[i].Text = text
	r.todos[i].UpdatedAt = r.clock()
	item := cloneTodo(r.todos[i])
	stats := r.commitLocked()
	r.mu.Unlock()

	r.notify(Event{Kind: EventUpdated, Todos: []Todo{item}, Stats: stats})
	return item, nil
}

// SetPriority changes the priority of the todo with id.
func (r *Repository) SetPriority(id string, priority Priority) (Todo, error) {
	if err := ValidatePriority(priority); err != nil {
		return Todo{}, err
	}

	r.mu.Lock()
	i, err := r.indexLocked(id)
	if err != nil {
		r.mu.Unlock()
		return Todo{}, err
	}
	if r.todos[i].Priority == priority {
		item := cloneTodo(r.todos[i])
		r.mu.Unlock()
		return item, nil
	}
	r.todos[i].Priority = priority
	r.todos[i].UpdatedAt = r.clock()
	item := cloneTodo(r.todos[i])
	stats := r.commitLocked()
	r.mu.Unlock()

	r.notify(Event{Kind: EventUpdated, Todos: []Todo{item}, Stats: stats})
	return item, nil
}

// Delete removes the todo with id and returns it.
func (r *Repository) Delete(id string) (Todo, error) {
	r.mu.Lock()
	i, err := r.indexLocked(id)
	if err != nil {
		r.mu.Unlock()
		return Todo{}, err
	}
	removed := r.todos[i]
	r.todos = slices.Delete(r.todos, i, i+1)
	stats := r.commitLocked()
	r.mu.Unlock()

	r.notify(Event{Kind: EventDeleted, Todos: []Todo{removed}, Stats: stats})
	return removed, nil
}

// ClearCompleted removes every completed todo in one write and returns
// how many were removed.
func (r *Repository) ClearCompleted() int {
	r.mu.Lock()
	var removed []Todo
	kept := make([]Todo, 0, len(r.todos))
	for _, item := range r.todos {
		if item.Completed {
			removed = append(removed, item)
			continue
		}
		kept = append(kept, item)
	}
	if len(removed) == 0 {
		r.mu.Unlock()
		return 0
	}
	r.todos = kept
	stats := r.commitLocked()
	r.mu.Unlock()

	r.notify(Event{Kind: EventCleared, Todos: removed, Stats: stats})
	return len(removed)
}

// ToggleAll completes every todo if any is active, otherwise reopens
// them all. It returns the completion state that was applied. An empty
// collection is left alone.
func (r *Repository) ToggleAll() bool {
	r.mu.Lock()
	if len(r.todos) == 0 {
		r.mu.Unlock()
		return false
	}

	target := false
	for _, item := range r.todos {
		if !item.Completed {
			target = true
			break
		}
	}

	now := r.clock()
	var changed []Todo
	for i := range r.todos {
		if r.todos[i].Completed == target {
			continue
		}
		r.setCompletedLocked(i, target, now)
		changed = append(changed, cloneTodo(r.todos[i]))
	}
	stats := r.commitLocked()
	r.mu.Unlock()

	r.notify(Event{Kind: EventUpdated, Todos: changed, Stats: stats})
	return target
}

// Move places the todo with id at index in the collection order and
// shifts the todos in between. Index is clamped to the collection.
func (r *Repository) Move(id string, index int) (Todo, error) {
	r.mu.Lock()
	i, err := r.indexLocked(id)
	if err != nil {
		r.mu.Unlock()
		return Todo{}, err
	}
	index = max(0, min(index, len(r.todos)-1))
	item := r.todos[i]
	if i == index {
		r.mu.Unlock()
		return cloneTodo(item), nil
	}
	r.todos = slices.Insert(slices.Delete(r.todos, i, i+1), index, item)
	stats := r.commitLocked()
	r.mu.Unlock()

	moved := cloneTodo(item)
	r.notify(Event{Kind: EventMoved, Todos: []Todo{moved}, Stats: stats})
	return moved, nil
}

// ImportMode decides how Import combines incoming todos with the
// collection.
type ImportMode string

const (
	// ImportReplace discards the collection and keeps the incoming todos.
	ImportReplace ImportMode = "replace"

	// ImportMerge appends incoming todos whose IDs are not taken yet.
	ImportMerge ImportMode = "merge"
)

// ValidImportModes returns all valid import modes.
func ValidImportModes() []ImportMode {
	return []ImportMode{ImportReplace, ImportMerge}
}

// ImportResult counts what Import changed.
type ImportResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
	Removed int `json:"removed"`
}

// Import loads todos into the collection in one write. Empty mode means
// ImportReplace. Invalid input returns a *ValidationError and leaves the
// collection unchanged.
func (r *Repository) Import(todos []Todo, mode ImportMode) (ImportResult, error) {
	if mode == "" {
		mode = ImportReplace
	}
	if !slices.Contains(ValidImportModes(), mode) {
		return ImportResult{}, &ValidationError{Field: "mode", Err: validation.FormatInvalidValueError(ErrInvalidImportMode, mode, ValidImportModes())}
	}

	incoming := CloneTodos(todos)
	if incoming == nil {
		incoming = []Todo{}
	}
	now := r.clock()
	for i := range incoming {
		incoming[i].Text = NormalizeText(incoming[i].Text)
		if incoming[i].CreatedAt.IsZero() {
			incoming[i].CreatedAt = now
		}
		if incoming[i].Completed && incoming[i].CompletedAt == nil {
			completedAt := incoming[i].UpdatedAt
			if completedAt.IsZero() {
				completedAt = now
			}
			incoming[i].CompletedAt = &completedAt
		}
	}
	incoming = r.repair(incoming)
	if err := ValidateTodos(incoming); err != nil {
		return ImportResult{}, &ValidationError{Field: "todos", Err: err}
	}

	r.mu.Lock()
	var result ImportResult
	switch mode {
	case ImportReplace:
		result = ImportResult{Added: len(incoming), Removed: len(r.todos)}
		r.todos = incoming
	case ImportMerge:
		for _, item := range incoming {
			if _, err := r.indexLocked(item.ID); err == nil {
				result.Skipped++
				continue
			}
			r.todos = append(r.todos, item)
			result.Added++
		}
	}
	if seeder, ok := r.ids.(IDSeeder); ok {
		seeder.Seed(r.idsLocked())
	}
	stats := r.commitLocked()
	snapshot := CloneTodos(r.todos)
	r.mu.Unlock()

	r.notify(Event{Kind: EventImported, Todos: snapshot, Stats: stats})
	return result, nil
}

// SetFilter changes the current view filter. Empty means all.
func (r *Repository) SetFilter(filter Filter) error {
	if filter == "" {
		filter = FilterAll
	}
	if !filter.IsValid() {
		return &ValidationError{Field: "filter", Err: validation.FormatInvalidValueError(ErrInvalidFilter, filter, ValidFilters())}
	}

	r.mu.Lock()
	changed := r.filter != filter
	r.filter = filter
	stats := ComputeStats(r.todos)
	r.mu.Unlock()

	if changed {
		r.notify(Event{Kind: EventFilterChanged, Filter: filter, Stats: stats})
	}
	return nil
}

// Filter returns the current view filter.
func (r *Repository) Filter() Filter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter
}

// FilteredView returns the todos matching the current filter in
// collection order.
func (r *Repository) FilteredView() []Todo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Query{Filter: r.filter}.Apply(r.todos)
}

// Query returns the todos selected by q. The current filter is ignored.
func (r *Repository) Query(q Query) []Todo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return q.Apply(r.todos)
}

// All returns a copy of the whole collection.
func (r *Repository) All() []Todo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return CloneTodos(r.todos)
}

// Stats summarizes the whole collection.
func (r *Repository) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ComputeStats(r.todos)
}

// Get returns the todo with id.
func (r *Repository) Get(id string) (Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, err := r.indexLocked(id)
	if err != nil {
		return Todo{}, err
	}
	return cloneTodo(r.todos[i]), nil
}

// Resolve expands a unique ID prefix into a full ID.
func (r *Repository) Resolve(prefix string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return NewIDIndex(r.todos).Resolve(prefix)
}

// Flush waits for every queued write and returns the outcome of the
// latest one as a *PersistenceError.
func (r *Repository) Flush(ctx context.Context) error {
	if r.writer == nil {
		return nil
	}
	return r.writer.flush(ctx)
}

// Close flushes pending writes and stops the writer. Mutations after
// Close stay in memory.
func (r *Repository) Close(ctx context.Context) error {
	if r.writer == nil {
		return nil
	}
	return r.writer.close(ctx)
}

func (r *Repository) indexLocked(id string) (int, error) {
	for i := range r.todos {
		if r.todos[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrTodoNotFound, id)
}

func (r *Repository) idsLocked() []string {
	ids := make([]string, len(r.todos))
	for i, item := range r.todos {
		ids[i] = item.ID
	}
	return ids
}

// newIDLocked asks the generator for an ID not used in todos. Hash
// generators see a shifted timestamp on each retry.
func (r *Repository) newIDLocked(todos []Todo, text string, now time.Time) string {
	taken := func(id string) bool {
		return slices.ContainsFunc(todos, func(item Todo) bool { return item.ID == id })
	}
	for attempt := range maxIDAttempts {
		id := r.ids.NewID(text, now.Add(time.Duration(attempt)))
		if id != "" && !taken(id) {
			return id
		}
	}
	for {
		id := UUIDIDs{}.NewID(text, now)
		if !taken(id) {
			return id
		}
	}
}

// commitLocked queues the current collection for writing and returns its
// stats.
func (r *Repository) commitLocked() Stats {
	if r.writer != nil && !r.writer.enqueue(CloneTodos(r.todos)) {
		r.logger.Debug("repository closed, change kept in memory")
	}
	return ComputeStats(r.todos)
}

func (r *Repository) persistFailed(err error) {
	r.logger.Warn("could not persist todos", "error", err)
	r.notify(Event{Kind: EventPersistFailed, Err: err})
}
