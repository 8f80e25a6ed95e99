package todo

// EventKind identifies what changed in a repository.
type EventKind string

const (
	EventLoaded        EventKind = "loaded"
	EventLoadFailed    EventKind = "load_failed"
	EventAdded         EventKind = "added"
	EventUpdated       EventKind = "updated"
	EventDeleted       EventKind = "deleted"
	EventCleared       EventKind = "cleared"
	EventMoved         EventKind = "moved"
	EventImported      EventKind = "imported"
	EventFilterChanged EventKind = "filter_changed"
	EventPersistFailed EventKind = "persist_failed"
)

// Event describes a change observed on a repository.
type Event struct {
	Kind EventKind `json:"kind"`

	// Todos holds the affected items: the created, updated or removed
	// todos, or the whole collection for load and import events.
	Todos []Todo `json:"todos,omitempty"`

	// Filter is the new filter for EventFilterChanged.
	Filter Filter `json:"filter,omitempty"`

	// Stats is the repository summary right after the change.
	Stats Stats `json:"stats"`

	// Err is set for EventLoadFailed and EventPersistFailed.
	Err error `json:"-"`

	// Warning is Err as text, for serialized events.
	Warning string `json:"warning,omitempty"`
}

// Subscribe registers fn to be called after every change. Observers run
// synchronously on the goroutine that made the change and must not block.
func (r *Repository) Subscribe(fn func(Event)) (unsubscribe func()) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()

	id := r.nextObserver
	r.nextObserver++
	r.observers[id] = fn

	return func() {
		r.obsMu.Lock()
		defer r.obsMu.Unlock()
		delete(r.observers, id)
	}
}

func (r *Repository) notify(event Event) {
	if event.Err != nil {
		event.Warning = event.Err.Error()
	}

	r.obsMu.Lock()
	observers := make([]func(Event), 0, len(r.observers))
	for _, fn := range r.observers {
		observers = append(observers, fn)
	}
	r.obsMu.Unlock()

	for _, fn := range observers {
		fn(event)
	}
}
