// Package todo implements the todo list repository.
//
// A Repository owns the ordered collection of todos and the current view
// filter. Every mutation is applied in memory first and then written
// through to a Storage collaborator by a single FIFO writer, so a failing
// store never loses the in-session state.
//
// The public API mirrors the CLI commands:
//   - Add, Toggle, Edit, SetPriority, Delete for single items
//   - ClearCompleted, ToggleAll for bulk changes
//   - SetFilter, FilteredView, Query, Stats for reading
package todo

import (
	internalstrings "github.com/ImL1s/TodoListDemo-sub002/internal/strings"
	"github.com/ImL1s/TodoListDemo-sub002/internal/validation"
)

// Filter selects which todos a view shows.
type Filter string

const (
	// FilterAll shows every todo.
	FilterAll Filter = "all"

	// FilterActive shows todos that are not completed.
	FilterActive Filter = "active"

	// FilterCompleted shows completed todos.
	FilterCompleted Filter = "completed"
)

// ValidFilters returns all valid filter values.
func ValidFilters() []Filter {
	return []Filter{FilterAll, FilterActive, FilterCompleted}
}

// IsValid returns true if the filter is a known value.
func (f Filter) IsValid() bool {
	for _, valid := range ValidFilters() {
		if f == valid {
			return true
		}
	}
	return false
}

// Matches reports whether item belongs in the filtered view.
func (f Filter) Matches(item Todo) bool {
	switch f {
	case FilterActive:
		return !item.Completed
	case FilterCompleted:
		return item.Completed
	default:
		return true
	}
}

// ParseFilter normalizes user input into a Filter. Empty input means all.
func ParseFilter(value string) (Filter, error) {
	normalized := Filter(internalstrings.NormalizeLowerTrimSpace(value))
	if normalized == "" {
		return FilterAll, nil
	}
	if normalized == "done" {
		return FilterCompleted, nil
	}
	if !normalized.IsValid() {
		return "", &ValidationError{Field: "filter", Err: validation.FormatInvalidValueError(ErrInvalidFilter, Filter(value), ValidFilters())}
	}
	return normalized, nil
}

// Priority represents the importance of a todo.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium" // default
	PriorityHigh   Priority = "high"
)

// ValidPriorities returns all valid priority values.
func ValidPriorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

// IsValid returns true if the priority is a known value.
func (p Priority) IsValid() bool {
	for _, valid := range ValidPriorities() {
		if p == valid {
			return true
		}
	}
	return false
}

// Rank orders priorities from low (0) to high (2).
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// ParsePriority normalizes user input into a Priority.
func ParsePriority(value string) (Priority, error) {
	normalized := Priority(internalstrings.NormalizeLowerTrimSpace(value))
	switch normalized {
	case "l":
		normalized = PriorityLow
	case "m", "med":
		normalized = PriorityMedium
	case "h":
		normalized = PriorityHigh
	}
	if !normalized.IsValid() {
		return "", &ValidationError{Field: "priority", Err: validation.FormatInvalidValueError(ErrInvalidPriority, Priority(value), ValidPriorities())}
	}
	return normalized, nil
}

// Order controls where new todos are inserted.
type Order string

const (
	// OrderAppend adds new todos at the end of the collection.
	OrderAppend Order = "append"

	// OrderPrepend adds new todos at the front (newest first).
	OrderPrepend Order = "prepend"
)

// EditPolicy controls whether completed todos may be edited.
type EditPolicy string

const (
	// EditAllow permits editing any todo.
	EditAllow EditPolicy = "allow"

	// EditForbidCompleted rejects edits to completed todos.
	EditForbidCompleted EditPolicy = "forbid-completed"
)

// MaxTextLength is the maximum allowed length for a todo text, in runes.
const MaxTextLength = 500
