package todo

import "time"

// Todo represents a single task.
type Todo struct {
	// ID is an opaque identifier assigned at creation. It never changes.
	ID string `json:"id"`

	// Text is the trimmed task description (max 500 chars).
	Text string `json:"text"`

	// Completed reports whether the task is done.
	Completed bool `json:"completed"`

	// Priority is the importance level (low, medium, high).
	Priority Priority `json:"priority,omitempty"`

	// CreatedAt is when the todo was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the todo was last modified.
	UpdatedAt time.Time `json:"updated_at"`

	// CompletedAt is when the todo was completed (nil while active).
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Stats summarizes a collection of todos.
type Stats struct {
	Total          int `json:"total"`
	Active         int `json:"active"`
	Completed      int `json:"completed"`
	CompletionRate int `json:"completion_rate"`
}

// ComputeStats counts todos by state. CompletionRate is a rounded
// percentage and 0 for an empty collection.
func ComputeStats(todos []Todo) Stats {
	stats := Stats{Total: len(todos)}
	for _, item := range todos {
		if item.Completed {
			stats.Completed++
		}
	}
	stats.Active = stats.Total - stats.Completed
	if stats.Total > 0 {
		stats.CompletionRate = (stats.Completed*200 + stats.Total) / (stats.Total * 2)
	}
	return stats
}

func cloneTodo(item Todo) Todo {
	if item.CompletedAt != nil {
		completedAt := *item.CompletedAt
		item.CompletedAt = &completedAt
	}
	return item
}

// CloneTodos returns a deep copy of todos.
func CloneTodos(todos []Todo) []Todo {
	if todos == nil {
		return nil
	}
	cloned := make([]Todo, len(todos))
	for i, item := range todos {
		cloned[i] = cloneTodo(item)
	}
	return cloned
}
