package todo

import (
	"fmt"
	"sort"
	"strings"

	internalstrings "github.com/ImL1s/TodoListDemo-sub002/internal/strings"
)

// SortKey selects the ordering of a query result.
type SortKey string

const (
	// SortNone keeps collection order.
	SortNone SortKey = ""

	// SortCreated orders by creation time.
	SortCreated SortKey = "created"

	// SortPriority orders by priority rank.
	SortPriority SortKey = "priority"

	// SortText orders alphabetically, ignoring case.
	SortText SortKey = "text"
)

// ParseSortKey normalizes user input into a SortKey.
func ParseSortKey(value string) (SortKey, error) {
	key := SortKey(internalstrings.NormalizeLowerTrimSpace(value))
	switch key {
	case SortNone, SortCreated, SortPriority, SortText:
		return key, nil
	case "created_at", "created-at", "date":
		return SortCreated, nil
	}
	return "", &ValidationError{Field: "sort", Err: fmt.Errorf("unknown sort key %q", value)}
}

// Query configures which todos to return and in what order.
type Query struct {
	// Filter restricts by completion. Empty means all.
	Filter Filter

	// Search keeps todos whose text contains this substring, ignoring case
	// and runs of whitespace.
	Search string

	// Sort orders the result. SortNone keeps collection order.
	Sort SortKey

	// Descending reverses the sort order.
	Descending bool
}

// Apply returns the todos matching q. The input slice is not modified.
func (q Query) Apply(todos []Todo) []Todo {
	search := strings.ToLower(internalstrings.NormalizeWhitespace(q.Search))

	result := make([]Todo, 0, len(todos))
	for _, item := range todos {
		if !q.Filter.Matches(item) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(internalstrings.NormalizeWhitespace(item.Text)), search) {
			continue
		}
		result = append(result, cloneTodo(item))
	}

	if q.Sort == SortNone {
		return result
	}

	sort.SliceStable(result, func(i, j int) bool {
		cmp := compareTodos(result[i], result[j], q.Sort)
		if q.Descending {
			return cmp > 0
		}
		return cmp < 0
	})
	return result
}

func compareTodos(a, b Todo, key SortKey) int {
	switch key {
	case SortPriority:
		return a.Priority.Rank() - b.Priority.Rank()
	case SortText:
		return strings.Compare(strings.ToLower(a.Text), strings.ToLower(b.Text))
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}
