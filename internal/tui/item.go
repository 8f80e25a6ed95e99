package tui

import (
	"fmt"
	"io"

	"github.com/ImL1s/TodoListDemo-sub002/todo"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/truncate"
)

type todoItem struct {
	todo todo.Todo
}

func (item todoItem) FilterValue() string {
	return item.todo.Text
}

type todoItemDelegate struct{}

func (todoItemDelegate) Height() int                             { return 1 }
func (todoItemDelegate) Spacing() int                            { return 0 }
func (todoItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (todoItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(todoItem)
	if !ok {
		return
	}

	line := formatTodoItem(item.todo, m.Width())
	style := itemStyle
	switch {
	case index == m.Index():
		style = itemSelectedStyle
	case item.todo.Completed:
		style = itemCompletedStyle
	case item.todo.Priority == todo.PriorityHigh:
		style = priorityHighStyle
	}
	fmt.Fprint(w, style.Render(line))
}

func formatTodoItem(item todo.Todo, width int) string {
	check := "[ ]"
	if item.Completed {
		check = "[x]"
	}
	line := fmt.Sprintf("%s %s  (%s)", check, item.Text, item.Priority)
	if width <= 0 {
		return line
	}
	return truncate.StringWithTail(line, uint(width), "...")
}

func nextPriority(p todo.Priority) todo.Priority {
	switch p {
	case todo.PriorityLow:
		return todo.PriorityMedium
	case todo.PriorityMedium:
		return todo.PriorityHigh
	default:
		return todo.PriorityLow
	}
}

func nextFilter(f todo.Filter) todo.Filter {
	filters := todo.ValidFilters()
	for i, candidate := range filters {
		if candidate == f {
			return filters[(i+1)%len(filters)]
		}
	}
	return todo.FilterAll
}
