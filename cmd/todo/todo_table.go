package main

import (
	"fmt"
	"io"
	"time"

	"github.com/ImL1s/TodoListDemo-sub002/internal/ui"
	"github.com/ImL1s/TodoListDemo-sub002/todo"
)

// printTodoTable prints todos in a table format.
func printTodoTable(w io.Writer, todos []todo.Todo, prefixLengths map[string]int, now time.Time) {
	if len(todos) == 0 {
		fmt.Fprintln(w, "No todos found.")
		return
	}

	fmt.Fprint(w, formatTodoTable(todos, prefixLengths, ui.HighlightID, now))
}

func formatTodoTable(todos []todo.Todo, prefixLengths map[string]int, highlight func(string, int) string, now time.Time) string {
	builder := ui.NewTableBuilder([]string{"ID", "DONE", "PRI", "AGE", "TEXT"}, len(todos))

	if prefixLengths == nil {
		prefixLengths = todo.NewIDIndex(todos).PrefixLengths()
	}

	for _, t := range todos {
		builder.AddRow(
			highlight(t.ID, ui.PrefixLength(prefixLengths, t.ID)),
			checkbox(t.Completed),
			priorityShort(t.Priority),
			ui.FormatDurationShort(now.Sub(t.CreatedAt)),
			ui.TruncateTableCell(t.Text),
		)
	}

	return builder.String()
}

func checkbox(completed bool) string {
	if completed {
		return "[x]"
	}
	return "[ ]"
}

// priorityShort returns a one-letter priority.
func priorityShort(p todo.Priority) string {
	switch p {
	case todo.PriorityHigh:
		return "H"
	case todo.PriorityLow:
		return "L"
	default:
		return "M"
	}
}

const todoDetailLineWidth = 80

// printTodoDetail prints detailed information about a todo.
func printTodoDetail(w io.Writer, t todo.Todo, highlight func(string) string, now time.Time) {
	status := "active"
	if t.Completed {
		status = "completed"
	}
	fmt.Fprintf(w, "ID:        %s\n", highlight(t.ID))
	fmt.Fprintf(w, "Status:    %s\n", status)
	fmt.Fprintf(w, "Priority:  %s\n", t.Priority)
	fmt.Fprintf(w, "Created:   %s (%s)\n", t.CreatedAt.Format("2006-01-02 15:04:05"), ui.FormatTimeAgo(t.CreatedAt, now))
	fmt.Fprintf(w, "Updated:   %s\n", t.UpdatedAt.Format("2006-01-02 15:04:05"))
	if t.CompletedAt != nil {
		fmt.Fprintf(w, "Completed: %s (%s)\n", t.CompletedAt.Format("2006-01-02 15:04:05"), ui.FormatOptionalTimeAgo(t.CompletedAt, now))
	}
	fmt.Fprintf(w, "\n%s\n", ui.WrapText(t.Text, todoDetailLineWidth, 2))
}
