package editor

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/BurntSushi/toml"
	"github.com/ImL1s/TodoListDemo-sub002/todo"
)

// TodoData represents the data used to render the TOML template.
type TodoData struct {
	// IsUpdate is true when editing an existing todo.
	IsUpdate bool
	// ID is the todo ID (only for updates).
	ID string
	// Text is the todo text.
	Text string
	// Priority is the todo priority.
	Priority todo.Priority
	// Completed is the completion state (only for updates).
	Completed bool
}

// DefaultCreateData returns TodoData for a new todo.
func DefaultCreateData(priority todo.Priority) TodoData {
	if priority == "" {
		priority = todo.PriorityMedium
	}
	return TodoData{Priority: priority}
}

// DataFromTodo creates TodoData from an existing todo for editing.
func DataFromTodo(t todo.Todo) TodoData {
	return TodoData{
		IsUpdate:  true,
		ID:        t.ID,
		Text:      t.Text,
		Priority:  t.Priority,
		Completed: t.Completed,
	}
}

var todoTemplate = template.Must(template.New("todo").Parse(`# Lines starting with # are ignored.
{{- if .IsUpdate }}
# Editing todo {{ .ID }}.
{{- end }}
text = {{ printf "%q" .Text }}
priority = {{ printf "%q" .Priority }} # low, medium, high
{{- if .IsUpdate }}
completed = {{ .Completed }}
{{- end }}
`))

// RenderTodoTOML renders the todo data as a TOML string for editing.
func RenderTodoTOML(data TodoData) (string, error) {
	var buf bytes.Buffer
	if err := todoTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return buf.String(), nil
}

// ParsedTodo represents the parsed result from the TOML editor output.
// Priority is empty when the file left it blank. Completed is nil when
// the file has no completed key.
type ParsedTodo struct {
	Text      string
	Priority  todo.Priority
	Completed *bool
}

// ParseTodoTOML parses the TOML content from the editor.
func ParseTodoTOML(content string) (*ParsedTodo, error) {
	var raw struct {
		Text      string `toml:"text"`
		Priority  string `toml:"priority"`
		Completed *bool  `toml:"completed"`
	}
	if _, err := toml.Decode(content, &raw); err != nil {
		return nil, fmt.Errorf("parse TOML: %w", err)
	}

	text := todo.NormalizeText(raw.Text)
	if err := todo.ValidateText(text); err != nil {
		return nil, err
	}
	parsed := &ParsedTodo{Text: text, Completed: raw.Completed}
	if strings.TrimSpace(raw.Priority) != "" {
		priority, err := todo.ParsePriority(raw.Priority)
		if err != nil {
			return nil, err
		}
		parsed.Priority = priority
	}
	return parsed, nil
}

func createTodoTempFile() (*os.File, error) {
	return os.CreateTemp("", "todo-*.toml")
}

// EditTodo opens the editor for a todo and returns the parsed result.
// For create, pass nil for existing.
func EditTodo(existing *todo.Todo, defaultPriority todo.Priority) (*ParsedTodo, error) {
	data := DefaultCreateData(defaultPriority)
	if existing != nil {
		data = DataFromTodo(*existing)
	}
	return EditTodoWithData(data)
}

// EditTodoWithData opens the editor with pre-populated data and returns the parsed result.
func EditTodoWithData(data TodoData) (*ParsedTodo, error) {
	content, err := RenderTodoTOML(data)
	if err != nil {
		return nil, err
	}

	tmpfile, err := createTodoTempFile()
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpfile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpfile.WriteString(content); err != nil {
		tmpfile.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpfile.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	if err := Edit(tmpPath); err != nil {
		return nil, err
	}

	edited, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("read edited file: %w", err)
	}

	return ParseTodoTOML(string(edited))
}
