package todo

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	internalstrings "github.com/ImL1s/TodoListDemo-sub002/internal/strings"
	"github.com/ImL1s/TodoListDemo-sub002/internal/validation"
)

var (
	// ErrEmptyText is returned when a todo text is empty or whitespace.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrTextTooLong is returned when a todo text exceeds MaxTextLength.
	ErrTextTooLong = errors.New("text exceeds maximum length")

	// ErrInvalidFilter is returned when an unknown filter is provided.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrInvalidPriority is returned when an unknown priority is provided.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrCompletedTodoLocked is returned when editing a completed todo
	// under EditForbidCompleted.
	ErrCompletedTodoLocked = errors.New("completed todos cannot be edited")

	// ErrInvalidImportMode is returned when an unknown import mode is provided.
	ErrInvalidImportMode = errors.New("invalid import mode")

	// ErrTodoNotFound is returned when a todo with the given ID doesn't exist.
	ErrTodoNotFound = errors.New("todo not found")

	// ErrAmbiguousTodoIDPrefix is returned when an ID prefix matches multiple todos.
	ErrAmbiguousTodoIDPrefix = errors.New("ambiguous todo ID prefix")

	// ErrDuplicateID is returned when a collection holds the same ID twice.
	ErrDuplicateID = errors.New("duplicate todo ID")

	// ErrCompletedAtWithoutCompleted is returned when an active todo carries
	// a completion timestamp.
	ErrCompletedAtWithoutCompleted = errors.New("active todo cannot have completed_at timestamp")
)

// ValidationError reports rejected input. The repository state is
// unchanged when one is returned.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a storage failure. The in-memory collection
// stays authoritative when one occurs.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s todos: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err means the referenced todo is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTodoNotFound)
}

// NormalizeText trims surrounding whitespace and folds line breaks into
// spaces.
func NormalizeText(text string) string {
	text = internalstrings.NormalizeNewlines(text)
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.TrimSpace(text)
}

// ValidateText checks a normalized todo text.
func ValidateText(text string) error {
	if internalstrings.IsBlank(text) {
		return &ValidationError{Field: "text", Err: ErrEmptyText}
	}
	if length := utf8.RuneCountInString(text); length > MaxTextLength {
		return &ValidationError{Field: "text", Err: fmt.Errorf("%w: %d > %d", ErrTextTooLong, length, MaxTextLength)}
	}
	return nil
}

// ValidatePriority checks if the priority is valid.
func ValidatePriority(priority Priority) error {
	if !priority.IsValid() {
		return &ValidationError{Field: "priority", Err: validation.FormatInvalidValueError(ErrInvalidPriority, priority, ValidPriorities())}
	}
	return nil
}

// ValidateTodo checks if a todo struct is valid.
func ValidateTodo(t *Todo) error {
	if internalstrings.IsBlank(t.ID) {
		return fmt.Errorf("id cannot be empty")
	}
	if err := ValidateText(t.Text); err != nil {
		return err
	}
	if err := ValidatePriority(t.Priority); err != nil {
		return err
	}
	if !t.Completed && t.CompletedAt != nil {
		return ErrCompletedAtWithoutCompleted
	}
	return nil
}

// ValidateTodos checks every todo and that IDs are unique.
func ValidateTodos(todos []Todo) error {
	seen := make(map[string]struct{}, len(todos))
	for i := range todos {
		if err := ValidateTodo(&todos[i]); err != nil {
			return fmt.Errorf("validate todo %d: %w", i, err)
		}
		if _, ok := seen[todos[i].ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, todos[i].ID)
		}
		seen[todos[i].ID] = struct{}{}
	}
	return nil
}
