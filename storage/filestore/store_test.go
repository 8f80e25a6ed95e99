package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ImL1s/TodoListDemo-sub002/todo"
)

func sampleTodos() []todo.Todo {
	created := time.Date(2024, 5, 1, 9, 30, 0, 123456789, time.UTC)
	completed := created.Add(time.Hour)
	return []todo.Todo{
		{ID: "a1", Text: "buy milk", Completed: true, Priority: todo.PriorityHigh, CreatedAt: created, UpdatedAt: completed, CompletedAt: &completed},
		{ID: "b2", Text: "walk dog", Priority: todo.PriorityMedium, CreatedAt: created, UpdatedAt: created},
	}
}

func assertSameTodos(t *testing.T, got, want []todo.Todo) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d todos, want %d", len(got), len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.ID != w.ID || g.Text != w.Text || g.Completed != w.Completed || g.Priority != w.Priority {
			t.Errorf("todo %d = %+v, want %+v", i, g, w)
		}
		if !g.CreatedAt.Equal(w.CreatedAt) || !g.UpdatedAt.Equal(w.UpdatedAt) {
			t.Errorf("todo %d timestamps = %v/%v, want %v/%v", i, g.CreatedAt, g.UpdatedAt, w.CreatedAt, w.UpdatedAt)
		}
		if (g.CompletedAt == nil) != (w.CompletedAt == nil) {
			t.Errorf("todo %d completed_at = %v, want %v", i, g.CompletedAt, w.CompletedAt)
		} else if g.CompletedAt != nil && !g.CompletedAt.Equal(*w.CompletedAt) {
			t.Errorf("todo %d completed_at = %v, want %v", i, *g.CompletedAt, *w.CompletedAt)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatJSONL} {
		t.Run(string(format), func(t *testing.T) {
			store := New(filepath.Join(t.TempDir(), "data", "todos."+string(format)), format)
			ctx := context.Background()

			if err := store.WriteAll(ctx, sampleTodos()); err != nil {
				t.Fatalf("write: %v", err)
			}
			got, err := store.ReadAll(ctx)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			assertSameTodos(t, got, sampleTodos())

			if err := store.WriteAll(ctx, sampleTodos()[1:]); err != nil {
				t.Fatalf("second write: %v", err)
			}
			got, err = store.ReadAll(ctx)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			assertSameTodos(t, got, sampleTodos()[1:])
		})
	}
}

func TestReadMissingFileReturnsNil(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "todos.json"), "")
	got, err := store.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestWriteEmptyReadsBackEmpty(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatJSONL} {
		t.Run(string(format), func(t *testing.T) {
			store := New(filepath.Join(t.TempDir(), "todos"), format)
			if err := store.WriteAll(context.Background(), nil); err != nil {
				t.Fatalf("write: %v", err)
			}
			got, err := store.ReadAll(context.Background())
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if got == nil || len(got) != 0 {
				t.Fatalf("expected empty non-nil collection, got %#v", got)
			}
		})
	}
}

func TestFormatFromExtension(t *testing.T) {
	if got := New("todos.jsonl", "").Format(); got != FormatJSONL {
		t.Errorf("format = %q, want jsonl", got)
	}
	if got := New("todos.json", "").Format(); got != FormatJSON {
		t.Errorf("format = %q, want json", got)
	}
}

func TestExportMatchesStoredFile(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatJSONL} {
		t.Run(string(format), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "todos")
			if err := New(path, format).WriteAll(context.Background(), sampleTodos()); err != nil {
				t.Fatalf("write: %v", err)
			}
			stored, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}

			exported, err := Marshal(sampleTodos(), format)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(exported) != string(stored) {
				t.Errorf("export differs from stored file:\n%s\n%s", exported, stored)
			}

			got, err := Unmarshal(exported, format)
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			assertSameTodos(t, got, sampleTodos())
		})
	}

	if _, err := Unmarshal([]byte(`{"schema_version": 1}`), FormatJSON); !errors.Is(err, ErrSchema) {
		t.Errorf("expected ErrSchema, got %v", err)
	}
	if got := FormatFor("backup.JSONL"); got != FormatJSONL {
		t.Errorf("FormatFor = %q, want jsonl", got)
	}
}

func TestJSONDocumentShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")
	store := New(path, FormatJSON)
	if err := store.WriteAll(context.Background(), sampleTodos()); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{`"schema_version": 1`, `"todos": [`, `"created_at": "2024-05-01T09:30:00.123456789Z"`} {
		if !strings.Contains(text, want) {
			t.Errorf("document missing %s:\n%s", want, text)
		}
	}
}

func TestWriteSkipsIdenticalContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")
	store := New(path, FormatJSON)
	ctx := context.Background()
	if err := store.WriteAll(ctx, sampleTodos()); err != nil {
		t.Fatal(err)
	}

	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
	if err := store.WriteAll(ctx, sampleTodos()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(old) {
		t.Error("identical write rewrote the file")
	}
}

func TestReadRejectsInvalidData(t *testing.T) {
	tests := []struct {
		name     string
		format   Format
		content  string
		wantSchm bool
	}{
		{"not json", FormatJSON, "{not json", false},
		{"empty file", FormatJSON, "", false},
		{"missing todos", FormatJSON, `{"schema_version": 1}`, true},
		{"wrong version", FormatJSON, `{"schema_version": 2, "todos": []}`, true},
		{"bare array", FormatJSON, `[]`, true},
		{"empty text", FormatJSON, `{"schema_version": 1, "todos": [{"id": "a", "text": "", "completed": false, "created_at": "2024-01-01T00:00:00Z"}]}`, true},
		{"bad priority", FormatJSON, `{"schema_version": 1, "todos": [{"id": "a", "text": "x", "completed": false, "priority": "urgent", "created_at": "2024-01-01T00:00:00Z"}]}`, true},
		{"bad timestamp", FormatJSON, `{"schema_version": 1, "todos": [{"id": "a", "text": "x", "completed": false, "created_at": "yesterday"}]}`, true},
		{"unknown field", FormatJSON, `{"schema_version": 1, "todos": [{"id": "a", "text": "x", "completed": false, "created_at": "2024-01-01T00:00:00Z", "title": "x"}]}`, true},
		{"jsonl bad line", FormatJSONL, "{\"id\": \"a\", \"text\": \"x\", \"completed\": false, \"created_at\": \"2024-01-01T00:00:00Z\"}\n{\"id\": \"b\"}\n", true},
		{"jsonl garbage", FormatJSONL, "garbage\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "todos")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			_, err := New(path, tt.format).ReadAll(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantSchm && !errors.Is(err, ErrSchema) {
				t.Errorf("expected ErrSchema, got %v", err)
			}
		})
	}
}

func TestJSONLSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.jsonl")
	content := "\n{\"id\": \"a\", \"text\": \"x\", \"completed\": true, \"created_at\": \"2024-01-01T00:00:00Z\"}\n\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := New(path, "").ReadAll(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" || !got[0].Completed {
		t.Fatalf("got %+v", got)
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := New(filepath.Join(t.TempDir(), "todos.json"), "")
	if err := store.WriteAll(ctx, sampleTodos()); !errors.Is(err, context.Canceled) {
		t.Errorf("write error = %v", err)
	}
	if _, err := store.ReadAll(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("read error = %v", err)
	}
}

func TestStorageWithRepository(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")
	ctx := context.Background()

	repo := todo.New(todo.Options{Storage: New(path, "")})
	if err := repo.Load(ctx); err != nil {
		t.Fatal(err)
	}
	milk, err := repo.Add("buy milk", todo.AddOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Add("walk dog", todo.AddOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Toggle(milk.ID); err != nil {
		t.Fatal(err)
	}
	if err := repo.Close(ctx); err != nil {
		t.Fatal(err)
	}

	reopened := todo.New(todo.Options{Storage: New(path, "")})
	if err := reopened.Load(ctx); err != nil {
		t.Fatal(err)
	}
	defer reopened.Close(ctx)

	want := todo.Stats{Total: 2, Active: 1, Completed: 1, CompletionRate: 50}
	if got := reopened.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestCorruptFileLoadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")
	if err := os.WriteFile(path, []byte("{corrupt"), 0o644); err != nil {
		t.Fatal(err)
	}

	repo := todo.New(todo.Options{Storage: New(path, "")})
	defer repo.Close(context.Background())

	var persistErr *todo.PersistenceError
	if err := repo.Load(context.Background()); !errors.As(err, &persistErr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if got := repo.Stats().Total; got != 0 {
		t.Errorf("total = %d, want 0", got)
	}
}
