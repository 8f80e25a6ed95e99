package tui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ImL1s/TodoListDemo-sub002/internal/service"
	"github.com/ImL1s/TodoListDemo-sub002/storage/memstore"
	"github.com/ImL1s/TodoListDemo-sub002/todo"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/creack/pty"
	"github.com/muesli/termenv"
)

const (
	testWidth  = 80
	testHeight = 20
)

func useASCIIRenderer(t *testing.T) {
	t.Helper()
	previous := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.Ascii)
	t.Cleanup(func() {
		lipgloss.SetColorProfile(previous)
	})
}

func newTestModel(t *testing.T, store *memstore.Store, texts ...string) (model, *todo.Repository) {
	t.Helper()
	useASCIIRenderer(t)
	if store == nil {
		store = memstore.New()
	}
	repo := todo.New(todo.Options{Storage: store, IDs: &todo.CounterIDs{}})
	if err := repo.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, text := range texts {
		if _, err := repo.Add(text, todo.AddOptions{}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	svc := service.NewLocal(repo, nil)
	t.Cleanup(func() {
		svc.Close(context.Background())
	})

	m := newModel(context.Background(), svc)
	m = send(t, m, tea.WindowSizeMsg{Width: testWidth, Height: testHeight})
	m = drain(t, m, m.Init())
	return m, repo
}

// send delivers msg and runs the commands it produces until none are left.
func send(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, cmd := m.Update(msg)
	return drain(t, next.(model), cmd)
}

func drain(t *testing.T, m model, cmd tea.Cmd) model {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case nil, tea.QuitMsg:
		return m
	case tea.BatchMsg:
		for _, next := range msg {
			m = drain(t, m, next)
		}
		return m
	default:
		return send(t, m, msg)
	}
}

func keys(value string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(value)}
}

func TestViewListsTodosAndStats(t *testing.T) {
	m, _ := newTestModel(t, nil, "Buy milk", "Walk the dog")

	view := m.View()
	for _, want := range []string{"Todos", "All", "Active", "Completed", "[ ] Buy milk  (medium)", "[ ] Walk the dog", "2 active · 0 completed · 0% done"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q:\n%s", want, view)
		}
	}
}

func TestViewEmptyList(t *testing.T) {
	m, _ := newTestModel(t, nil)

	if view := m.View(); !strings.Contains(view, "Nothing to show") {
		t.Fatalf("expected empty hint:\n%s", view)
	}
}

func TestAddTodo(t *testing.T) {
	m, repo := newTestModel(t, nil)

	m = send(t, m, keys("a"))
	if m.mode != inputAdd {
		t.Fatal("expected add mode")
	}
	m = send(t, m, keys("Buy milk"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.mode != inputNone {
		t.Fatal("expected input to close after adding")
	}
	all := repo.All()
	if len(all) != 1 || all[0].Text != "Buy milk" {
		t.Fatalf("unexpected todos: %+v", all)
	}
	if m.selectedID != all[0].ID {
		t.Fatalf("expected new todo selected, got %q", m.selectedID)
	}
	if !strings.Contains(m.status, "Added") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestAddBlankTodoKeepsInputOpen(t *testing.T) {
	m, repo := newTestModel(t, nil)

	m = send(t, m, keys("a"))
	m = send(t, m, keys("   "))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.mode != inputAdd {
		t.Fatal("expected input to stay open")
	}
	if m.statusLevel != statusError || !strings.Contains(m.status, todo.ErrEmptyText.Error()) {
		t.Fatalf("expected validation error, got %q", m.status)
	}
	if repo.Stats().Total != 0 {
		t.Fatal("expected nothing added")
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != inputNone {
		t.Fatal("expected esc to cancel input")
	}
}

func TestToggleAndEditSelectedTodo(t *testing.T) {
	m, repo := newTestModel(t, nil, "first", "second")

	m = send(t, m, keys("j"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeySpace})

	all := repo.All()
	if all[0].Completed || !all[1].Completed {
		t.Fatalf("expected second todo completed, got %+v", all)
	}

	m = send(t, m, keys("e"))
	if m.input.Value() != "second" {
		t.Fatalf("expected edit input prefilled, got %q", m.input.Value())
	}
	m = send(t, m, keys("!"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if got, _ := repo.Get(all[1].ID); got.Text != "second!" {
		t.Fatalf("expected edited text, got %q", got.Text)
	}
	if !strings.Contains(m.View(), "[x] second!") {
		t.Fatalf("expected completed todo in view:\n%s", m.View())
	}
}

func TestCyclePriority(t *testing.T) {
	m, repo := newTestModel(t, nil, "task")

	send(t, m, keys("p"))

	if got := repo.All()[0].Priority; got != todo.PriorityHigh {
		t.Fatalf("expected high priority after medium, got %s", got)
	}
}

func TestReorderSelectedTodo(t *testing.T) {
	m, repo := newTestModel(t, nil, "a", "b", "c")

	m = send(t, m, keys("J"))
	if got := todoTexts(repo.All()); got != "b,a,c" {
		t.Fatalf("order after J = %s", got)
	}
	if item, _ := m.currentItem(); item.todo.Text != "a" {
		t.Fatalf("expected moved todo to stay selected, got %q", item.todo.Text)
	}

	m = send(t, m, keys("K"))
	m = send(t, m, keys("K"))
	if got := todoTexts(repo.All()); got != "a,b,c" {
		t.Fatalf("order after K = %s", got)
	}

	// Hidden todos keep their places.
	m = send(t, m, keys("j"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m = send(t, m, keys("2"))
	m = send(t, m, keys("g"))
	m = send(t, m, keys("J"))
	if got := todoTexts(repo.All()); got != "b,c,a" {
		t.Fatalf("order after filtered J = %s", got)
	}
}

func todoTexts(todos []todo.Todo) string {
	texts := make([]string, len(todos))
	for i, item := range todos {
		texts[i] = item.Text
	}
	return strings.Join(texts, ",")
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	m, repo := newTestModel(t, nil, "keep", "drop")

	m = send(t, m, keys("j"))
	m = send(t, m, keys("d"))
	if m.modal.kind != modalDelete {
		t.Fatal("expected delete confirmation")
	}
	if !strings.Contains(m.View(), `Delete "drop"?`) {
		t.Fatalf("expected confirmation message:\n%s", m.View())
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if repo.Stats().Total != 2 {
		t.Fatal("expected cancel to be the default choice")
	}

	m = send(t, m, keys("d"))
	m = send(t, m, keys("y"))
	all := repo.All()
	if len(all) != 1 || all[0].Text != "keep" {
		t.Fatalf("unexpected todos after delete: %+v", all)
	}
	if m.selectedID != all[0].ID {
		t.Fatalf("expected selection to move to remaining todo, got %q", m.selectedID)
	}
}

func TestFilterAndBulkActions(t *testing.T) {
	m, repo := newTestModel(t, nil, "a", "b", "c")

	m = send(t, m, keys("A"))
	if stats := repo.Stats(); stats.Completed != 3 {
		t.Fatalf("expected all completed, got %+v", stats)
	}

	m = send(t, m, keys("f"))
	if m.filter != todo.FilterActive || repo.Filter() != todo.FilterActive {
		t.Fatalf("expected active filter, got %s", m.filter)
	}
	if len(m.list.Items()) != 0 {
		t.Fatalf("expected no active todos, got %d", len(m.list.Items()))
	}

	m = send(t, m, keys("3"))
	if len(m.list.Items()) != 3 {
		t.Fatalf("expected three completed todos, got %d", len(m.list.Items()))
	}

	m = send(t, m, keys("C"))
	if !strings.Contains(m.View(), "Remove 3 completed todos?") {
		t.Fatalf("expected clear confirmation:\n%s", m.View())
	}
	m = send(t, m, keys("y"))
	if repo.Stats().Total != 0 {
		t.Fatalf("expected completed todos cleared, got %+v", repo.Stats())
	}

	m = send(t, m, keys("C"))
	if m.modal.kind != modalNone || m.status != "No completed todos" {
		t.Fatalf("expected no confirmation for empty clear, got %q", m.status)
	}
}

func TestPersistenceFailureShowsWarning(t *testing.T) {
	store := memstore.New()
	m, repo := newTestModel(t, store, "saved")
	store.FailWrites(errors.New("disk full"))

	m = send(t, m, keys("x"))

	if !repo.All()[0].Completed {
		t.Fatal("expected change kept in memory")
	}
	if m.statusLevel != statusError || !strings.Contains(m.status, "disk full") {
		t.Fatalf("expected persistence warning, got %q", m.status)
	}
	if !strings.Contains(m.View(), "could not be saved") {
		t.Fatalf("expected warning in view:\n%s", m.View())
	}
}

func TestHelpModal(t *testing.T) {
	m, _ := newTestModel(t, nil)

	m = send(t, m, keys("?"))
	if !strings.Contains(m.View(), "clear completed") {
		t.Fatalf("expected help content:\n%s", m.View())
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.modal.kind != modalNone {
		t.Fatal("expected help closed")
	}
}

func TestRunInPseudoTerminal(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	defer ptmx.Close()
	defer tty.Close()
	if err := pty.Setsize(ptmx, &pty.Winsize{Rows: testHeight, Cols: testWidth}); err != nil {
		t.Skipf("pty resize: %v", err)
	}
	go io.Copy(io.Discard, ptmx)

	repo := todo.New(todo.Options{IDs: &todo.CounterIDs{}})
	if _, err := repo.Add("from pty", todo.AddOptions{}); err != nil {
		t.Fatalf("add: %v", err)
	}
	svc := service.NewLocal(repo, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, svc, tea.WithInput(tty), tea.WithOutput(tty))
	}()

	time.Sleep(200 * time.Millisecond)
	if _, err := ptmx.Write([]byte("q")); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if ctx.Err() != nil {
			t.Fatal("program did not quit before the deadline")
		}
	case <-time.After(15 * time.Second):
		t.Fatal("program did not exit")
	}
}
