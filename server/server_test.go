package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ImL1s/TodoListDemo-sub002/storage/memstore"
	"github.com/ImL1s/TodoListDemo-sub002/todo"
)

func newTestServer(t *testing.T, opts todo.Options) (*todo.Repository, *httptest.Server, *Client) {
	t.Helper()

	if opts.Storage == nil {
		opts.Storage = memstore.New()
	}
	if opts.IDs == nil {
		opts.IDs = &todo.CounterIDs{}
	}
	repo := todo.New(opts)
	if err := repo.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(func() {
		repo.Close(context.Background())
	})

	srv, err := New(Options{Repo: repo})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return repo, ts, NewClient(ts.URL)
}

func TestNewRequiresRepository(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error without repository")
	}
}

func TestCreateAndList(t *testing.T) {
	_, _, client := newTestServer(t, todo.Options{})
	ctx := context.Background()

	created, err := client.Add(ctx, "  buy milk ", todo.PriorityHigh)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if created.Text != "buy milk" || created.Priority != todo.PriorityHigh || created.Completed {
		t.Fatalf("unexpected todo: %+v", created)
	}
	if _, err := client.Add(ctx, "walk dog", ""); err != nil {
		t.Fatalf("add: %v", err)
	}

	result, err := client.List(ctx, todo.Query{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Todos) != 2 || result.Todos[0].Text != "buy milk" || result.Todos[1].Text != "walk dog" {
		t.Fatalf("unexpected todos: %+v", result.Todos)
	}
	if result.Todos[1].Priority != todo.PriorityMedium {
		t.Errorf("expected default priority, got %q", result.Todos[1].Priority)
	}
	if result.Filter != todo.FilterAll {
		t.Errorf("expected filter all, got %q", result.Filter)
	}
	if result.Stats != (todo.Stats{Total: 2, Active: 2}) {
		t.Errorf("unexpected stats: %+v", result.Stats)
	}
}

func TestCreateStatusCodes(t *testing.T) {
	_, ts, _ := newTestServer(t, todo.Options{})

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"created", `{"text":"ok"}`, http.StatusCreated},
		{"blank text", `{"text":"   "}`, http.StatusBadRequest},
		{"too long", `{"text":"` + strings.Repeat("x", todo.MaxTextLength+1) + `"}`, http.StatusBadRequest},
		{"bad priority", `{"text":"ok","priority":"urgent"}`, http.StatusBadRequest},
		{"unknown field", `{"title":"ok"}`, http.StatusBadRequest},
		{"trailing data", `{"text":"ok"} {}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/todos", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("post: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				body, _ := io.ReadAll(resp.Body)
				t.Fatalf("expected %d, got %d: %s", tt.status, resp.StatusCode, body)
			}
			if resp.Header.Get("Content-Type") != "application/json" {
				t.Errorf("expected JSON response, got %q", resp.Header.Get("Content-Type"))
			}
		})
	}
}

func TestClientErrorsMapToTodoErrors(t *testing.T) {
	_, _, client := newTestServer(t, todo.Options{})
	ctx := context.Background()

	_, err := client.Add(ctx, "", "")
	if !todo.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var serverErr *Error
	if !errors.As(err, &serverErr) || serverErr.Status != http.StatusBadRequest {
		t.Fatalf("expected server error with status 400, got %v", err)
	}

	_, err = client.Get(ctx, "missing")
	if !todo.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := client.Delete(ctx, "missing"); !todo.IsNotFound(err) {
		t.Fatalf("expected not found on delete, got %v", err)
	}
}

func TestUpdateTodo(t *testing.T) {
	_, _, client := newTestServer(t, todo.Options{})
	ctx := context.Background()

	created, err := client.Add(ctx, "draft", "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	text := "final"
	priority := todo.PriorityLow
	completed := true
	updated, err := client.Update(ctx, created.ID, UpdateOptions{Text: &text, Priority: &priority, Completed: &completed})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Text != "final" || updated.Priority != todo.PriorityLow || !updated.Completed || updated.CompletedAt == nil {
		t.Fatalf("unexpected todo: %+v", updated)
	}

	toggled, err := client.Toggle(ctx, created.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if toggled.Completed || toggled.CompletedAt != nil {
		t.Fatalf("expected todo reopened, got %+v", toggled)
	}

	if _, err := client.Update(ctx, created.ID, UpdateOptions{}); !todo.IsValidation(err) {
		t.Fatalf("expected validation error for empty update, got %v", err)
	}
}

func TestUpdateLockedTodoReturnsConflict(t *testing.T) {
	repo, ts, _ := newTestServer(t, todo.Options{EditPolicy: todo.EditForbidCompleted})

	item, err := repo.Add("done already", todo.AddOptions{})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := repo.Toggle(item.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	req, err := http.NewRequest(http.MethodPatch, ts.URL+"/todos/"+item.ID, strings.NewReader(`{"text":"changed"}`))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	got, err := repo.Get(item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Text != "done already" {
		t.Errorf("locked todo changed to %q", got.Text)
	}
}

func TestGetResolvesPrefix(t *testing.T) {
	repo, _, client := newTestServer(t, todo.Options{IDs: todo.HashIDs{}})

	item, err := repo.Add("find me", todo.AddOptions{})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := client.Get(context.Background(), strings.ToUpper(item.ID[:4]))
	if err != nil {
		t.Fatalf("get by prefix: %v", err)
	}
	if got.ID != item.ID {
		t.Fatalf("expected %s, got %s", item.ID, got.ID)
	}
}

func TestDeleteReturnsNoContent(t *testing.T) {
	repo, ts, _ := newTestServer(t, todo.Options{})

	item, err := repo.Add("remove me", todo.AddOptions{})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/todos/"+item.ID, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if stats := repo.Stats(); stats.Total != 0 {
		t.Fatalf("expected empty repository, got %+v", stats)
	}
}

func TestBulkOperations(t *testing.T) {
	repo, _, client := newTestServer(t, todo.Options{})
	ctx := context.Background()

	for _, text := range []string{"a", "b", "c"} {
		if _, err := repo.Add(text, todo.AddOptions{}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	completed, err := client.ToggleAll(ctx)
	if err != nil {
		t.Fatalf("toggle all: %v", err)
	}
	if !completed {
		t.Fatal("expected toggle all to complete everything")
	}
	stats, err := client.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats != (todo.Stats{Total: 3, Completed: 3, CompletionRate: 100}) {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	removed, err := client.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("clear completed: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removed, got %d", removed)
	}

	removed, err = client.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("clear completed again: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected nothing removed, got %d", removed)
	}

	completed, err = client.ToggleAll(ctx)
	if err != nil {
		t.Fatalf("toggle all on empty: %v", err)
	}
	if completed {
		t.Fatal("expected toggle all on empty list to report false")
	}
}

func TestFilterEndpoints(t *testing.T) {
	repo, ts, client := newTestServer(t, todo.Options{})
	ctx := context.Background()

	active, _ := repo.Add("active", todo.AddOptions{})
	done, _ := repo.Add("done", todo.AddOptions{})
	if _, err := repo.Toggle(done.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	filter, err := client.SetFilter(ctx, todo.FilterActive)
	if err != nil {
		t.Fatalf("set filter: %v", err)
	}
	if filter != todo.FilterActive || repo.Filter() != todo.FilterActive {
		t.Fatalf("expected active filter, got %q", filter)
	}

	result, err := client.List(ctx, todo.Query{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Todos) != 1 || result.Todos[0].ID != active.ID {
		t.Fatalf("expected only the active todo, got %+v", result.Todos)
	}
	if result.Stats.Total != 2 {
		t.Errorf("stats should cover the whole collection, got %+v", result.Stats)
	}

	result, err = client.List(ctx, todo.Query{Filter: todo.FilterCompleted})
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	if len(result.Todos) != 1 || result.Todos[0].ID != done.ID {
		t.Fatalf("expected only the completed todo, got %+v", result.Todos)
	}

	if _, err := client.SetFilter(ctx, "pending"); !todo.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	resp, err := http.Get(ts.URL + "/todos?filter=pending")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad filter, got %d", resp.StatusCode)
	}
}

func TestListSearchAndSort(t *testing.T) {
	repo, _, client := newTestServer(t, todo.Options{})

	for _, text := range []string{"buy milk", "Buy bread", "call mom"} {
		if _, err := repo.Add(text, todo.AddOptions{}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	result, err := client.List(context.Background(), todo.Query{Search: "buy", Sort: todo.SortText, Descending: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var got []string
	for _, item := range result.Todos {
		got = append(got, item.Text)
	}
	if strings.Join(got, ",") != "buy milk,Buy bread" {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestPersistenceFailureIsAWarning(t *testing.T) {
	store := memstore.New()
	repo, ts, client := newTestServer(t, todo.Options{Storage: store})
	store.FailWrites(errors.New("disk full"))

	resp, err := http.Post(ts.URL+"/todos", "application/json", strings.NewReader(`{"text":"kept in memory"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var payload todoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(payload.Warning, "disk full") {
		t.Fatalf("expected warning, got %q", payload.Warning)
	}
	if repo.Stats().Total != 1 {
		t.Fatal("expected todo to stay in memory")
	}

	if _, err := client.ToggleAll(context.Background()); err != nil {
		t.Fatalf("toggle all: %v", err)
	}
	var persistErr *todo.PersistenceError
	if err := client.Flush(context.Background()); !errors.As(err, &persistErr) {
		t.Fatalf("expected persistence warning from client, got %v", err)
	}
	if err := client.Flush(context.Background()); err != nil {
		t.Fatalf("expected warning to be cleared, got %v", err)
	}

	store.FailWrites(nil)
	if _, err := client.Add(context.Background(), "recovered", ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := client.Flush(context.Background()); err != nil {
		t.Fatalf("expected no warning after recovery, got %v", err)
	}
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	_, ts, client := newTestServer(t, todo.Options{})

	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}

	resp, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var payload errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.Error == "" {
		t.Fatalf("expected JSON error body, got %v %+v", err, payload)
	}

	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/stats", bytes.NewReader(nil))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestRecoverHandlerReturnsJSONError(t *testing.T) {
	srv, err := New(Options{Repo: todo.New(todo.Options{})})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	handler := srv.recoverHandler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/todos", nil))

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", recorder.Code)
	}
	var payload errorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error != "internal server error" {
		t.Fatalf("unexpected error payload: %+v", payload)
	}
}

func TestEventsStream(t *testing.T) {
	repo, _, client := newTestServer(t, todo.Options{})
	if _, err := repo.Add("existing", todo.AddOptions{}); err != nil {
		t.Fatalf("add: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, errs := client.Events(ctx)

	snapshot := nextEvent(t, events, errs)
	if snapshot.Kind != EventSnapshot || len(snapshot.Todos) != 1 || snapshot.Stats.Total != 1 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}

	if _, err := client.Add(ctx, "fresh", ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	added := nextEvent(t, events, errs)
	if added.Kind != todo.EventAdded || len(added.Todos) != 1 || added.Todos[0].Text != "fresh" {
		t.Fatalf("unexpected event: %+v", added)
	}
	if added.Stats.Total != 2 {
		t.Errorf("expected stats after add, got %+v", added.Stats)
	}

	cancel()
	select {
	case err := <-errs:
		if err != nil {
			t.Fatalf("expected clean stop, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("event stream did not stop")
	}
}

func nextEvent(t *testing.T, events <-chan todo.Event, errs <-chan error) todo.Event {
	t.Helper()
	select {
	case event, ok := <-events:
		if !ok {
			t.Fatalf("event stream closed: %v", <-errs)
		}
		return event
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return todo.Event{}
}

func TestServeStopsWhenContextCanceled(t *testing.T) {
	repo := todo.New(todo.Options{})
	srv, err := New(Options{Repo: repo})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, "127.0.0.1:0")
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return")
	}
}

func TestMutationsRequireExactID(t *testing.T) {
	repo, ts, client := newTestServer(t, todo.Options{IDs: todo.HashIDs{}})

	item, err := repo.Add("buy milk", todo.AddOptions{})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	prefix := item.ID[:1]

	requests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodDelete, "/todos/" + prefix, ""},
		{http.MethodPatch, "/todos/" + prefix, `{"completed":true}`},
		{http.MethodPatch, "/todos/" + prefix, `{"text":"changed"}`},
		{http.MethodPost, "/todos/" + prefix + "/move", `{"index":0}`},
	}
	for _, tt := range requests {
		req, err := http.NewRequest(tt.method, ts.URL+tt.path, strings.NewReader(tt.body))
		if err != nil {
			t.Fatalf("new request: %v", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", tt.method, tt.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s %s %s = %d, want 404", tt.method, tt.path, tt.body, resp.StatusCode)
		}
	}

	all := repo.All()
	if len(all) != 1 || all[0].Text != "buy milk" || all[0].Completed {
		t.Fatalf("collection changed: %+v", all)
	}

	// The client resolves prefixes through GET before mutating.
	toggled, err := client.Toggle(context.Background(), prefix)
	if err != nil {
		t.Fatalf("toggle by prefix: %v", err)
	}
	if toggled.ID != item.ID || !toggled.Completed {
		t.Fatalf("unexpected toggle result: %+v", toggled)
	}
}

func TestUpdateReopensBeforeEditingLockedTodo(t *testing.T) {
	repo, _, client := newTestServer(t, todo.Options{EditPolicy: todo.EditForbidCompleted})
	ctx := context.Background()

	item, err := repo.Add("done already", todo.AddOptions{})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := repo.Toggle(item.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	blank, reopen := "  ", false
	if _, err := client.Update(ctx, item.ID, UpdateOptions{Text: &blank, Completed: &reopen}); !todo.IsValidation(err) {
		t.Fatalf("expected validation error for blank text, got %v", err)
	}
	if got, _ := repo.Get(item.ID); !got.Completed {
		t.Fatal("rejected update reopened the todo")
	}

	text := "redo it"
	updated, err := client.Update(ctx, item.ID, UpdateOptions{Text: &text, Completed: &reopen})
	if err != nil {
		t.Fatalf("reopen and edit: %v", err)
	}
	if updated.Text != "redo it" || updated.Completed {
		t.Fatalf("unexpected todo: %+v", updated)
	}

	text, complete := "redone", true
	updated, err = client.Update(ctx, item.ID, UpdateOptions{Text: &text, Completed: &complete})
	if err != nil {
		t.Fatalf("edit and complete: %v", err)
	}
	if updated.Text != "redone" || !updated.Completed {
		t.Fatalf("unexpected todo: %+v", updated)
	}
}

func TestMoveTodo(t *testing.T) {
	repo, ts, client := newTestServer(t, todo.Options{})
	ctx := context.Background()

	var ids []string
	for _, text := range []string{"a", "b", "c"} {
		item, err := repo.Add(text, todo.AddOptions{})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		ids = append(ids, item.ID)
	}

	moved, err := client.Move(ctx, ids[2], 0)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.ID != ids[2] {
		t.Fatalf("moved %s, want %s", moved.ID, ids[2])
	}
	list, err := client.List(ctx, todo.Query{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var order []string
	for _, item := range list.Todos {
		order = append(order, item.Text)
	}
	if strings.Join(order, ",") != "c,a,b" {
		t.Fatalf("order = %v", order)
	}

	resp, err := http.Post(ts.URL+"/todos/"+ids[0]+"/move", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("move without index = %d, want 400", resp.StatusCode)
	}
}

func TestExportAndImport(t *testing.T) {
	repo, ts, client := newTestServer(t, todo.Options{})
	ctx := context.Background()

	for _, text := range []string{"a", "b"} {
		if _, err := repo.Add(text, todo.AddOptions{}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	exported, err := client.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(exported) != 2 || exported[0].Text != "a" || exported[1].Text != "b" {
		t.Fatalf("unexpected export: %+v", exported)
	}

	result, err := client.Import(ctx, exported, todo.ImportMerge)
	if err != nil {
		t.Fatalf("merge import: %v", err)
	}
	if result != (todo.ImportResult{Skipped: 2}) {
		t.Fatalf("merge result = %+v", result)
	}

	result, err = client.Import(ctx, exported[1:], "")
	if err != nil {
		t.Fatalf("replace import: %v", err)
	}
	if result != (todo.ImportResult{Added: 1, Removed: 2}) {
		t.Fatalf("replace result = %+v", result)
	}
	if all := repo.All(); len(all) != 1 || all[0].Text != "b" {
		t.Fatalf("collection after replace: %+v", all)
	}

	resp, err := http.Get(ts.URL + "/export?format=jsonl")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/x-ndjson" {
		t.Errorf("content type = %q", ct)
	}
	if lines := strings.Count(string(body), "\n"); lines != 1 {
		t.Errorf("jsonl export has %d lines:\n%s", lines, body)
	}

	for _, body := range []string{`{"todos": []}`, `not json`} {
		resp, err := http.Post(ts.URL+"/import", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("import %q = %d, want 400", body, resp.StatusCode)
		}
	}
	resp, err = http.Post(ts.URL+"/import?mode=append", "application/json", strings.NewReader(`{"schema_version": 1, "todos": []}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown mode = %d, want 400", resp.StatusCode)
	}
	if all := repo.All(); len(all) != 1 {
		t.Fatalf("rejected imports changed the collection: %+v", all)
	}
}
