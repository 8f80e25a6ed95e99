package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ImL1s/TodoListDemo-sub002/storage/filestore"
	"github.com/ImL1s/TodoListDemo-sub002/todo"
)

// Client calls a todo server.
type Client struct {
	baseURL string
	client  *http.Client

	mu      sync.Mutex
	warning string
}

// NewClient creates a client for the given address or URL.
func NewClient(addr string) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(addr), "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return &Client{baseURL: baseURL, client: &http.Client{}}
}

// BaseURL returns the server URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Error is a failure reported by the server. It unwraps to the matching
// todo error so callers can use todo.IsValidation and todo.IsNotFound.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap maps the HTTP status back onto the todo error taxonomy.
func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return &todo.ValidationError{Err: errors.New(e.Message)}
	case http.StatusConflict:
		return &todo.ValidationError{Field: "text", Err: todo.ErrCompletedTodoLocked}
	case http.StatusNotFound:
		return todo.ErrTodoNotFound
	}
	return nil
}

// UpdateOptions selects the fields an Update changes. Nil fields are kept.
type UpdateOptions struct {
	Completed *bool
	Text      *string
	Priority  *todo.Priority
}

// ListResult is a server-side query result.
type ListResult struct {
	Todos  []todo.Todo `json:"todos"`
	Filter todo.Filter `json:"filter"`
	Stats  todo.Stats  `json:"stats"`
}

// List runs q on the server. An empty q.Filter uses the server's current
// filter.
func (c *Client) List(ctx context.Context, q todo.Query) (ListResult, error) {
	values := url.Values{}
	if q.Filter != "" {
		values.Set("filter", string(q.Filter))
	}
	if q.Search != "" {
		values.Set("q", q.Search)
	}
	if q.Sort != todo.SortNone {
		values.Set("sort", string(q.Sort))
	}
	if q.Descending {
		values.Set("order", "desc")
	}
	path := "/todos"
	if len(values) > 0 {
		path += "?" + values.Encode()
	}
	var response ListResult
	if _, err := c.do(ctx, http.MethodGet, path, nil, &response); err != nil {
		return ListResult{}, err
	}
	return response, nil
}

// Get returns the todo matching id or a unique ID prefix.
func (c *Client) Get(ctx context.Context, id string) (todo.Todo, error) {
	var response todoResponse
	if _, err := c.do(ctx, http.MethodGet, todoPath(id), nil, &response); err != nil {
		return todo.Todo{}, err
	}
	return response.Todo, nil
}

// Add creates a todo. An empty priority uses the server default.
func (c *Client) Add(ctx context.Context, text string, priority todo.Priority) (todo.Todo, error) {
	var response todoResponse
	request := createRequest{Text: text, Priority: string(priority)}
	if _, err := c.do(ctx, http.MethodPost, "/todos", request, &response); err != nil {
		return todo.Todo{}, err
	}
	c.recordWarning(response.Warning)
	return response.Todo, nil
}

// Update changes the fields set in opts. id must be a full ID.
func (c *Client) Update(ctx context.Context, id string, opts UpdateOptions) (todo.Todo, error) {
	request := updateRequest{Completed: opts.Completed, Text: opts.Text}
	if opts.Priority != nil {
		priority := string(*opts.Priority)
		request.Priority = &priority
	}
	var response todoResponse
	if _, err := c.do(ctx, http.MethodPatch, todoPath(id), request, &response); err != nil {
		return todo.Todo{}, err
	}
	c.recordWarning(response.Warning)
	return response.Todo, nil
}

// Toggle flips the completion state of the todo matching id or a unique
// ID prefix.
func (c *Client) Toggle(ctx context.Context, id string) (todo.Todo, error) {
	current, err := c.Get(ctx, id)
	if err != nil {
		return todo.Todo{}, err
	}
	completed := !current.Completed
	return c.Update(ctx, current.ID, UpdateOptions{Completed: &completed})
}

// Delete removes the todo with the full ID id.
func (c *Client) Delete(ctx context.Context, id string) error {
	header, err := c.do(ctx, http.MethodDelete, todoPath(id), nil, nil)
	if err != nil {
		return err
	}
	c.recordWarning(header.Get(WarningHeader))
	return nil
}

// Move places the todo with the full ID id at index in the collection.
func (c *Client) Move(ctx context.Context, id string, index int) (todo.Todo, error) {
	var response todoResponse
	if _, err := c.do(ctx, http.MethodPost, todoPath(id)+"/move", moveRequest{Index: &index}, &response); err != nil {
		return todo.Todo{}, err
	}
	c.recordWarning(response.Warning)
	return response.Todo, nil
}

// Export returns the whole collection in order.
func (c *Client) Export(ctx context.Context) ([]todo.Todo, error) {
	data, err := c.doRaw(ctx, http.MethodGet, "/export", nil)
	if err != nil {
		return nil, err
	}
	return filestore.Unmarshal(data, filestore.FormatJSON)
}

// Import sends todos to the server. Empty mode replaces the collection.
func (c *Client) Import(ctx context.Context, todos []todo.Todo, mode todo.ImportMode) (todo.ImportResult, error) {
	data, err := filestore.Marshal(todos, filestore.FormatJSON)
	if err != nil {
		return todo.ImportResult{}, err
	}
	path := "/import"
	if mode != "" {
		path += "?" + url.Values{"mode": {string(mode)}}.Encode()
	}
	body, err := c.doRaw(ctx, http.MethodPost, path, data)
	if err != nil {
		return todo.ImportResult{}, err
	}
	var response importResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return todo.ImportResult{}, fmt.Errorf("decode response: %w", err)
	}
	c.recordWarning(response.Warning)
	return response.ImportResult, nil
}

// ClearCompleted removes completed todos and returns how many were removed.
func (c *Client) ClearCompleted(ctx context.Context) (int, error) {
	var response clearCompletedResponse
	if _, err := c.do(ctx, http.MethodPost, "/todos/clear-completed", nil, &response); err != nil {
		return 0, err
	}
	c.recordWarning(response.Warning)
	return response.Removed, nil
}

// ToggleAll completes or reopens every todo and returns the applied state.
func (c *Client) ToggleAll(ctx context.Context) (bool, error) {
	var response toggleAllResponse
	if _, err := c.do(ctx, http.MethodPost, "/todos/toggle-all", nil, &response); err != nil {
		return false, err
	}
	c.recordWarning(response.Warning)
	return response.Completed, nil
}

// Stats returns collection statistics.
func (c *Client) Stats(ctx context.Context) (todo.Stats, error) {
	var stats todo.Stats
	if _, err := c.do(ctx, http.MethodGet, "/stats", nil, &stats); err != nil {
		return todo.Stats{}, err
	}
	return stats, nil
}

// Filter returns the server's current view filter.
func (c *Client) Filter(ctx context.Context) (todo.Filter, error) {
	var response filterResponse
	if _, err := c.do(ctx, http.MethodGet, "/filter", nil, &response); err != nil {
		return "", err
	}
	return response.Filter, nil
}

// SetFilter changes the server's current view filter.
func (c *Client) SetFilter(ctx context.Context, filter todo.Filter) (todo.Filter, error) {
	var response filterResponse
	if _, err := c.do(ctx, http.MethodPut, "/filter", filterRequest{Filter: string(filter)}, &response); err != nil {
		return "", err
	}
	return response.Filter, nil
}

// Health checks that the server is reachable.
func (c *Client) Health(ctx context.Context) error {
	var response healthResponse
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil, &response)
	return err
}

// Flush returns the persistence warning reported by the most recent
// mutation as a *todo.PersistenceError, and clears it.
func (c *Client) Flush(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.warning == "" {
		return nil
	}
	err := &todo.PersistenceError{Op: "write", Err: errors.New(c.warning)}
	c.warning = ""
	return err
}

func (c *Client) recordWarning(warning string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warning = warning
}

// Events streams repository events. The first event is an EventSnapshot.
// The error channel receives nil when ctx is canceled.
func (c *Client) Events(ctx context.Context) (<-chan todo.Event, <-chan error) {
	events := make(chan todo.Event, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(events)
		wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/events"
		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
		if err != nil {
			if resp != nil {
				resp.Body.Close()
			}
			errCh <- fmt.Errorf("connect event stream: %w", err)
			return
		}
		defer conn.Close()

		stop := context.AfterFunc(ctx, func() {
			_ = conn.Close()
		})
		defer stop()

		for {
			var event todo.Event
			if err := conn.ReadJSON(&event); err != nil {
				if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					errCh <- nil
					return
				}
				errCh <- err
				return
			}
			if event.Warning != "" {
				event.Err = errors.New(event.Warning)
			}
			select {
			case events <- event:
			case <-ctx.Done():
				errCh <- nil
				return
			}
		}
	}()

	return events, errCh
}

func (c *Client) do(ctx context.Context, method, path string, payload any, dest any) (http.Header, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readErrorResponse(resp)
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return resp.Header, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return resp.Header, nil
}

// doRaw sends a JSON body as is and returns the response body unparsed.
func (c *Client) doRaw(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readErrorResponse(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

func readErrorResponse(resp *http.Response) error {
	var payload errorResponse
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(&payload); err == nil && payload.Error != "" {
		return &Error{Status: resp.StatusCode, Message: payload.Error}
	}
	return &Error{Status: resp.StatusCode, Message: fmt.Sprintf("server error: %s", resp.Status)}
}

func todoPath(id string) string {
	return "/todos/" + url.PathEscape(strings.TrimSpace(id))
}
