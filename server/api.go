package server

import "github.com/ImL1s/TodoListDemo-sub002/todo"

// WarningHeader carries a persistence warning on responses without a body.
const WarningHeader = "X-Todo-Warning"

type createRequest struct {
	Text     string `json:"text"`
	Priority string `json:"priority,omitempty"`
}

type updateRequest struct {
	Completed *bool   `json:"completed,omitempty"`
	Text      *string `json:"text,omitempty"`
	Priority  *string `json:"priority,omitempty"`
}

func (r updateRequest) empty() bool {
	return r.Completed == nil && r.Text == nil && r.Priority == nil
}

type moveRequest struct {
	Index *int `json:"index"`
}

type importResponse struct {
	todo.ImportResult
	Warning string `json:"warning,omitempty"`
}

type todoResponse struct {
	todo.Todo
	Warning string `json:"warning,omitempty"`
}

type listResponse struct {
	Todos  []todo.Todo `json:"todos"`
	Filter todo.Filter `json:"filter"`
	Stats  todo.Stats  `json:"stats"`
}

type clearCompletedResponse struct {
	Removed int    `json:"removed"`
	Warning string `json:"warning,omitempty"`
}

type toggleAllResponse struct {
	Completed bool   `json:"completed"`
	Warning   string `json:"warning,omitempty"`
}

type filterRequest struct {
	Filter string `json:"filter"`
}

type filterResponse struct {
	Filter todo.Filter `json:"filter"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}
