// Package web renders an HTML page for a todo repository.
package web

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	internalstrings "github.com/ImL1s/TodoListDemo-sub002/internal/strings"
	"github.com/ImL1s/TodoListDemo-sub002/todo"
)

// Options configures the web handler.
type Options struct {
	Repo   *todo.Repository
	Logger *log.Logger

	// BaseURL is the public URL of the API. Empty derives it from each
	// request.
	BaseURL string
}

// Handler serves the todo web page under /web/.
type Handler struct {
	repo      *todo.Repository
	logger    *log.Logger
	baseURL   string
	mux       *http.ServeMux
	templates *templateWrapper

	mu    sync.Mutex
	draft *formDraft
}

// NewHandler creates a new web handler.
func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	handler := &Handler{
		repo:      opts.Repo,
		logger:    logger,
		baseURL:   internalstrings.TrimTrailingSlash(opts.BaseURL),
		templates: newTemplateWrapper(),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/web/todos", handler.handleTodos)
	mux.HandleFunc("/web/todos/create", handler.handleCreate)
	mux.HandleFunc("/web/todos/update", handler.handleUpdate)
	mux.HandleFunc("/web/todos/toggle", handler.handleToggle)
	mux.HandleFunc("/web/todos/delete", handler.handleDelete)
	mux.HandleFunc("/web/todos/clear-completed", handler.handleClearCompleted)
	mux.HandleFunc("/web/todos/toggle-all", handler.handleToggleAll)
	mux.HandleFunc("/web/filter", handler.handleFilter)
	handler.mux = mux
	return handler
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type templateWrapper struct {
	tmpl *template.Template
}

func newTemplateWrapper() *templateWrapper {
	return &templateWrapper{tmpl: newTemplates()}
}

func (tw *templateWrapper) Render(w http.ResponseWriter, data pageData) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return tw.tmpl.ExecuteTemplate(w, "page", data)
}

type selectOption struct {
	Value string
	Label string
}

type filterLink struct {
	Filter todo.Filter
	Label  string
	Active bool
}

type pageData struct {
	APIURL          string
	Todos           []todo.Todo
	Filters         []filterLink
	Stats           todo.Stats
	SelectedTodo    *todo.Todo
	SelectedID      string
	CreateForm      todoFormValues
	EditForm        todoFormValues
	CreateError     string
	EditError       string
	Warning         string
	PriorityOptions []selectOption
}

type todoFormValues struct {
	Text     string
	Priority string
}

// formDraft carries a rejected form or a warning across the redirect
// that follows every POST.
type formDraft struct {
	mode    string
	id      string
	err     string
	warning string
	values  todoFormValues
}

func (h *Handler) handleTodos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	todos := h.repo.FilteredView()
	selectedID := trimmedQueryValue(r, "id")
	selected := selectTodo(todos, selectedID)
	if selected == nil {
		selectedID = ""
	}

	data := pageData{
		APIURL:          h.requestBaseURL(r),
		Todos:           todos,
		Filters:         filterLinks(h.repo.Filter()),
		Stats:           h.repo.Stats(),
		SelectedTodo:    selected,
		SelectedID:      selectedID,
		CreateForm:      todoFormValues{Priority: string(todo.PriorityMedium)},
		PriorityOptions: priorityOptions(),
	}
	if selected != nil {
		data.EditForm = todoFormValuesFromTodo(*selected)
	}
	if draft := h.consumeDraft(); draft != nil {
		data.Warning = draft.warning
		switch draft.mode {
		case "create":
			data.CreateError = draft.err
			data.CreateForm = draft.values
		case "update":
			if draft.id == selectedID {
				data.EditError = draft.err
				data.EditForm = draft.values
			}
		default:
			data.CreateError = draft.err
		}
	}

	if err := h.templates.Render(w, data); err != nil {
		h.logger.Error("render page", "err", err)
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.setDraft(formDraft{mode: "create", err: "invalid form input"})
		http.Redirect(w, r, "/web/todos", http.StatusSeeOther)
		return
	}
	values := todoFormValuesFromRequest(r)
	priority, err := parsePriority(values.Priority)
	if err != nil {
		h.setDraft(formDraft{mode: "create", err: err.Error(), values: values})
		http.Redirect(w, r, "/web/todos", http.StatusSeeOther)
		return
	}
	created, err := h.repo.Add(values.Text, todo.AddOptions{Priority: priority})
	if err != nil {
		h.setDraft(formDraft{mode: "create", err: err.Error(), values: values})
		http.Redirect(w, r, "/web/todos", http.StatusSeeOther)
		return
	}
	h.warnOnFlush(r.Context())
	http.Redirect(w, r, todoRedirectPath(created.ID), http.StatusSeeOther)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	todoID := trimmedQueryValue(r, "id")
	if err := r.ParseForm(); err != nil {
		h.setDraft(formDraft{mode: "update", id: todoID, err: "invalid form input"})
		http.Redirect(w, r, todoRedirectPath(todoID), http.StatusSeeOther)
		return
	}
	values := todoFormValuesFromRequest(r)
	if todoID == "" {
		h.setDraft(formDraft{err: "todo id is required"})
		http.Redirect(w, r, "/web/todos", http.StatusSeeOther)
		return
	}
	priority, err := parsePriority(values.Priority)
	if err == nil {
		_, err = h.repo.Edit(todoID, values.Text)
	}
	if err == nil && priority != "" {
		_, err = h.repo.SetPriority(todoID, priority)
	}
	if err != nil {
		h.setDraft(formDraft{mode: "update", id: todoID, err: err.Error(), values: values})
		http.Redirect(w, r, todoRedirectPath(todoID), http.StatusSeeOther)
		return
	}
	h.warnOnFlush(r.Context())
	http.Redirect(w, r, todoRedirectPath(todoID), http.StatusSeeOther)
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	todoID := trimmedQueryValue(r, "id")
	if _, err := h.repo.Toggle(todoID); err != nil {
		h.setDraft(formDraft{err: err.Error()})
		http.Redirect(w, r, "/web/todos", http.StatusSeeOther)
		return
	}
	h.warnOnFlush(r.Context())
	http.Redirect(w, r, backPath(r), http.StatusSeeOther)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	todoID := trimmedQueryValue(r, "id")
	if _, err := h.repo.Delete(todoID); err != nil {
		h.setDraft(formDraft{err: err.Error()})
		http.Redirect(w, r, "/web/todos", http.StatusSeeOther)
		return
	}
	h.warnOnFlush(r.Context())
	http.Redirect(w, r, "/web/todos", http.StatusSeeOther)
}

func (h *Handler) handleClearCompleted(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	if removed := h.repo.ClearCompleted(); removed > 0 {
		h.warnOnFlush(r.Context())
	}
	http.Redirect(w, r, "/web/todos", http.StatusSeeOther)
}

func (h *Handler) handleToggleAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	h.repo.ToggleAll()
	h.warnOnFlush(r.Context())
	http.Redirect(w, r, "/web/todos", http.StatusSeeOther)
}

func (h *Handler) handleFilter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		writeMethodNotAllowed(w, "GET, POST")
		return
	}
	filter, err := todo.ParseFilter(trimmedQueryValue(r, "value"))
	if err == nil {
		err = h.repo.SetFilter(filter)
	}
	if err != nil {
		h.setDraft(formDraft{err: err.Error()})
	}
	http.Redirect(w, r, "/web/todos", http.StatusSeeOther)
}

func (h *Handler) requestBaseURL(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// warnOnFlush waits for the write behind a mutation and keeps its
// failure for the next page render.
func (h *Handler) warnOnFlush(ctx context.Context) {
	if err := h.repo.Flush(ctx); err != nil {
		h.logger.Warn("change not saved", "err", err)
		h.setDraft(formDraft{warning: fmt.Sprintf("Changes are kept in memory but could not be saved: %v", err)})
	}
}

func (h *Handler) consumeDraft() *formDraft {
	h.mu.Lock()
	defer h.mu.Unlock()
	draft := h.draft
	h.draft = nil
	return draft
}

func (h *Handler) setDraft(draft formDraft) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.draft = &draft
}

func todoFormValuesFromTodo(item todo.Todo) todoFormValues {
	return todoFormValues{
		Text:     item.Text,
		Priority: string(item.Priority),
	}
}

func todoFormValuesFromRequest(r *http.Request) todoFormValues {
	return todoFormValues{
		Text:     r.FormValue("text"),
		Priority: trimmedFormValue(r, "priority"),
	}
}

// parsePriority accepts an empty value, meaning the repository default.
func parsePriority(value string) (todo.Priority, error) {
	if internalstrings.IsBlank(value) {
		return "", nil
	}
	return todo.ParsePriority(value)
}

func trimmedQueryValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func trimmedFormValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

func selectTodo(todos []todo.Todo, id string) *todo.Todo {
	if id == "" {
		return nil
	}
	for i := range todos {
		if todos[i].ID == id {
			return &todos[i]
		}
	}
	return nil
}

func filterLinks(current todo.Filter) []filterLink {
	labels := map[todo.Filter]string{
		todo.FilterAll:       "All",
		todo.FilterActive:    "Active",
		todo.FilterCompleted: "Completed",
	}
	links := make([]filterLink, 0, len(labels))
	for _, filter := range todo.ValidFilters() {
		links = append(links, filterLink{Filter: filter, Label: labels[filter], Active: filter == current})
	}
	return links
}

func priorityOptions() []selectOption {
	options := make([]selectOption, 0, len(todo.ValidPriorities()))
	for _, priority := range todo.ValidPriorities() {
		options = append(options, selectOption{Value: string(priority), Label: string(priority)})
	}
	return options
}

func todoRedirectPath(todoID string) string {
	if internalstrings.IsBlank(todoID) {
		return "/web/todos"
	}
	return "/web/todos?id=" + url.QueryEscape(todoID)
}

// backPath returns to the selected todo when the form names one.
func backPath(r *http.Request) string {
	return todoRedirectPath(trimmedQueryValue(r, "back"))
}

func writeMethodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}
