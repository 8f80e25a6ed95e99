package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/ImL1s/TodoListDemo-sub002/storage/filestore"
	"github.com/ImL1s/TodoListDemo-sub002/todo"
)

// maxImportBytes bounds the body of an import request.
const maxImportBytes = 16 << 20

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	query, err := s.listQuery(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{
		Todos:  s.repo.Query(query),
		Filter: query.Filter,
		Stats:  s.repo.Stats(),
	})
}

func (s *Server) listQuery(r *http.Request) (todo.Query, error) {
	values := r.URL.Query()
	query := todo.Query{
		Filter: s.repo.Filter(),
		Search: values.Get("q"),
	}
	if values.Has("filter") {
		filter, err := todo.ParseFilter(values.Get("filter"))
		if err != nil {
			return todo.Query{}, err
		}
		query.Filter = filter
	}
	sortKey, err := todo.ParseSortKey(values.Get("sort"))
	if err != nil {
		return todo.Query{}, err
	}
	query.Sort = sortKey
	switch strings.ToLower(strings.TrimSpace(values.Get("order"))) {
	case "", "asc":
	case "desc":
		query.Descending = true
	default:
		return todo.Query{}, fmt.Errorf("invalid order %q", values.Get("order"))
	}
	return query, nil
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var request createRequest
	if err := decodeJSON(r, &request); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	var opts todo.AddOptions
	if request.Priority != "" {
		priority, err := todo.ParsePriority(request.Priority)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, err)
			return
		}
		opts.Priority = priority
	}
	created, err := s.repo.Add(request.Text, opts)
	if err != nil {
		s.writeRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, todoResponse{Todo: created, Warning: s.flushWarning(r.Context())})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := s.resolveID(r)
	if err != nil {
		s.writeRepoError(w, r, err)
		return
	}
	item, err := s.repo.Get(id)
	if err != nil {
		s.writeRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, todoResponse{Todo: item})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := todoID(r)
	var request updateRequest
	if err := decodeJSON(r, &request); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if request.empty() {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("no fields to update"))
		return
	}

	var priority todo.Priority
	if request.Priority != nil {
		var err error
		priority, err = todo.ParsePriority(*request.Priority)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, err)
			return
		}
	}

	if request.Text != nil {
		if err := todo.ValidateText(todo.NormalizeText(*request.Text)); err != nil {
			s.writeRepoError(w, r, err)
			return
		}
	}

	updated, err := s.repo.Get(id)
	if err != nil {
		s.writeRepoError(w, r, err)
		return
	}
	// Reopen before the text edit and complete after it.
	if request.Completed != nil && !*request.Completed {
		if updated, err = s.repo.SetCompleted(id, false); err != nil {
			s.writeRepoError(w, r, err)
			return
		}
	}
	if request.Text != nil {
		if updated, err = s.repo.Edit(id, *request.Text); err != nil {
			s.writeRepoError(w, r, err)
			return
		}
	}
	if request.Priority != nil {
		if updated, err = s.repo.SetPriority(id, priority); err != nil {
			s.writeRepoError(w, r, err)
			return
		}
	}
	if request.Completed != nil && *request.Completed {
		if updated, err = s.repo.SetCompleted(id, true); err != nil {
			s.writeRepoError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, todoResponse{Todo: updated, Warning: s.flushWarning(r.Context())})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var request moveRequest
	if err := decodeJSON(r, &request); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if request.Index == nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("index is required"))
		return
	}
	moved, err := s.repo.Move(todoID(r), *request.Index)
	if err != nil {
		s.writeRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, todoResponse{Todo: moved, Warning: s.flushWarning(r.Context())})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := s.repo.Delete(todoID(r)); err != nil {
		s.writeRepoError(w, r, err)
		return
	}
	if warning := s.flushWarning(r.Context()); warning != "" {
		w.Header().Set(WarningHeader, warning)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearCompleted(w http.ResponseWriter, r *http.Request) {
	removed := s.repo.ClearCompleted()
	writeJSON(w, http.StatusOK, clearCompletedResponse{Removed: removed, Warning: s.flushWarning(r.Context())})
}

func (s *Server) handleToggleAll(w http.ResponseWriter, r *http.Request) {
	completed := s.repo.ToggleAll()
	writeJSON(w, http.StatusOK, toggleAllResponse{Completed: completed, Warning: s.flushWarning(r.Context())})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.repo.Stats())
}

func (s *Server) handleGetFilter(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, filterResponse{Filter: s.repo.Filter()})
}

func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	var request filterRequest
	if err := decodeJSON(r, &request); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	filter, err := todo.ParseFilter(request.Filter)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := s.repo.SetFilter(filter); err != nil {
		s.writeRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, filterResponse{Filter: s.repo.Filter()})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := transferFormat(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	data, err := filestore.Marshal(s.repo.All(), format)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", contentTypeFor(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	format, err := transferFormat(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("read request: %w", err))
		return
	}
	todos, err := filestore.Unmarshal(data, format)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	result, err := s.repo.Import(todos, todo.ImportMode(r.URL.Query().Get("mode")))
	if err != nil {
		s.writeRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{ImportResult: result, Warning: s.flushWarning(r.Context())})
}

func transferFormat(r *http.Request) (filestore.Format, error) {
	switch format := filestore.Format(strings.ToLower(r.URL.Query().Get("format"))); format {
	case "":
		return filestore.FormatJSON, nil
	case filestore.FormatJSON, filestore.FormatJSONL:
		return format, nil
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
}

func contentTypeFor(format filestore.Format) string {
	if format == filestore.FormatJSONL {
		return "application/x-ndjson"
	}
	return "application/json"
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// resolveID expands a unique ID prefix. Only reads accept prefixes.
func (s *Server) resolveID(r *http.Request) (string, error) {
	return s.repo.Resolve(todoID(r))
}

// todoID is the exact ID from the route. Mutations use it as given.
func todoID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

// flushWarning waits for queued writes and describes a failure, if any.
// The mutation itself already succeeded in memory.
func (s *Server) flushWarning(ctx context.Context) string {
	err := s.repo.Flush(ctx)
	if err == nil {
		return ""
	}
	return err.Error()
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, todo.ErrCompletedTodoLocked):
		return http.StatusConflict
	case errors.Is(err, todo.ErrAmbiguousTodoIDPrefix):
		return http.StatusBadRequest
	case todo.IsValidation(err):
		return http.StatusBadRequest
	case todo.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	if decoder.More() {
		return fmt.Errorf("unexpected extra JSON data")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeRepoError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeError(w, r, statusForError(err), err)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
