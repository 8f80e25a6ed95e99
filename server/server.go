// Package server exposes a todo repository over HTTP.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/ImL1s/TodoListDemo-sub002/todo"
	"github.com/ImL1s/TodoListDemo-sub002/web"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	Repo   *todo.Repository
	Logger *log.Logger
}

// Server handles HTTP requests against a single repository.
type Server struct {
	repo     *todo.Repository
	logger   *log.Logger
	upgrader websocket.Upgrader

	closeOnce sync.Once
	closing   chan struct{}
}

// New creates a server for opts.Repo.
func New(opts Options) (*Server, error) {
	if opts.Repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{
		repo:   opts.Repo,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		closing: make(chan struct{}),
	}, nil
}

// Handler returns the HTTP handler for the todo API and web pages.
func (s *Server) Handler() http.Handler {
	return s.handler("")
}

func (s *Server) handler(baseURL string) http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		s.writeError(w, req, http.StatusNotFound, fmt.Errorf("no route for %s", req.URL.Path))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		s.writeError(w, req, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", req.Method))
	})

	r.HandleFunc("/todos", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/todos", s.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/todos/clear-completed", s.handleClearCompleted).Methods(http.MethodPost)
	r.HandleFunc("/todos/toggle-all", s.handleToggleAll).Methods(http.MethodPost)
	r.HandleFunc("/todos/{id}", s.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/todos/{id}", s.handleUpdate).Methods(http.MethodPatch)
	r.HandleFunc("/todos/{id}", s.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/todos/{id}/move", s.handleMove).Methods(http.MethodPost)
	r.HandleFunc("/export", s.handleExport).Methods(http.MethodGet)
	r.HandleFunc("/import", s.handleImport).Methods(http.MethodPost)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/filter", s.handleGetFilter).Methods(http.MethodGet)
	r.HandleFunc("/filter", s.handleSetFilter).Methods(http.MethodPut)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)

	webHandler := web.NewHandler(web.Options{Repo: s.repo, Logger: s.logger, BaseURL: baseURL})
	r.PathPrefix("/web/").Handler(webHandler)
	r.Handle("/web", http.RedirectHandler("/web/todos", http.StatusFound))
	r.Handle("/", http.RedirectHandler("/web/todos", http.StatusFound))

	return s.recoverHandler(r)
}

// Serve runs the server on addr until ctx is canceled or an interrupt
// arrives, then shuts down gracefully and flushes pending writes.
func (s *Server) Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.handler(BaseURL(addr)),
		ErrorLog:          s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	server.RegisterOnShutdown(s.closeStreams)

	listenErrs := make(chan error, 1)
	go func() {
		listenErrs <- server.ListenAndServe()
	}()
	s.logger.Info("listening", "addr", addr, "url", BaseURL(addr))

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	select {
	case err := <-listenErrs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server stopped", "err", err)
			return err
		}
		return nil
	case <-interrupts:
		s.logger.Info("interrupt received, shutting down")
	case <-ctx.Done():
		s.logger.Info("context canceled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdownErr := server.Shutdown(shutdownCtx)
	listenErr := <-listenErrs
	if errors.Is(listenErr, http.ErrServerClosed) {
		listenErr = nil
	}
	if err := s.repo.Flush(shutdownCtx); err != nil {
		s.logger.Warn("pending writes failed", "err", err)
	}
	return errors.Join(shutdownErr, listenErr)
}

func (s *Server) closeStreams() {
	s.closeOnce.Do(func() {
		close(s.closing)
	})
}

func (s *Server) recoverHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writer := &responseTracker{ResponseWriter: w}
		defer func() {
			if recovered := recover(); recovered != nil {
				s.logger.Error("panic handling request", "method", r.Method, "path", r.URL.Path, "panic", recovered, "stack", string(debug.Stack()))
				if writer.wroteHeader {
					return
				}
				writeJSON(writer, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(writer, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		s.logger.Debug("handled", "method", r.Method, "url", r.URL, "status", m.Code, "duration", m.Duration, "bytes", m.Written)
	})
}

type responseTracker struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *responseTracker) WriteHeader(status int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseTracker) Write(data []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(data)
}

func (w *responseTracker) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *responseTracker) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	w.wroteHeader = true
	return hijacker.Hijack()
}
