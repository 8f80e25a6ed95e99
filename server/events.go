package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ImL1s/TodoListDemo-sub002/todo"
)

// EventSnapshot is the first message on an event stream. It carries the
// whole collection, the current filter and stats.
const EventSnapshot todo.EventKind = "snapshot"

const (
	eventBuffer  = 64
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events := make(chan todo.Event, eventBuffer)
	unsubscribe := s.repo.Subscribe(func(event todo.Event) {
		select {
		case events <- event:
		default:
			s.logger.Warn("event stream is behind, dropping event", "kind", event.Kind)
		}
	})
	defer unsubscribe()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	snapshot := todo.Event{
		Kind:   EventSnapshot,
		Todos:  s.repo.All(),
		Filter: s.repo.Filter(),
		Stats:  s.repo.Stats(),
	}
	if err := writeEvent(conn, snapshot); err != nil {
		s.logger.Debug("event stream closed", "err", err)
		return
	}

	// Clients never send data; reading only surfaces close frames.
	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case event := <-events:
			if err := writeEvent(conn, event); err != nil {
				s.logger.Debug("event stream closed", "err", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		case <-disconnected:
			return
		case <-s.closing:
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeTimeout),
			)
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, event todo.Event) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(event)
}
