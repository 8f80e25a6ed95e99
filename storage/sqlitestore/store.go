// Package sqlitestore persists todos in a SQLite database.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ImL1s/TodoListDemo-sub002/todo"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS todos (
	position     INTEGER NOT NULL PRIMARY KEY,
	id           TEXT NOT NULL UNIQUE,
	text         TEXT NOT NULL,
	completed    INTEGER NOT NULL,
	priority     TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL,
	completed_at TEXT
);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT NOT NULL PRIMARY KEY,
	value TEXT NOT NULL
);
`

// writtenKey marks a database that has received at least one write.
const writtenKey = "written_at"

// corruptSuffix is appended to a database file that could not be
// initialized before a fresh one is created in its place.
const corruptSuffix = ".corrupt"

// Store is a todo.Storage backed by one SQLite file.
type Store struct {
	path string

	mu sync.Mutex
	db *sql.DB
	// initErr is set when the file at path is not a usable database.
	// ReadAll reports it and the next WriteAll moves the file aside.
	initErr error
}

// Open opens or creates the database at path. A file that is not a
// database still opens; its error surfaces from ReadAll.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	s := &Store{path: path, db: db}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		s.initErr = fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// reset renames the unusable file to path+corruptSuffix and creates an
// empty database in its place.
func (s *Store) reset(ctx context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	if err := os.Rename(s.path, s.path+corruptSuffix); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("move corrupt database aside: %w", err)
	}
	db, err := openDB(s.path)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return fmt.Errorf("create tables: %w", err)
	}
	s.db = db
	s.initErr = nil
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// ReadAll implements todo.Storage. It returns nil for a database that was
// never written.
func (s *Store) ReadAll(ctx context.Context) ([]todo.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initErr != nil {
		return nil, s.initErr
	}

	var writtenAt string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, writtenKey).Scan(&writtenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read meta: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, completed, priority, created_at, updated_at, completed_at
		FROM todos ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	defer rows.Close()

	todos := []todo.Todo{}
	for rows.Next() {
		var (
			item        todo.Todo
			priority    string
			createdAt   string
			updatedAt   string
			completedAt sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.Text, &item.Completed, &priority, &createdAt, &updatedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		item.Priority = todo.Priority(priority)
		if item.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("todo %s created_at: %w", item.ID, err)
		}
		if item.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("todo %s updated_at: %w", item.ID, err)
		}
		if completedAt.Valid {
			parsed, err := parseTime(completedAt.String)
			if err != nil {
				return nil, fmt.Errorf("todo %s completed_at: %w", item.ID, err)
			}
			item.CompletedAt = &parsed
		}
		todos = append(todos, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}
	return todos, nil
}

// WriteAll implements todo.Storage. The table is replaced in one
// transaction.
func (s *Store) WriteAll(ctx context.Context, todos []todo.Todo) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initErr != nil {
		if err := s.reset(ctx); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM todos`); err != nil {
		return fmt.Errorf("clear todos: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO todos (position, id, text, completed, priority, created_at, updated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, item := range todos {
		var completedAt sql.NullString
		if item.CompletedAt != nil {
			completedAt = sql.NullString{String: formatTime(*item.CompletedAt), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, i, item.ID, item.Text, item.Completed, string(item.Priority),
			formatTime(item.CreatedAt), formatTime(item.UpdatedAt), completedAt); err != nil {
			return fmt.Errorf("insert todo %s: %w", item.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`,
		writtenKey, formatTime(time.Now())); err != nil {
		return fmt.Errorf("update meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}
