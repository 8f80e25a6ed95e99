// Package filestore persists todos to a single JSON or JSONL file.
//
// Every read and write holds an exclusive flock on a sibling lock file,
// so several processes can share one data file. Writes go to a temporary
// file that is renamed over the data file.
package filestore

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/ImL1s/TodoListDemo-sub002/todo"
)

// Format selects the on-disk encoding.
type Format string

const (
	// FormatJSON stores an indented document with a schema version.
	FormatJSON Format = "json"

	// FormatJSONL stores one todo per line.
	FormatJSONL Format = "jsonl"
)

// SchemaVersion is written into every JSON document.
const SchemaVersion = 1

const maxJSONLineBytes = 1024 * 1024

type document struct {
	SchemaVersion int         `json:"schema_version"`
	Todos         []todo.Todo `json:"todos"`
}

// Store reads and writes one data file.
type Store struct {
	path   string
	format Format
	mu     sync.Mutex
}

// New returns a store for path. An empty format is chosen with
// FormatFor.
func New(path string, format Format) *Store {
	if format == "" {
		format = FormatFor(path)
	}
	return &Store{path: path, format: format}
}

// FormatFor picks the format from a file extension: ".jsonl" selects
// JSONL, anything else JSON.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return FormatJSONL
	}
	return FormatJSON
}

// Path returns the data file path.
func (s *Store) Path() string {
	return s.path
}

// Format returns the encoding used by the store.
func (s *Store) Format() Format {
	return s.format
}

func (s *Store) lockPath() string {
	return s.path + ".lock"
}

// ReadAll implements todo.Storage. It returns nil when the data file does
// not exist.
func (s *Store) ReadAll(ctx context.Context) ([]todo.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var todos []todo.Todo
	err := s.withFileLock(func() error {
		data, err := os.ReadFile(s.path)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read todo file: %w", err)
		}

		todos, err = Unmarshal(data, s.format)
		if err != nil {
			return fmt.Errorf("%s: %w", s.path, err)
		}
		return nil
	})
	return todos, err
}

// WriteAll implements todo.Storage. The file is left untouched when its
// content would not change.
func (s *Store) WriteAll(ctx context.Context, todos []todo.Todo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Marshal(todos, s.format)
	if err != nil {
		return err
	}

	return s.withFileLock(func() error {
		if existing, err := os.ReadFile(s.path); err == nil {
			if bytes.Equal(existing, data) {
				return nil
			}
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("read todo file: %w", err)
		}
		return WriteFileAtomic(s.path, data)
	})
}

// Marshal encodes todos the way a store of the given format writes them.
// Exports use the same encoding.
func Marshal(todos []todo.Todo, format Format) ([]byte, error) {
	if todos == nil {
		todos = []todo.Todo{}
	}

	if format == FormatJSONL {
		var buf bytes.Buffer
		encoder := json.NewEncoder(&buf)
		for i, item := range todos {
			if err := encoder.Encode(item); err != nil {
				return nil, fmt.Errorf("encode todo %d: %w", i, err)
			}
		}
		return buf.Bytes(), nil
	}

	data, err := json.MarshalIndent(document{SchemaVersion: SchemaVersion, Todos: todos}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal todos: %w", err)
	}
	return append(data, '\n'), nil
}

// Unmarshal decodes and schema-checks data written by Marshal.
func Unmarshal(data []byte, format Format) ([]todo.Todo, error) {
	if format == FormatJSONL {
		return decodeJSONL(data)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty todo file")
	}
	if err := validateDocument(data); err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal todos: %w", err)
	}
	if doc.Todos == nil {
		doc.Todos = []todo.Todo{}
	}
	return doc.Todos, nil
}

func decodeJSONL(data []byte) ([]todo.Todo, error) {
	todos := []todo.Todo{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxJSONLineBytes)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := validateLine(line, lineNum); err != nil {
			return nil, err
		}

		var item todo.Todo
		if err := json.Unmarshal(line, &item); err != nil {
			return nil, fmt.Errorf("parse line %d: %w", lineNum, err)
		}
		todos = append(todos, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return todos, nil
}

// withFileLock runs fn while holding the in-process mutex and an
// exclusive flock on the lock file.
func (s *Store) withFileLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	f, err := os.OpenFile(s.lockPath(), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	return fn()
}

// WriteFileAtomic replaces path with data through a temporary file in the
// same directory.
func WriteFileAtomic(path string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmpFile.Name()
	_, err = tmpFile.Write(data)
	if err1 := tmpFile.Sync(); err1 != nil && err == nil {
		err = err1
	}
	if err1 := tmpFile.Close(); err1 != nil && err == nil {
		err = err1
	}
	if err != nil {
		os.Remove(name)
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
