package filestore

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	schemaBaseURL     = "https://todolist.local/schemas/"
	todoSchemaURL     = schemaBaseURL + "todo.json"
	documentSchemaURL = schemaBaseURL + "collection.json"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// ErrSchema is returned when stored data does not match the todo schema.
var ErrSchema = errors.New("stored todos do not match schema")

var (
	schemaOnce     sync.Once
	todoSchema     *jsonschema.Schema
	documentSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchemas() error {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true

		for _, name := range []string{"todo.json", "collection.json"} {
			data, err := schemaFS.ReadFile("schemas/" + name)
			if err != nil {
				schemaErr = fmt.Errorf("read schema %s: %w", name, err)
				return
			}
			if err := compiler.AddResource(schemaBaseURL+name, bytes.NewReader(data)); err != nil {
				schemaErr = fmt.Errorf("add schema %s: %w", name, err)
				return
			}
		}

		todoSchema, schemaErr = compiler.Compile(todoSchemaURL)
		if schemaErr != nil {
			return
		}
		documentSchema, schemaErr = compiler.Compile(documentSchemaURL)
	})
	return schemaErr
}

// validateDocument checks a JSON envelope before it is decoded.
func validateDocument(data []byte) error {
	if err := loadSchemas(); err != nil {
		return err
	}
	return validate(documentSchema, data, "")
}

// validateLine checks one JSONL record.
func validateLine(data []byte, lineNum int) error {
	if err := loadSchemas(); err != nil {
		return err
	}
	return validate(todoSchema, data, fmt.Sprintf("line %d", lineNum))
}

func validate(schema *jsonschema.Schema, data []byte, where string) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var instance any
	if err := decoder.Decode(&instance); err != nil {
		if where != "" {
			return fmt.Errorf("parse %s: %w", where, err)
		}
		return fmt.Errorf("parse: %w", err)
	}

	if err := schema.Validate(instance); err != nil {
		messages := schemaMessages(err)
		if where != "" {
			return fmt.Errorf("%w: %s: %s", ErrSchema, where, strings.Join(messages, "; "))
		}
		return fmt.Errorf("%w: %s", ErrSchema, strings.Join(messages, "; "))
	}
	return nil
}

// schemaMessages flattens a validation error into its leaf messages.
func schemaMessages(err error) []string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}

	var messages []string
	var collect func(*jsonschema.ValidationError)
	collect = func(ve *jsonschema.ValidationError) {
		if len(ve.Causes) == 0 {
			location := ve.InstanceLocation
			if location == "" {
				location = "/"
			}
			messages = append(messages, location+": "+ve.Message)
			return
		}
		for _, cause := range ve.Causes {
			collect(cause)
		}
	}
	collect(ve)
	return messages
}
