package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Parser errors.
var (
	// ErrInvalidJSON is returned when a response holds no parseable JSON.
	ErrInvalidJSON = errors.New("invalid JSON in response")

	// ErrSchemaMismatch is returned when a JSON response does not match the
	// expected schema.
	ErrSchemaMismatch = errors.New("response does not match schema")
)

// ExtractJSON pulls the JSON value out of a model reply. Markdown code fences
// and surrounding prose are removed. Whichever of an object or an array
// starts first wins.
func ExtractJSON(content string) string {
	// Try to find JSON block in markdown
	if idx := strings.Index(content, "```json"); idx != -1 {
		content = content[idx+7:]
		if endIdx := strings.Index(content, "```"); endIdx != -1 {
			content = content[:endIdx]
		}
	} else if idx := strings.Index(content, "```"); idx != -1 {
		content = content[idx+3:]
		if endIdx := strings.Index(content, "```"); endIdx != -1 {
			content = content[:endIdx]
		}
	}

	objectStart := strings.Index(content, "{")
	arrayStart := strings.Index(content, "[")

	start, closeChar := -1, ""
	switch {
	case objectStart >= 0 && (arrayStart < 0 || objectStart < arrayStart):
		start, closeChar = objectStart, "}"
	case arrayStart >= 0:
		start, closeChar = arrayStart, "]"
	}
	if start >= 0 {
		if end := strings.LastIndex(content, closeChar); end > start {
			content = content[start : end+1]
		}
	}

	return strings.TrimSpace(content)
}

// DecodeJSON extracts the JSON value from content and unmarshals it into v.
func DecodeJSON(content string, v any) error {
	raw := ExtractJSON(content)
	if raw == "" {
		return fmt.Errorf("%w: empty response", ErrInvalidJSON)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}

// Schema is a compiled JSON Schema used to check structured replies locally,
// whether or not the provider enforced it.
type Schema struct {
	doc      map[string]any
	compiled *jsonschema.Schema
}

// CompileSchema compiles a JSON Schema document.
func CompileSchema(name string, doc map[string]any) (*Schema, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize schema %s: %w", name, err)
	}

	url := name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to load schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	return &Schema{doc: doc, compiled: compiled}, nil
}

// MustCompileSchema is like CompileSchema but panics on error. It is meant
// for package-level schemas.
func MustCompileSchema(name string, doc map[string]any) *Schema {
	s, err := CompileSchema(name, doc)
	if err != nil {
		panic(err)
	}
	return s
}

// Document returns the schema document to send as ChatRequest.ResponseSchema.
func (s *Schema) Document() map[string]any {
	return s.doc
}

// Validate checks raw JSON against the schema.
func (s *Schema) Validate(raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if err := s.compiled.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return nil
}

// DecodeValid extracts JSON from content, validates it and unmarshals it into v.
func (s *Schema) DecodeValid(content string, v any) error {
	raw := ExtractJSON(content)
	if raw == "" {
		return fmt.Errorf("%w: empty response", ErrInvalidJSON)
	}
	if err := s.Validate([]byte(raw)); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}
