package lesson

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// documentSchema is the structural JSON Schema every lesson file must satisfy.
// Segment ordering is checked separately so errors can name the position.
var documentSchema = map[string]any{
	"type": "object",
	"required": []any{
		"lesson_id", "course_id", "sequence", "title", "objective", "segments", "metadata",
	},
	"properties": map[string]any{
		"lesson_id": map[string]any{"type": "string", "minLength": 1},
		"course_id": map[string]any{"type": "string", "minLength": 1},
		"sequence":  map[string]any{"type": "number"},
		"title":     map[string]any{"type": "string"},
		"objective": map[string]any{"type": "string"},
		"metadata":  map[string]any{"type": "object"},
		"required_passages": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"reference"},
				"properties": map[string]any{
					"reference": map[string]any{"type": "string"},
					"text":      map[string]any{"type": "string"},
				},
			},
		},
		"segments": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"type", "sequence", "audio_script"},
				"properties": map[string]any{
					"type":         map[string]any{"type": "string"},
					"sequence":     map[string]any{"type": "number"},
					"audio_script": map[string]any{"type": "string"},
					"word_count":   map[string]any{"type": "integer", "minimum": 0},
					"acceptable_variants": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
				},
				"if": map[string]any{
					"properties": map[string]any{"type": map[string]any{"const": "question"}},
				},
				"then": map[string]any{
					"required": []any{"correct_answer", "acceptable_variants"},
				},
			},
		},
	},
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func lessonSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The compiler wants a decoded JSON value, so round-trip the map.
		raw, err := json.Marshal(documentSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal lesson schema: %w", err)
			return
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			compileErr = fmt.Errorf("parse lesson schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		const url = "schema://lesson.json"
		if err := c.AddResource(url, doc); err != nil {
			compileErr = fmt.Errorf("add lesson schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(url)
	})
	return compiled, compileErr
}
