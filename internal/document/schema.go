package document

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "document.schema.json"

const documentSchema = `{
  "$defs": {
    "block": {
      "type": "object",
      "properties": {
        "type": {"type": "string"},
        "block_id": {"type": ["string", "integer", "null"]},
        "page": {"type": "integer", "minimum": 1},
        "content": {"type": ["string", "null"]},
        "markdown": {"type": ["string", "null"]},
        "markdown_table": {"type": ["string", "null"]},
        "bbox": {
          "type": "array",
          "items": {"type": "number"},
          "minItems": 4,
          "maxItems": 4
        },
        "citation": {"type": ["string", "null"]},
        "source": {"type": ["string", "null"]},
        "content_hash": {"type": ["string", "null"]}
      }
    },
    "page": {
      "type": "object",
      "properties": {
        "page": {"type": "integer", "minimum": 1},
        "blocks": {"type": "array", "items": {"$ref": "#/$defs/block"}}
      }
    },
    "pages": {"type": "array", "items": {"$ref": "#/$defs/page"}}
  },
  "oneOf": [
    {"$ref": "#/$defs/pages"},
    {
      "type": "object",
      "required": ["pages"],
      "properties": {"pages": {"$ref": "#/$defs/pages"}}
    }
  ]
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, strings.NewReader(documentSchema)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, compileErr
}

// Validate checks raw sidecar JSON against the document schema.
func Validate(data []byte) error {
	s, err := schema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("document does not match schema: %w", err)
	}
	return nil
}
