package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "https://tada.local/schema/todos.json"

// The server is trusted for shape only as far as this schema goes.
const todosSchema = `{
  "$id": "https://tada.local/schema/todos.json",
  "$defs": {
    "item": {
      "type": "object",
      "required": ["id", "userId", "title", "completed"],
      "properties": {
        "id":        {"type": "integer", "minimum": 1},
        "userId":    {"type": "integer"},
        "title":     {"type": "string"},
        "completed": {"type": "boolean"}
      }
    }
  },
  "type": "array",
  "items": {"$ref": "#/$defs/item"}
}`

type schemas struct {
	list *jsonschema.Schema
	item *jsonschema.Schema
}

func compileSchemas() (*schemas, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(todosSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	list, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile list schema: %w", err)
	}
	item, err := compiler.Compile(schemaURL + "#/$defs/item")
	if err != nil {
		return nil, fmt.Errorf("compile item schema: %w", err)
	}
	return &schemas{list: list, item: item}, nil
}

// validate checks raw JSON against s and flattens the first leaf cause
// into a short message.
func validate(s *jsonschema.Schema, body []byte) error {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			leaf := ve
			for len(leaf.Causes) > 0 {
				leaf = leaf.Causes[0]
			}
			return fmt.Errorf("invalid response at %q: %s", leaf.InstanceLocation, leaf.Message)
		}
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}
