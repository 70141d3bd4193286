package config

import (
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "schema://cmakeparse-config.json"

// schemaJSON describes the accepted config keys
const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "keep_comments": {"type": "boolean"},
    "split_lists":   {"type": "boolean"},
    "strict":        {"type": "boolean"},
    "color":         {"type": "string", "pattern": "(?i)^(auto|always|never)$"},
    "ignore":        {"type": "array", "items": {"type": "string", "pattern": "^[A-Za-z_][A-Za-z0-9_]*$"}}
  }
}`

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaURL)
})

// validate checks decoded YAML or TOML against the config schema
func validate(raw map[string]any) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	return schema.Validate(raw)
}
