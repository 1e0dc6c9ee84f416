package action

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jdginn/padengine/config"
)

// SchemaSet compiles each configured PluginSchema once at load time and
// validates a Plugin action's Params against it before dispatch (spec.md
// §4.5's optional plugin parameter validation).
type SchemaSet struct {
	compiled map[string]*jsonschema.Schema
}

// CompileSchemas builds a SchemaSet from the config's plugin_schemas table.
// A plugin with no registered schema is left unvalidated.
func CompileSchemas(schemas []config.PluginSchema) (*SchemaSet, error) {
	set := &SchemaSet{compiled: make(map[string]*jsonschema.Schema, len(schemas))}
	compiler := jsonschema.NewCompiler()

	for _, s := range schemas {
		resourceName := s.Name + ".json"
		if err := compiler.AddResource(resourceName, bytes.NewReader([]byte(s.Schema))); err != nil {
			return nil, fmt.Errorf("plugin schema %q: %w", s.Name, err)
		}
		sch, err := compiler.Compile(resourceName)
		if err != nil {
			return nil, fmt.Errorf("plugin schema %q: %w", s.Name, err)
		}
		set.compiled[s.Name] = sch
	}
	return set, nil
}

// Validate checks params against the plugin's registered schema, if any.
func (s *SchemaSet) Validate(plugin string, params map[string]interface{}) error {
	if s == nil {
		return nil
	}
	sch, ok := s.compiled[plugin]
	if !ok {
		return nil
	}

	// jsonschema validates against decoded JSON values (map[string]any with
	// float64 numbers), so round-trip params through the same encoding
	// Params would have gone through coming off the wire.
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("unmarshal params: %w", err)
	}
	return sch.Validate(doc)
}
