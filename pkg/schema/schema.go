// Package schema holds the JSON schemas of every todo operation that accepts input
// and validates request bodies and tool arguments against them.
//
// The same embedded documents are advertised as MCP tool input schemas, so the
// shape an agent is told about is exactly the shape that gets enforced.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/yourorg/todoservice/pkg/model"
)

//go:embed schemas/*.json
var schemasFS embed.FS

// Schema names
const (
	CreateTodo     = "create_todo"
	UpdateTodo     = "update_todo"
	UpdateTodoBody = "update_todo_body"
	TodoID         = "todo_id"
)

const resourcePrefix = "todo://schemas/"

// Validator validates JSON documents against the compiled operation schemas.
// It is immutable after New and safe for concurrent use.
type Validator struct {
	schemas map[string]*jsonschema.Schema
	raw     map[string]json.RawMessage
}

// New compiles every embedded schema
func New() (*Validator, error) {
	entries, err := schemasFS.ReadDir("schemas")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read embedded schemas")
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	v := &Validator{
		schemas: make(map[string]*jsonschema.Schema, len(entries)),
		raw:     make(map[string]json.RawMessage, len(entries)),
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")

		data, err := schemasFS.ReadFile("schemas/" + entry.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read schema %s", name)
		}
		if err := compiler.AddResource(resourcePrefix+entry.Name(), bytes.NewReader(data)); err != nil {
			return nil, errors.Wrapf(err, "failed to add schema resource %s", name)
		}

		v.raw[name] = json.RawMessage(data)
		names = append(names, name)
	}

	for _, name := range names {
		compiled, err := compiler.Compile(resourcePrefix + name + ".json")
		if err != nil {
			return nil, errors.Wrapf(err, "failed to compile schema %s", name)
		}
		v.schemas[name] = compiled
	}

	return v, nil
}

// MustNew is like New but panics on error. The schemas are embedded,
// so a failure here is a build defect.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Raw returns the schema document registered under name
func (v *Validator) Raw(name string) (json.RawMessage, bool) {
	raw, ok := v.raw[name]
	return raw, ok
}

// Validate checks data against the named schema. Violations are returned
// as model.ErrValidation errors; an unknown schema name is a programming error.
func (v *Validator) Validate(name string, data []byte) error {
	compiled, ok := v.schemas[name]
	if !ok {
		return errors.Newf("unknown schema %q", name)
	}

	var instance interface{}
	if err := json.Unmarshal(data, &instance); err != nil {
		return model.NewValidationError("invalid JSON: %v", err)
	}

	return v.validateInstance(compiled, instance)
}

// ValidateValue checks an already decoded value (for example MCP tool arguments)
func (v *Validator) ValidateValue(name string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return model.NewValidationError("arguments are not valid JSON: %v", err)
	}
	return v.Validate(name, data)
}

func (v *Validator) validateInstance(compiled *jsonschema.Schema, instance interface{}) error {
	err := compiled.Validate(instance)
	if err == nil {
		return nil
	}

	var valErr *jsonschema.ValidationError
	if errors.As(err, &valErr) {
		return model.NewValidationError("%s", describe(valErr))
	}
	return errors.Wrap(err, "schema validation failed unexpectedly")
}

// describe flattens a validation error tree into "location: message" pairs from its leaves
func describe(valErr *jsonschema.ValidationError) string {
	var parts []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			parts = append(parts, location(e.InstanceLocation)+": "+e.Message)
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(valErr)
	return strings.Join(parts, "; ")
}

func location(instanceLocation string) string {
	loc := strings.TrimPrefix(instanceLocation, "/")
	if loc == "" {
		return "body"
	}
	return loc
}
