package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/toolbridge/toolbridge/internal/schema"
)

var reflector = &jsonschema.Reflector{DoNotReference: true}

// ParametersFor derives a strict ParameterSchema from the fields of the
// argument struct A. Descriptions come from the jsonschema_description tag.
// Every field must be required: strict function calling cannot express
// optional parameters, so fields tagged omitempty are rejected.
func ParametersFor[A any]() (schema.ParameterSchema, error) {
	var zero A
	s := reflector.Reflect(&zero)
	if s.Type != "object" {
		return schema.ParameterSchema{}, fmt.Errorf("arguments must be a struct, got %q", s.Type)
	}

	params := schema.NewParameterSchema()
	if s.Properties != nil {
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			params.Add(pair.Key, schema.Property{
				Type:        pair.Value.Type,
				Description: pair.Value.Description,
			}, false)
		}
	}
	for _, name := range s.Required {
		if _, ok := params.Property(name); ok && !params.IsRequired(name) {
			params.Required = append(params.Required, name)
		}
	}
	var optional []string
	for _, name := range params.Names() {
		if !params.IsRequired(name) {
			optional = append(optional, name)
		}
	}
	if len(optional) > 0 {
		return schema.ParameterSchema{}, fmt.Errorf("optional arguments %s are not allowed in strict mode; drop omitempty", strings.Join(optional, ", "))
	}
	return params, params.Validate()
}

// Typed adapts fn into a Handler. The argument map is decoded into A the way
// keyword arguments bind to a function's parameters; unknown or mistyped
// arguments fail with *schema.ArgumentDecodeError.
func Typed[A, R any](name string, fn func(ctx context.Context, args A) (R, error)) Handler {
	return HandlerFunc(func(ctx context.Context, raw map[string]any) (any, error) {
		var args A
		if err := decodeArgs(raw, &args); err != nil {
			return nil, &schema.ArgumentDecodeError{Tool: name, Err: err}
		}
		out, err := fn(ctx, args)
		if err != nil {
			return nil, err
		}
		return out, nil
	})
}

// NewTool builds a Tool from a Go function and its argument struct.
func NewTool[A, R any](name, description string, fn func(ctx context.Context, args A) (R, error)) (Tool, error) {
	params, err := ParametersFor[A]()
	if err != nil {
		return Tool{}, fmt.Errorf("tool %q: %w", name, err)
	}
	return Tool{
		Descriptor: schema.ToolDescriptor{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
		Handler: Typed(name, fn),
	}, nil
}

func decodeArgs(raw map[string]any, dst any) error {
	if raw == nil {
		raw = map[string]any{}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
