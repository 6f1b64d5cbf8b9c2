package mcp

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/toolbridge/toolbridge/internal/schema"
)

// RemoteTool is a tool as listed by an MCP server.
type RemoteTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

type remoteField struct {
	Type        json.RawMessage `json:"type,omitempty"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
}

// AdaptTool converts a remote tool into a ToolDescriptor.
//
// Every field under inputSchema.properties becomes a required parameter,
// whatever the remote schema says about optionality: strict function calling
// must be given the full field list. A field without a type is a string; a
// field without a description is described by its title.
func AdaptTool(rt RemoteTool) (schema.ToolDescriptor, error) {
	if rt.Name == "" {
		return schema.ToolDescriptor{}, &schema.SchemaAdapterError{Reason: "missing name", Err: schema.ErrEmptyName}
	}
	fail := func(reason string, err error) (schema.ToolDescriptor, error) {
		return schema.ToolDescriptor{}, &schema.SchemaAdapterError{Tool: rt.Name, Reason: reason, Err: err}
	}

	var input struct {
		Properties json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(rt.InputSchema, &input); err != nil {
		return fail("inputSchema is not an object", err)
	}
	if len(input.Properties) == 0 || string(input.Properties) == "null" {
		return fail("inputSchema has no properties", nil)
	}

	fields := orderedmap.New[string, remoteField]()
	if err := json.Unmarshal(input.Properties, fields); err != nil {
		return fail("inputSchema.properties is malformed", err)
	}

	params := schema.NewParameterSchema()
	for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
		typ, err := fieldType(pair.Value.Type)
		if err != nil {
			return fail(fmt.Sprintf("field %q", pair.Key), err)
		}
		desc := pair.Value.Description
		if desc == "" {
			desc = pair.Value.Title
		}
		params.Add(pair.Key, schema.Property{Type: typ, Description: desc}, true)
	}

	return schema.ToolDescriptor{
		Name:        rt.Name,
		Description: rt.Description,
		Parameters:  params,
	}, nil
}

// AdaptTools adapts every tool, stopping at the first failure.
func AdaptTools(remote []RemoteTool) ([]schema.ToolDescriptor, error) {
	out := make([]schema.ToolDescriptor, 0, len(remote))
	for _, rt := range remote {
		d, err := AdaptTool(rt)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func fieldType(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "string", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("type must be a string, got %s", raw)
	}
	if s == "" {
		return "string", nil
	}
	return s, nil
}

type describedSchema struct {
	Type       string                                       `json:"type"`
	Properties *orderedmap.OrderedMap[string, remoteField] `json:"properties"`
	Required   []string                                     `json:"required"`
}

// DescribeTool renders a descriptor in the shape a server lists it in
// tools/list. Each field carries a title derived from its name, so the
// output adapts back to an equal descriptor.
func DescribeTool(d schema.ToolDescriptor) (RemoteTool, error) {
	props := orderedmap.New[string, remoteField]()
	for _, name := range d.Parameters.Names() {
		p, _ := d.Parameters.Property(name)
		typ, err := json.Marshal(p.Type)
		if err != nil {
			return RemoteTool{}, err
		}
		props.Set(name, remoteField{Type: typ, Title: fieldTitle(name), Description: p.Description})
	}

	required := d.Parameters.Required
	if required == nil {
		required = []string{}
	}
	raw, err := json.Marshal(describedSchema{Type: "object", Properties: props, Required: required})
	if err != nil {
		return RemoteTool{}, fmt.Errorf("describe tool %q: %w", d.Name, err)
	}
	return RemoteTool{Name: d.Name, Description: d.Description, InputSchema: raw}, nil
}

// fieldTitle turns "tx_hash" into "Tx Hash".
func fieldTitle(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
