package schema

import (
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Property is one named parameter of a tool.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ParameterSchema is the strict-mode parameter object of a tool.
//
// Properties keep their insertion order through JSON in both directions.
// additionalProperties is not configurable: it always serializes as false.
type ParameterSchema struct {
	Properties *orderedmap.OrderedMap[string, Property]
	Required   []string
}

// NewParameterSchema returns an empty schema ready for Add.
func NewParameterSchema() ParameterSchema {
	return ParameterSchema{Properties: orderedmap.New[string, Property]()}
}

// Add appends a property. Re-adding a name replaces its definition in place.
func (p *ParameterSchema) Add(name string, prop Property, required bool) {
	if p.Properties == nil {
		p.Properties = orderedmap.New[string, Property]()
	}
	p.Properties.Set(name, prop)
	if required && !p.IsRequired(name) {
		p.Required = append(p.Required, name)
	}
}

// Len returns the number of declared properties.
func (p ParameterSchema) Len() int {
	if p.Properties == nil {
		return 0
	}
	return p.Properties.Len()
}

// Property returns the named property.
func (p ParameterSchema) Property(name string) (Property, bool) {
	if p.Properties == nil {
		return Property{}, false
	}
	return p.Properties.Get(name)
}

// Names returns the property names in declaration order.
func (p ParameterSchema) Names() []string {
	names := make([]string, 0, p.Len())
	if p.Properties == nil {
		return names
	}
	for pair := p.Properties.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// IsRequired reports whether name is listed as required.
func (p ParameterSchema) IsRequired(name string) bool {
	for _, r := range p.Required {
		if r == name {
			return true
		}
	}
	return false
}

// Validate checks that every required name is a declared property and that
// no name is listed twice.
func (p ParameterSchema) Validate() error {
	seen := make(map[string]bool, len(p.Required))
	for _, name := range p.Required {
		if seen[name] {
			return fmt.Errorf("required field %q listed twice", name)
		}
		seen[name] = true
		if _, ok := p.Property(name); !ok {
			return fmt.Errorf("required field %q is not a declared property", name)
		}
	}
	return nil
}

// Clone returns a deep copy of p.
func (p ParameterSchema) Clone() ParameterSchema {
	out := NewParameterSchema()
	if p.Properties != nil {
		for pair := p.Properties.Oldest(); pair != nil; pair = pair.Next() {
			out.Properties.Set(pair.Key, pair.Value)
		}
	}
	if p.Required != nil {
		out.Required = append([]string(nil), p.Required...)
	}
	return out
}

type parameterSchemaWire struct {
	Type                 string                                   `json:"type"`
	Properties           *orderedmap.OrderedMap[string, Property] `json:"properties"`
	Required             []string                                 `json:"required"`
	AdditionalProperties *bool                                    `json:"additionalProperties"`
}

// MarshalJSON writes the JSON-Schema object form expected by the model API.
func (p ParameterSchema) MarshalJSON() ([]byte, error) {
	props := p.Properties
	if props == nil {
		props = orderedmap.New[string, Property]()
	}
	required := p.Required
	if required == nil {
		required = []string{}
	}
	closed := false
	return json.Marshal(parameterSchemaWire{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: &closed,
	})
}

// UnmarshalJSON reads the form written by MarshalJSON. Schemas that declare a
// non-object type or allow additional properties are rejected.
func (p *ParameterSchema) UnmarshalJSON(data []byte) error {
	var w parameterSchemaWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Type != "" && w.Type != "object" {
		return fmt.Errorf("parameter schema type must be \"object\", got %q", w.Type)
	}
	if w.AdditionalProperties != nil && *w.AdditionalProperties {
		return fmt.Errorf("strict parameter schema cannot allow additional properties")
	}
	if w.Properties == nil {
		w.Properties = orderedmap.New[string, Property]()
	}
	out := ParameterSchema{Properties: w.Properties, Required: w.Required}
	if err := out.Validate(); err != nil {
		return err
	}
	*p = out
	return nil
}
