package schema

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestParameterSchema_MarshalKeepsOrderAndClosesObject(t *testing.T) {
	p := NewParameterSchema()
	p.Add("zeta", Property{Type: "string", Description: "last letter"}, true)
	p.Add("alpha", Property{Type: "integer"}, false)

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(data)
	want := `{"type":"object","properties":{"zeta":{"type":"string","description":"last letter"},"alpha":{"type":"integer","description":""}},"required":["zeta"],"additionalProperties":false}`
	if got != want {
		t.Errorf("marshal mismatch\n got: %s\nwant: %s", got, want)
	}
}

func TestParameterSchema_MarshalEmpty(t *testing.T) {
	data, err := json.Marshal(ParameterSchema{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"type":"object","properties":{},"required":[],"additionalProperties":false}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestParameterSchema_UnmarshalRoundTrip(t *testing.T) {
	p := NewParameterSchema()
	p.Add("b", Property{Type: "string"}, true)
	p.Add("a", Property{Type: "number", Description: "amount"}, true)

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back ParameterSchema
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(back.Names(), []string{"b", "a"}) {
		t.Errorf("names = %v, want [b a]", back.Names())
	}
	if !reflect.DeepEqual(back.Required, []string{"b", "a"}) {
		t.Errorf("required = %v, want [b a]", back.Required)
	}
	if prop, _ := back.Property("a"); prop.Description != "amount" {
		t.Errorf("description = %q, want amount", prop.Description)
	}
}

func TestParameterSchema_UnmarshalRejects(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"open object", `{"type":"object","properties":{},"additionalProperties":true}`, "additional properties"},
		{"wrong type", `{"type":"array"}`, "must be \"object\""},
		{"unknown required", `{"type":"object","properties":{"a":{"type":"string"}},"required":["b"]}`, "not a declared property"},
		{"not json", `nope`, "invalid character"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p ParameterSchema
			err := json.Unmarshal([]byte(tt.input), &p)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParameterSchema_Validate(t *testing.T) {
	p := NewParameterSchema()
	p.Add("a", Property{Type: "string"}, true)
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p.Required = append(p.Required, "a")
	if err := p.Validate(); err == nil {
		t.Error("expected error for duplicate required name")
	}

	p.Required = []string{"missing"}
	if err := p.Validate(); err == nil {
		t.Error("expected error for undeclared required name")
	}
}

func TestParameterSchema_AddReplacesInPlace(t *testing.T) {
	p := NewParameterSchema()
	p.Add("a", Property{Type: "string"}, true)
	p.Add("b", Property{Type: "string"}, true)
	p.Add("a", Property{Type: "integer"}, true)

	if !reflect.DeepEqual(p.Names(), []string{"a", "b"}) {
		t.Errorf("names = %v, want [a b]", p.Names())
	}
	if !reflect.DeepEqual(p.Required, []string{"a", "b"}) {
		t.Errorf("required = %v, want [a b]", p.Required)
	}
	if prop, _ := p.Property("a"); prop.Type != "integer" {
		t.Errorf("type = %q, want integer", prop.Type)
	}
}

func TestToolDescriptor_CloneIsIndependent(t *testing.T) {
	d := ToolDescriptor{Name: "t", Parameters: NewParameterSchema()}
	d.Parameters.Add("a", Property{Type: "string"}, true)

	c := d.Clone()
	c.Parameters.Add("b", Property{Type: "string"}, true)
	c.Parameters.Required[0] = "changed"

	if d.Parameters.Len() != 1 {
		t.Errorf("original properties changed: %v", d.Parameters.Names())
	}
	if d.Parameters.Required[0] != "a" {
		t.Errorf("original required changed: %v", d.Parameters.Required)
	}
}
