package tools

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/toolbridge/toolbridge/internal/schema"
)

type sumArgs struct {
	A int `json:"a" jsonschema_description:"first addend"`
	B int `json:"b" jsonschema_description:"second addend"`
}

type searchArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

func sum(_ context.Context, args sumArgs) (int, error) {
	return args.A + args.B, nil
}

func TestParametersFor(t *testing.T) {
	params, err := ParametersFor[sumArgs]()
	if err != nil {
		t.Fatalf("ParametersFor() failed: %v", err)
	}
	if !reflect.DeepEqual(params.Names(), []string{"a", "b"}) {
		t.Errorf("Names() = %v, want [a b]", params.Names())
	}
	if !reflect.DeepEqual(params.Required, []string{"a", "b"}) {
		t.Errorf("Required = %v, want [a b]", params.Required)
	}
	a, _ := params.Property("a")
	if a.Type != "integer" || a.Description != "first addend" {
		t.Errorf("property a = %+v", a)
	}
}

func TestParametersFor_RejectsOptionalFields(t *testing.T) {
	_, err := ParametersFor[searchArgs]()
	if err == nil || !strings.Contains(err.Error(), "limit") {
		t.Fatalf("ParametersFor() error = %v, want rejection naming limit", err)
	}

	search := func(_ context.Context, a searchArgs) (string, error) { return a.Query, nil }
	if _, err := NewTool("search", "Search.", search); err == nil {
		t.Error("NewTool() accepted an argument struct with an optional field")
	}
}

func TestParametersFor_NoArguments(t *testing.T) {
	params, err := ParametersFor[struct{}]()
	if err != nil {
		t.Fatalf("ParametersFor() failed: %v", err)
	}
	if params.Len() != 0 || len(params.Required) != 0 {
		t.Errorf("expected empty schema, got %v / %v", params.Names(), params.Required)
	}
}

func TestNewTool_Sum(t *testing.T) {
	tool, err := NewTool("sum", "Add two integers.", sum)
	if err != nil {
		t.Fatalf("NewTool() failed: %v", err)
	}
	if tool.Name() != "sum" || tool.Descriptor.Description != "Add two integers." {
		t.Errorf("descriptor = %+v", tool.Descriptor)
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(`{"a":2,"b":3}`), &args); err != nil {
		t.Fatal(err)
	}
	out, err := tool.Handler.Invoke(context.Background(), args)
	if err != nil {
		t.Fatalf("Invoke() failed: %v", err)
	}
	if out != 5 {
		t.Errorf("Invoke() = %v, want 5", out)
	}
}

func TestTyped_DecodeErrors(t *testing.T) {
	h := Typed("sum", sum)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"wrong type", map[string]any{"a": "two", "b": 3}},
		{"unknown field", map[string]any{"a": 1, "b": 2, "c": 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Invoke(context.Background(), tt.args)
			var decodeErr *schema.ArgumentDecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("Invoke() error = %v, want ArgumentDecodeError", err)
			}
			if decodeErr.Tool != "sum" {
				t.Errorf("ArgumentDecodeError.Tool = %q, want sum", decodeErr.Tool)
			}
		})
	}
}

func TestTyped_PassesHandlerError(t *testing.T) {
	cause := errors.New("node unavailable")
	h := Typed("fail", func(context.Context, struct{}) (string, error) { return "", cause })

	out, err := h.Invoke(context.Background(), nil)
	if !errors.Is(err, cause) {
		t.Errorf("Invoke() error = %v, want %v", err, cause)
	}
	if out != nil {
		t.Errorf("Invoke() value = %v, want nil", out)
	}
}

func TestAdvertise(t *testing.T) {
	tool, err := NewTool("sum", "Add two integers.", sum)
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewRegistryBuilder().WithTool(tool).Build()
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(r.Definitions())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `[{"type":"function","function":{"name":"sum","description":"Add two integers.",` +
		`"parameters":{"type":"object","properties":{"a":{"type":"integer","description":"first addend"},` +
		`"b":{"type":"integer","description":"second addend"}},"required":["a","b"],"additionalProperties":false},` +
		`"strict":true}}]`
	if string(data) != want {
		t.Errorf("advertisement mismatch\n got: %s\nwant: %s", data, want)
	}
}
