package schema

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestInvocationResult_Text(t *testing.T) {
	tests := []struct {
		name   string
		result InvocationResult
		want   string
	}{
		{"string", InvocationResult{Value: "hello"}, "hello"},
		{"int", InvocationResult{Value: 5}, "5"},
		{"float", InvocationResult{Value: 1.25}, "1.25"},
		{"map", InvocationResult{Value: map[string]any{"k": "v"}}, `{"k":"v"}`},
		{"nil", InvocationResult{}, ""},
		{"failure", InvocationResult{Failure: &Failure{Message: "boom"}}, "Error: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"duplicate", &DuplicateNameError{Name: "x"}, KindDuplicateName},
		{"adapter", &SchemaAdapterError{Tool: "x", Reason: "r"}, KindSchemaAdapter},
		{"decode", &ArgumentDecodeError{Tool: "x", Err: errors.New("bad")}, KindArgumentDecode},
		{"unknown", &UnknownToolError{Name: "x"}, KindUnknownTool},
		{"execution", &HandlerExecutionError{Tool: "x", Err: errors.New("bad")}, KindHandlerExecution},
		{"transport", &UpstreamTransportError{StatusCode: 502}, KindUpstreamTransport},
		{"wrapped transport", fmt.Errorf("call: %w", &UpstreamTransportError{StatusCode: 500}), KindUpstreamTransport},
		{"canceled", fmt.Errorf("call: %w", context.Canceled), KindCanceled},
		{"plain", errors.New("plain"), KindHandlerExecution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHandlerExecutionError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := error(&HandlerExecutionError{Tool: "sum", Err: cause})
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
}

func TestUpstreamTransportError_CarriesBody(t *testing.T) {
	err := &UpstreamTransportError{Endpoint: "https://node", StatusCode: 503, Body: "overloaded"}
	want := "upstream https://node returned HTTP 503: overloaded"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
