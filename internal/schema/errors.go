package schema

import (
	"context"
	"errors"
	"fmt"
)

// FailureKind classifies why an invocation or registration failed.
type FailureKind string

const (
	KindDuplicateName     FailureKind = "duplicate_name"
	KindSchemaAdapter     FailureKind = "schema_adapter"
	KindArgumentDecode    FailureKind = "argument_decode"
	KindUnknownTool       FailureKind = "unknown_tool"
	KindHandlerExecution  FailureKind = "handler_execution"
	KindUpstreamTransport FailureKind = "upstream_transport"
	KindCanceled          FailureKind = "canceled"
)

// ErrEmptyName is returned when registering a tool without a name.
var ErrEmptyName = errors.New("tool name is empty")

// DuplicateNameError is returned when a tool name is registered twice.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("tool %q already registered", e.Name)
}

func (e *DuplicateNameError) Kind() FailureKind { return KindDuplicateName }

// SchemaAdapterError is returned when a remote tool descriptor cannot be
// converted into a ToolDescriptor.
type SchemaAdapterError struct {
	Tool   string
	Reason string
	Err    error
}

func (e *SchemaAdapterError) Error() string {
	msg := fmt.Sprintf("adapt tool %q: %s", e.Tool, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaAdapterError) Unwrap() error     { return e.Err }
func (e *SchemaAdapterError) Kind() FailureKind { return KindSchemaAdapter }

// ArgumentDecodeError is returned when the arguments of an invocation request
// are not valid JSON or do not match the tool's parameters.
type ArgumentDecodeError struct {
	Tool string
	Raw  string
	Err  error
}

func (e *ArgumentDecodeError) Error() string {
	return fmt.Sprintf("decode arguments for tool %q: %v", e.Tool, e.Err)
}

func (e *ArgumentDecodeError) Unwrap() error     { return e.Err }
func (e *ArgumentDecodeError) Kind() FailureKind { return KindArgumentDecode }

// UnknownToolError is returned when no handler is bound to a name.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

func (e *UnknownToolError) Kind() FailureKind { return KindUnknownTool }

// HandlerExecutionError wraps an error raised by a handler.
type HandlerExecutionError struct {
	Tool string
	Err  error
}

func (e *HandlerExecutionError) Error() string {
	return fmt.Sprintf("tool %q execution failed: %v", e.Tool, e.Err)
}

func (e *HandlerExecutionError) Unwrap() error     { return e.Err }
func (e *HandlerExecutionError) Kind() FailureKind { return KindHandlerExecution }

// UpstreamTransportError is returned when a remote node or API answers with a
// non-success HTTP status. Body holds the raw response for diagnosis.
type UpstreamTransportError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *UpstreamTransportError) Error() string {
	return fmt.Sprintf("upstream %s returned HTTP %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

func (e *UpstreamTransportError) Kind() FailureKind { return KindUpstreamTransport }

type kinded interface {
	Kind() FailureKind
}

// KindOf classifies err. Errors outside the taxonomy count as handler
// execution failures.
func KindOf(err error) FailureKind {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindHandlerExecution
}
