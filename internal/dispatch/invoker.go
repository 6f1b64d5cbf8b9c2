// Package dispatch turns a model response into either a final answer or a
// batch of tool invocations executed against a registry.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/toolbridge/toolbridge/internal/schema"
	"github.com/toolbridge/toolbridge/internal/shared/llmutils"
	"github.com/toolbridge/toolbridge/internal/tools"
)

// Toolset is the read side of a tool registry. *tools.Registry satisfies it.
type Toolset interface {
	List() []schema.ToolDescriptor
	Lookup(name string) (schema.ToolDescriptor, bool)
	Resolve(name string) (tools.Handler, error)
}

// Invoker executes single invocation requests: decode, resolve, validate,
// invoke. It never returns an error; every failure is captured in the
// result.
type Invoker struct {
	tools Toolset

	mu      sync.Mutex
	schemas map[string]*gojsonschema.Schema
}

func NewInvoker(ts Toolset) *Invoker {
	return &Invoker{tools: ts, schemas: make(map[string]*gojsonschema.Schema)}
}

// Invoke runs req against the toolset.
func (iv *Invoker) Invoke(ctx context.Context, req schema.InvocationRequest) schema.InvocationResult {
	res := schema.InvocationResult{ToolName: req.ToolName, CallID: req.ID}

	value, err := iv.invoke(ctx, req)
	if err != nil {
		res.Failure = schema.NewFailure(err)
		slog.Warn("Tool call failed", "name", req.ToolName, "kind", res.Failure.Kind, "err", err)
		return res
	}
	res.Value = value
	slog.Debug("Tool call succeeded", "name", req.ToolName, "result", llmutils.Truncate(res.Text(), 200))
	return res
}

func (iv *Invoker) invoke(ctx context.Context, req schema.InvocationRequest) (value any, err error) {
	slog.Info("Tool call", "name", req.ToolName, "args", llmutils.Truncate(req.RawArguments, 200))

	args, err := decodeArguments(req)
	if err != nil {
		return nil, err
	}

	h, err := iv.tools.Resolve(req.ToolName)
	if err != nil {
		return nil, err
	}

	if desc, ok := iv.tools.Lookup(req.ToolName); ok {
		if err := iv.validate(desc, args); err != nil {
			return nil, &schema.ArgumentDecodeError{Tool: req.ToolName, Raw: req.RawArguments, Err: err}
		}
	}

	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = &schema.HandlerExecutionError{Tool: req.ToolName, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	value, err = h.Invoke(ctx, args)
	if err != nil {
		return nil, classify(req.ToolName, err)
	}
	return value, nil
}

// decodeArguments parses the model's argument text. Empty text and JSON null
// both mean no arguments.
func decodeArguments(req schema.InvocationRequest) (map[string]any, error) {
	raw := strings.TrimSpace(req.RawArguments)
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, &schema.ArgumentDecodeError{Tool: req.ToolName, Raw: req.RawArguments, Err: err}
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// classify keeps taxonomy errors and context errors as they are and wraps
// everything else in a HandlerExecutionError.
func classify(tool string, err error) error {
	var he *schema.HandlerExecutionError
	switch {
	case schema.KindOf(err) != schema.KindHandlerExecution:
		return err
	case errors.As(err, &he):
		return err
	default:
		return &schema.HandlerExecutionError{Tool: tool, Err: err}
	}
}

func (iv *Invoker) validate(desc schema.ToolDescriptor, args map[string]any) error {
	s, err := iv.compiled(desc)
	if err != nil {
		// A schema gojsonschema cannot compile (an exotic remote type, say)
		// leaves validation to the handler.
		slog.Debug("Skipping argument validation", "name", desc.Name, "err", err)
		return nil
	}
	result, err := s.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("schema: %s", strings.Join(msgs, "; "))
}

func (iv *Invoker) compiled(desc schema.ToolDescriptor) (*gojsonschema.Schema, error) {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	if s, ok := iv.schemas[desc.Name]; ok {
		return s, nil
	}
	raw, err := json.Marshal(desc.Parameters)
	if err != nil {
		return nil, err
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, err
	}
	iv.schemas[desc.Name] = s
	return s, nil
}
