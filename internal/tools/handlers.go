package tools

import (
	"context"
	"errors"

	"github.com/toolbridge/toolbridge/internal/schema"
)

// Handler executes one tool. Local functions and remote MCP tools both
// satisfy it, so the dispatcher never needs to know which one it holds.
type Handler interface {
	Invoke(ctx context.Context, args map[string]any) (any, error)
}

// HandlerFunc adapts an ordinary function to Handler.
type HandlerFunc func(ctx context.Context, args map[string]any) (any, error)

func (f HandlerFunc) Invoke(ctx context.Context, args map[string]any) (any, error) {
	return f(ctx, args)
}

// Handlers maps tool names to their executable units.
type Handlers struct {
	bindings map[string]Handler
}

// NewHandlers returns an empty Handlers.
func NewHandlers() *Handlers {
	return &Handlers{bindings: make(map[string]Handler)}
}

// Bind associates name with h.
func (r *Handlers) Bind(name string, h Handler) error {
	if name == "" {
		return schema.ErrEmptyName
	}
	if h == nil {
		return errors.New("handler is nil")
	}
	if _, exists := r.bindings[name]; exists {
		return &schema.DuplicateNameError{Name: name}
	}
	r.bindings[name] = h
	return nil
}

// Resolve returns the handler bound to name, or *schema.UnknownToolError.
func (r *Handlers) Resolve(name string) (Handler, error) {
	h, ok := r.bindings[name]
	if !ok {
		return nil, &schema.UnknownToolError{Name: name}
	}
	return h, nil
}

// Has reports whether a handler is bound to name.
func (r *Handlers) Has(name string) bool {
	_, ok := r.bindings[name]
	return ok
}
