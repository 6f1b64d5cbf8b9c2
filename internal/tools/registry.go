package tools

import (
	"errors"

	"github.com/toolbridge/toolbridge/internal/schema"
)

// Tool pairs a descriptor with the handler that executes it.
type Tool struct {
	Descriptor schema.ToolDescriptor
	Handler    Handler
}

// Name returns the tool's registered name.
func (t Tool) Name() string { return t.Descriptor.Name }

// Registry holds a Catalog and the Handlers bound to it.
type Registry struct {
	catalog  *Catalog
	handlers *Handlers
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{catalog: NewCatalog(), handlers: NewHandlers()}
}

// Add registers t's descriptor and binds its handler. Either both happen or
// neither does.
func (r *Registry) Add(t Tool) error {
	if t.Handler == nil {
		return errors.New("handler is nil")
	}
	if r.handlers.Has(t.Name()) {
		return &schema.DuplicateNameError{Name: t.Name()}
	}
	if err := r.catalog.Register(t.Descriptor); err != nil {
		return err
	}
	return r.handlers.Bind(t.Name(), t.Handler)
}

// Catalog returns the descriptor side of the registry.
func (r *Registry) Catalog() *Catalog { return r.catalog }

// Handlers returns the handler side of the registry.
func (r *Registry) Handlers() *Handlers { return r.handlers }

// List returns the registered descriptors in insertion order.
func (r *Registry) List() []schema.ToolDescriptor { return r.catalog.List() }

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (schema.ToolDescriptor, bool) {
	return r.catalog.Lookup(name)
}

// Resolve returns the handler bound to name.
func (r *Registry) Resolve(name string) (Handler, error) {
	return r.handlers.Resolve(name)
}

// Definitions returns all tools in the capability-advertisement format.
func (r *Registry) Definitions() []schema.FunctionTool {
	return Advertise(r.catalog.List())
}
