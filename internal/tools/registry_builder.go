package tools

import "fmt"

// RegistryBuilder accumulates tools during the construction phase.
// Call Build() to produce a Registry ready for dispatch.
type RegistryBuilder struct {
	tools []Tool
	err   error
}

// NewRegistryBuilder returns a fresh RegistryBuilder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{}
}

// WithTool adds a tool and returns the builder, enabling chaining.
func (b *RegistryBuilder) WithTool(t Tool) *RegistryBuilder {
	b.tools = append(b.tools, t)
	return b
}

// WithTools adds several tools at once.
func (b *RegistryBuilder) WithTools(ts ...Tool) *RegistryBuilder {
	b.tools = append(b.tools, ts...)
	return b
}

// WithError records a construction error, typically from NewTool, so chains
// stay readable. Build reports the first recorded error.
func (b *RegistryBuilder) WithError(err error) *RegistryBuilder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Build registers the accumulated tools in order. The first registration
// failure aborts the build.
func (b *RegistryBuilder) Build() (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}
	r := NewRegistry()
	for _, t := range b.tools {
		if err := r.Add(t); err != nil {
			return nil, fmt.Errorf("register tool %q: %w", t.Name(), err)
		}
	}
	return r, nil
}
