package tools

import (
	"fmt"

	"github.com/toolbridge/toolbridge/internal/schema"
)

// Catalog holds tool descriptors in registration order. The list it returns
// is advertised verbatim to the model.
//
// Descriptors are copied on the way in and on the way out, so a registered
// descriptor cannot change. There is no update operation.
type Catalog struct {
	order []string
	descs map[string]schema.ToolDescriptor
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{descs: make(map[string]schema.ToolDescriptor)}
}

// Register adds d. It fails with *schema.DuplicateNameError when the name is
// already taken, leaving the catalog unchanged.
func (c *Catalog) Register(d schema.ToolDescriptor) error {
	if d.Name == "" {
		return schema.ErrEmptyName
	}
	if _, exists := c.descs[d.Name]; exists {
		return &schema.DuplicateNameError{Name: d.Name}
	}
	if err := d.Parameters.Validate(); err != nil {
		return fmt.Errorf("tool %q: %w", d.Name, err)
	}

	c.descs[d.Name] = d.Clone()
	c.order = append(c.order, d.Name)
	return nil
}

// List returns the registered descriptors in insertion order.
func (c *Catalog) List() []schema.ToolDescriptor {
	out := make([]schema.ToolDescriptor, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.descs[name].Clone())
	}
	return out
}

// Lookup returns the descriptor registered under name.
func (c *Catalog) Lookup(name string) (schema.ToolDescriptor, bool) {
	d, ok := c.descs[name]
	if !ok {
		return schema.ToolDescriptor{}, false
	}
	return d.Clone(), true
}

// Len returns the number of registered descriptors.
func (c *Catalog) Len() int { return len(c.order) }
