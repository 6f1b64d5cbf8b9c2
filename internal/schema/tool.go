// Package schema contains the data model and contracts shared across toolbridge
// packages: tool descriptors, invocation requests and results, provider types
// and the error taxonomy.
package schema

// ToolDescriptor describes one capability the model may invoke.
// Name is the join key between the catalog, the handler registry and the
// invocation requests produced by the model.
type ToolDescriptor struct {
	Name        string
	Description string
	Parameters  ParameterSchema
}

// Clone returns a deep copy of d.
func (d ToolDescriptor) Clone() ToolDescriptor {
	return ToolDescriptor{
		Name:        d.Name,
		Description: d.Description,
		Parameters:  d.Parameters.Clone(),
	}
}

// FunctionTool is one entry of the capability list sent to the model API.
type FunctionTool struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition is the "function" member of a FunctionTool.
type FunctionDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
	Strict      bool            `json:"strict"`
}
