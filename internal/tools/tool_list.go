package tools

import "github.com/toolbridge/toolbridge/internal/schema"

// Advertise converts descriptors into the strict function-calling format the
// model API expects, keeping their order.
func Advertise(descs []schema.ToolDescriptor) []schema.FunctionTool {
	list := make([]schema.FunctionTool, 0, len(descs))
	for _, d := range descs {
		list = append(list, schema.FunctionTool{
			Type: "function",
			Function: schema.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters.Clone(),
				Strict:      true,
			},
		})
	}
	return list
}
