package llmutils

import (
	"fmt"
	"strings"

	"github.com/toolbridge/toolbridge/internal/schema"
)

// Truncate shortens a string to at most n characters, adding "..." if it was truncated.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// StringOrDefault returns s if it's not empty, or def if s is empty.
func StringOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// ToolHint generates a short hint string for a batch of invocation requests,
// e.g. `get_balance({"address":"0xab…"})`.
func ToolHint(reqs []schema.InvocationRequest) string {
	parts := make([]string, 0, len(reqs))
	for _, r := range reqs {
		args := strings.TrimSpace(r.RawArguments)
		if args == "" || args == "{}" {
			parts = append(parts, r.ToolName+"()")
			continue
		}
		if len(args) > 40 {
			args = args[:40] + "…"
		}
		parts = append(parts, fmt.Sprintf("%s(%s)", r.ToolName, args))
	}
	return strings.Join(parts, ", ")
}
