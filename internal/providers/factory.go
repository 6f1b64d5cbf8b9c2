package providers

import (
	"os"

	"github.com/toolbridge/toolbridge/internal/schema"
)

// Params are the raw values needed to construct a schema.LLMProvider.
// Extracted from config.Config by the caller to avoid an import cycle.
type Params struct {
	APIKey       string
	APIBase      string
	ExtraHeaders map[string]string
	DefaultModel string
	ProviderName string // registry name, e.g. "openrouter", "vllm"
}

// New creates the provider for p. An empty API key is filled from the
// provider's environment variable when one is known.
func New(p Params) schema.LLMProvider {
	if p.APIKey == "" {
		if spec := FindByName(p.ProviderName); spec != nil && spec.EnvKey != "" {
			p.APIKey = os.Getenv(spec.EnvKey)
		}
	}
	return NewOpenAIProvider(p.APIKey, p.APIBase, p.DefaultModel, p.ProviderName, p.ExtraHeaders)
}
