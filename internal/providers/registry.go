package providers

import "strings"

// ProviderSpec is the metadata record for one OpenAI-compatible provider.
type ProviderSpec struct {
	Name        string // config value, e.g. "openrouter"
	DisplayName string
	EnvKey      string // env var consulted when no API key is configured

	IsGateway           bool   // routes any model (OpenRouter, …)
	IsLocal             bool   // local deployment (vLLM, Ollama)
	DetectByKeyPrefix   string // api key prefix that identifies the gateway
	DetectByBaseKeyword string // substring of api base that identifies the gateway
	DefaultAPIBase      string

	StripModelPrefix bool // send only the bare model name
}

// Label returns the display name, defaulting to Name.
func (s ProviderSpec) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Name
}

// Specs lists the known providers. Order is match priority.
var Specs = []ProviderSpec{
	{
		Name:        "openai",
		DisplayName: "OpenAI",
		EnvKey:      "OPENAI_API_KEY",
	},
	{
		Name:                "openrouter",
		DisplayName:         "OpenRouter",
		EnvKey:              "OPENROUTER_API_KEY",
		IsGateway:           true,
		DetectByKeyPrefix:   "sk-or-",
		DetectByBaseKeyword: "openrouter",
		DefaultAPIBase:      "https://openrouter.ai/api/v1",
	},
	{
		Name:                "aihubmix",
		DisplayName:         "AiHubMix",
		EnvKey:              "OPENAI_API_KEY",
		IsGateway:           true,
		DetectByBaseKeyword: "aihubmix",
		DefaultAPIBase:      "https://aihubmix.com/v1",
		StripModelPrefix:    true,
	},
	{
		Name:           "deepseek",
		DisplayName:    "DeepSeek",
		EnvKey:         "DEEPSEEK_API_KEY",
		DefaultAPIBase: "https://api.deepseek.com/v1",
	},
	{
		Name:           "groq",
		DisplayName:    "Groq",
		EnvKey:         "GROQ_API_KEY",
		DefaultAPIBase: "https://api.groq.com/openai/v1",
	},
	{
		Name:           "vllm",
		DisplayName:    "vLLM/Local",
		EnvKey:         "HOSTED_VLLM_API_KEY",
		IsLocal:        true,
		DefaultAPIBase: "http://localhost:8000/v1",
	},
	{
		Name:           "ollama",
		DisplayName:    "Ollama",
		IsLocal:        true,
		DefaultAPIBase: "http://localhost:11434/v1",
	},
}

// FindGateway detects a gateway by explicit name, API key prefix or API base
// keyword, in that order.
func FindGateway(providerName, apiKey, apiBase string) *ProviderSpec {
	if providerName != "" {
		if spec := FindByName(providerName); spec != nil && spec.IsGateway {
			return spec
		}
	}
	for i := range Specs {
		spec := &Specs[i]
		if spec.DetectByKeyPrefix != "" && strings.HasPrefix(apiKey, spec.DetectByKeyPrefix) {
			return spec
		}
		if spec.DetectByBaseKeyword != "" && strings.Contains(apiBase, spec.DetectByBaseKeyword) {
			return spec
		}
	}
	return nil
}

// FindByName returns the spec with the given name ("-" and "_" are
// interchangeable), or nil.
func FindByName(name string) *ProviderSpec {
	norm := strings.ReplaceAll(strings.ToLower(name), "-", "_")
	for i := range Specs {
		if Specs[i].Name == norm {
			return &Specs[i]
		}
	}
	return nil
}
