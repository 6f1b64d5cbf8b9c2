package config

import "github.com/toolbridge/toolbridge/internal/ethrpc"

// Config is the root configuration for toolbridge.
type Config struct {
	Provider ProviderConfig `json:"provider" yaml:"provider"`
	Dispatch DispatchConfig `json:"dispatch" yaml:"dispatch"`
	MCP      MCPConfig      `json:"mcp" yaml:"mcp"`
	Ethereum EthereumConfig `json:"ethereum" yaml:"ethereum"`
	Server   ServerConfig   `json:"server" yaml:"server"`
}

// ProviderConfig selects and configures the model endpoint.
type ProviderConfig struct {
	Name         string            `json:"name,omitempty" yaml:"name,omitempty"` // registry name, e.g. "openrouter"
	APIKey       string            `json:"apiKey" yaml:"apiKey"`
	APIBase      string            `json:"apiBase,omitempty" yaml:"apiBase,omitempty"`
	Model        string            `json:"model" yaml:"model"`
	MaxTokens    int               `json:"maxTokens" yaml:"maxTokens"`
	Temperature  float64           `json:"temperature" yaml:"temperature"`
	ExtraHeaders map[string]string `json:"extraHeaders,omitempty" yaml:"extraHeaders,omitempty"`
}

// DispatchConfig tunes the dispatch engine.
type DispatchConfig struct {
	// EchoResults sends each successful tool result back to the model.
	EchoResults bool `json:"echoResults" yaml:"echoResults"`
}

// MCPConfig holds defaults for MCP client sessions.
type MCPConfig struct {
	Address        string            `json:"address,omitempty" yaml:"address,omitempty"`
	Headers        map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	TimeoutSeconds int               `json:"timeoutSeconds" yaml:"timeoutSeconds"`
}

// EthereumConfig points the local tools at a JSON-RPC node.
type EthereumConfig struct {
	RPCEndpoint    string `json:"rpcEndpoint" yaml:"rpcEndpoint"`
	TimeoutSeconds int    `json:"timeoutSeconds" yaml:"timeoutSeconds"`
}

// ServerConfig is the listen address of the bundled MCP server.
type ServerConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

// DefaultConfig returns a Config with all default values populated.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderConfig{
			Model:       "gpt-4o-mini",
			MaxTokens:   4096,
			Temperature: 0.2,
		},
		MCP: MCPConfig{
			Address:        "http://localhost:8080/sse",
			TimeoutSeconds: 60,
		},
		Ethereum: EthereumConfig{
			RPCEndpoint:    ethrpc.DefaultEndpoint,
			TimeoutSeconds: 30,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
	}
}
