// Package dependency wires core toolbridge services using go.uber.org/dig.
package dependency

import (
	"fmt"
	"os"

	"go.uber.org/dig"

	"github.com/toolbridge/toolbridge/internal/config"
	"github.com/toolbridge/toolbridge/internal/dispatch"
	"github.com/toolbridge/toolbridge/internal/ethrpc"
	"github.com/toolbridge/toolbridge/internal/ethtools"
	"github.com/toolbridge/toolbridge/internal/mcp"
	"github.com/toolbridge/toolbridge/internal/mcpserver"
	"github.com/toolbridge/toolbridge/internal/providers"
	"github.com/toolbridge/toolbridge/internal/schema"
	"github.com/toolbridge/toolbridge/internal/tools"
)

// Container resolves core services on demand. Commands only pay for what
// they ask for: `serve` never builds an LLM provider.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	d *dig.Container
}

// LocalRegistry wraps the registry of in-process Ethereum tools.
type LocalRegistry struct{ *tools.Registry }

// New registers every constructor for cfg.
func New(cfg *config.Config) (*Container, error) {
	d := dig.New()

	if err := d.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}
	if err := d.Provide(newProvider); err != nil {
		return nil, err
	}
	if err := d.Provide(newEthClient); err != nil {
		return nil, err
	}
	if err := d.Provide(newLocalRegistry); err != nil {
		return nil, err
	}
	if err := d.Provide(newDispatchOptions); err != nil {
		return nil, err
	}
	if err := d.Provide(newMCPServer); err != nil {
		return nil, err
	}
	return &Container{d: d}, nil
}

// Config returns the loaded configuration.
func (c *Container) Config() *config.Config {
	var cfg *config.Config
	_ = c.d.Invoke(func(v *config.Config) { cfg = v })
	return cfg
}

// Provider returns the configured LLM provider.
func (c *Container) Provider() (schema.LLMProvider, error) {
	var p schema.LLMProvider
	err := c.d.Invoke(func(v schema.LLMProvider) { p = v })
	return p, unwrap(err)
}

// LocalRegistry returns the Ethereum tool registry.
func (c *Container) LocalRegistry() (*tools.Registry, error) {
	var reg LocalRegistry
	err := c.d.Invoke(func(v LocalRegistry) { reg = v })
	return reg.Registry, unwrap(err)
}

// MCPServer returns the server exposing the local registry.
func (c *Container) MCPServer() (*mcpserver.Server, error) {
	var s *mcpserver.Server
	err := c.d.Invoke(func(v *mcpserver.Server) { s = v })
	return s, unwrap(err)
}

// Engine builds a dispatch engine over ts with the configured provider.
func (c *Container) Engine(ts dispatch.Toolset) (*dispatch.Engine, error) {
	var e *dispatch.Engine
	err := c.d.Invoke(func(p schema.LLMProvider, opts dispatch.Options) {
		e = dispatch.New(p, ts, opts)
	})
	return e, unwrap(err)
}

// SessionConfig returns MCP client settings for address. An empty address
// falls back to the configured default.
func (c *Container) SessionConfig(address string) mcp.SessionConfig {
	cfg := c.Config()
	if address == "" {
		address = cfg.MCP.Address
	}
	return mcp.SessionConfig{
		URL:     address,
		Headers: cfg.MCP.Headers,
		Timeout: cfg.MCP.Timeout(),
	}
}

// unwrap strips dig's construction path so callers see the root cause.
func unwrap(err error) error {
	if err == nil {
		return nil
	}
	return dig.RootCause(err)
}

func newProvider(cfg *config.Config) (schema.LLMProvider, error) {
	pc := cfg.Provider
	spec := providers.FindByName(pc.Name)
	if pc.APIKey == "" && spec != nil && spec.EnvKey != "" {
		pc.APIKey = os.Getenv(spec.EnvKey)
	}
	local := spec != nil && spec.IsLocal
	if pc.APIKey == "" && !local && pc.APIBase == "" {
		return nil, fmt.Errorf("no API key configured for model %q: set OPENAI_API_KEY or edit %s", pc.Model, config.ConfigPath())
	}
	return providers.New(providers.Params{
		APIKey:       pc.APIKey,
		APIBase:      pc.APIBase,
		ExtraHeaders: pc.ExtraHeaders,
		DefaultModel: pc.Model,
		ProviderName: pc.Name,
	}), nil
}

func newEthClient(cfg *config.Config) *ethrpc.Client {
	return ethrpc.New(cfg.Ethereum.RPCEndpoint, cfg.Ethereum.Timeout())
}

func newLocalRegistry(client *ethrpc.Client) (LocalRegistry, error) {
	reg, err := ethtools.Registry(client)
	if err != nil {
		return LocalRegistry{}, err
	}
	return LocalRegistry{reg}, nil
}

func newDispatchOptions(cfg *config.Config) dispatch.Options {
	return dispatch.Options{
		Chat: schema.NewChatOptions(
			cfg.Provider.Model,
			cfg.Provider.MaxTokens,
			cfg.Provider.Temperature,
		),
		EchoResults: cfg.Dispatch.EchoResults,
	}
}

func newMCPServer(reg LocalRegistry) *mcpserver.Server {
	return mcpserver.New(reg.Registry)
}
