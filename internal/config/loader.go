package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides ConfigPath when set.
const EnvConfigPath = "TOOLBRIDGE_CONFIG"

// ConfigPath returns the default configuration file path:
// $TOOLBRIDGE_CONFIG, or ~/.toolbridge/config.json.
func ConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return filepath.Join(DataDir(), "config.json")
}

// DataDir returns the toolbridge data directory: ~/.toolbridge.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".toolbridge"
	}
	return filepath.Join(home, ".toolbridge")
}

// Load reads and parses the config file at path.
// If path is empty, ConfigPath() is used. Files ending in .yaml or .yml are
// parsed as YAML, everything else as JSON.
// On parse failure it logs a warning and returns DefaultConfig().
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			cfg.applyEnv()
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := unmarshal(path, data, &cfg); err != nil {
		slog.Warn("failed to parse config, using defaults", "path", path, "err", err)
		cfg = DefaultConfig()
	}
	cfg.applyEnv()
	return &cfg, nil
}

// Save writes cfg to path as indented JSON, or YAML for .yaml/.yml paths.
// If path is empty, ConfigPath() is used.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func unmarshal(path string, data []byte, cfg *Config) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, cfg)
	}
	return json.Unmarshal(data, cfg)
}

// applyEnv fills empty provider credentials from the standard OpenAI
// environment variables.
func (c *Config) applyEnv() {
	if c.Provider.APIKey == "" {
		c.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Provider.APIBase == "" {
		c.Provider.APIBase = os.Getenv("OPENAI_BASE_URL")
	}
}

// Addr returns host:port for the MCP server listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Timeout returns the per-request timeout for MCP sessions.
func (m MCPConfig) Timeout() time.Duration {
	return seconds(m.TimeoutSeconds)
}

// Timeout returns the HTTP timeout for the Ethereum node.
func (e EthereumConfig) Timeout() time.Duration {
	return seconds(e.TimeoutSeconds)
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
