package mcp

import (
	"net/url"
	"strings"
	"time"
)

// Transport kinds accepted in SessionConfig.Transport.
const (
	TransportAuto      = ""
	TransportStdio     = "stdio"
	TransportSSE       = "sse"
	TransportHTTP      = "http"
	TransportWebSocket = "websocket"
)

// SessionConfig holds the connection parameters for a single MCP server.
// Either Command (a stdio subprocess) or URL must be set.
type SessionConfig struct {
	Command string
	Args    []string
	Env     map[string]string

	URL     string
	Headers map[string]string

	// Transport forces a transport; empty picks one from Command and URL.
	Transport string

	// Timeout bounds each request. Zero means no per-request limit.
	Timeout time.Duration

	ClientName    string
	ClientVersion string
}

// Target returns a human-readable identifier for logs.
func (c SessionConfig) Target() string {
	if c.Command != "" {
		return strings.TrimSpace(c.Command + " " + strings.Join(c.Args, " "))
	}
	return c.URL
}

// transportKind resolves TransportAuto: a command means stdio, ws/wss URLs
// mean WebSocket, URLs whose path ends in /sse mean SSE, anything else is
// plain HTTP POST.
func (c SessionConfig) transportKind() string {
	if c.Transport != TransportAuto {
		return c.Transport
	}
	if c.Command != "" {
		return TransportStdio
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return TransportHTTP
	}
	switch {
	case u.Scheme == "ws" || u.Scheme == "wss":
		return TransportWebSocket
	case strings.HasSuffix(strings.TrimRight(u.Path, "/"), "/sse"):
		return TransportSSE
	default:
		return TransportHTTP
	}
}

func (c SessionConfig) clientInfo() Implementation {
	info := Implementation{Name: c.ClientName, Version: c.ClientVersion}
	if info.Name == "" {
		info.Name = "toolbridge"
	}
	if info.Version == "" {
		info.Version = "1.0"
	}
	return info
}
