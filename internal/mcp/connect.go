package mcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/toolbridge/toolbridge/internal/tools"
)

// Open connects to the server described by cfg and performs the initialize
// handshake. The caller owns the returned session and must Close it;
// WithSession does that automatically.
func Open(ctx context.Context, cfg SessionConfig) (*Session, error) {
	t, err := dial(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to MCP server %s: %w", cfg.Target(), err)
	}

	s := &Session{cfg: cfg, transport: t}
	if err := s.initialize(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("initialize MCP server %s: %w", cfg.Target(), err)
	}
	slog.Info("MCP session opened",
		"target", cfg.Target(),
		"transport", cfg.transportKind(),
		"server", s.server.Name,
	)
	return s, nil
}

// WithSession opens a session, runs fn and closes the session on every exit
// path, including a panic inside fn.
func WithSession(ctx context.Context, cfg SessionConfig, fn func(*Session) error) (err error) {
	s, err := Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close MCP session: %w", cerr)
		}
		slog.Debug("MCP session closed", "target", cfg.Target())
	}()
	return fn(s)
}

// Registry lists the server's tools, adapts each one and binds it to a
// RemoteHandler on this session. A tool whose schema cannot be adapted fails
// the whole registry.
func (s *Session) Registry(ctx context.Context) (*tools.Registry, error) {
	remote, err := s.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	descs, err := AdaptTools(remote)
	if err != nil {
		return nil, err
	}

	b := tools.NewRegistryBuilder()
	for _, d := range descs {
		b.WithTool(tools.Tool{Descriptor: d, Handler: NewRemoteHandler(s, d.Name)})
		slog.Debug("MCP tool registered", "target", s.Target(), "tool", d.Name)
	}
	reg, err := b.Build()
	if err != nil {
		return nil, err
	}
	slog.Info("MCP tools discovered", "target", s.Target(), "tools", len(descs))
	return reg, nil
}
