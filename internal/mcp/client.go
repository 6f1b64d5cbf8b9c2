package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// Session is an initialized connection to one MCP server. It is safe for
// concurrent use; Close is idempotent.
type Session struct {
	cfg       SessionConfig
	transport transport
	server    Implementation

	nextID    atomic.Int64
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Server returns the server's self-reported identity.
func (s *Session) Server() Implementation { return s.server }

// Target returns the command or URL the session is connected to.
func (s *Session) Target() string { return s.cfg.Target() }

func (s *Session) initialize(ctx context.Context) error {
	raw, err := s.call(ctx, MethodInitialize, InitializeParams{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    map[string]any{},
		ClientInfo:      s.cfg.clientInfo(),
	})
	if err != nil {
		return err
	}
	var result InitializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("decode initialize result: %w", err)
	}
	s.server = result.ServerInfo

	msg, err := encodeNotification(MethodInitialized, nil)
	if err != nil {
		return err
	}
	return s.transport.notify(ctx, msg)
}

// Ping checks that the server is still answering.
func (s *Session) Ping(ctx context.Context) error {
	_, err := s.call(ctx, MethodPing, nil)
	return err
}

// ListTools returns every tool the server exposes, following pagination
// cursors until the listing is complete.
func (s *Session) ListTools(ctx context.Context) ([]RemoteTool, error) {
	var out []RemoteTool
	var params ListToolsParams
	for {
		var p any
		if params.Cursor != "" {
			p = params
		}
		raw, err := s.call(ctx, MethodToolsList, p)
		if err != nil {
			return nil, fmt.Errorf("tools/list: %w", err)
		}
		var page ListToolsResult
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, fmt.Errorf("decode tools/list result: %w", err)
		}
		out = append(out, page.Tools...)
		if page.NextCursor == "" || page.NextCursor == params.Cursor {
			return out, nil
		}
		params.Cursor = page.NextCursor
	}
}

// CallTool invokes a remote tool and returns its text content joined by
// newlines. A result flagged isError is returned as an error.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	if args == nil {
		args = map[string]any{}
	}
	raw, err := s.call(ctx, MethodToolsCall, CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return "", err
	}

	var result CallToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return string(raw), nil
	}

	var parts []string
	for _, block := range result.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	out := strings.Join(parts, "\n")
	if result.IsError {
		return "", fmt.Errorf("remote tool %q failed: %s", name, out)
	}
	if out == "" {
		out = "(no output)"
	}
	return out, nil
}

// Close shuts the transport down. Later calls return the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.transport.close()
	})
	return s.closeErr
}

func (s *Session) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	id := s.nextID.Add(1)
	msg, err := encodeRequest(id, method, params)
	if err != nil {
		return nil, err
	}
	resp, err := s.transport.roundTrip(ctx, id, msg)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	if len(resp.Result) == 0 {
		return json.RawMessage("{}"), nil
	}
	return resp.Result, nil
}
