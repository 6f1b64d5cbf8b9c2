package mcpserver

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
)

// ServeStdio answers newline-delimited JSON-RPC messages read from r,
// writing one response line per request to w. It returns when r is
// exhausted or ctx is done.
func (s *Server) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxMessageBytes)

	slog.Info("MCP server reading stdio", "tools", len(s.registry.List()))
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		out := s.Handle(ctx, line)
		if out == nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s\n", out); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	return sc.Err()
}
