package mcp

import (
	"context"

	"github.com/toolbridge/toolbridge/internal/tools"
)

// RemoteHandler forwards invocations of one tool to an MCP session.
type RemoteHandler struct {
	session *Session
	name    string
}

func NewRemoteHandler(s *Session, name string) *RemoteHandler {
	return &RemoteHandler{session: s, name: name}
}

func (h *RemoteHandler) Invoke(ctx context.Context, args map[string]any) (any, error) {
	out, err := h.session.CallTool(ctx, h.name, args)
	if err != nil {
		return nil, err
	}
	return out, nil
}

var _ tools.Handler = (*RemoteHandler)(nil)
