// Package mcpserver exposes a tool registry to MCP clients over SSE,
// WebSocket and plain HTTP.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/toolbridge/toolbridge/internal/dispatch"
	"github.com/toolbridge/toolbridge/internal/mcp"
	"github.com/toolbridge/toolbridge/internal/schema"
	"github.com/toolbridge/toolbridge/internal/tools"
)

const maxMessageBytes = 4 << 20

// Server answers MCP requests against a fixed registry.
type Server struct {
	registry *tools.Registry
	invoker  *dispatch.Invoker
	info     mcp.Implementation
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	mu       sync.Mutex
	sessions map[string]*sseSession
}

// Option configures a Server.
type Option func(*Server)

// WithInfo sets the name and version reported by initialize.
func WithInfo(name, version string) Option {
	return func(s *Server) { s.info = mcp.Implementation{Name: name, Version: version} }
}

func New(reg *tools.Registry, opts ...Option) *Server {
	s := &Server{
		registry: reg,
		invoker:  dispatch.NewInvoker(reg),
		info:     mcp.Implementation{Name: "toolbridge", Version: "1.0"},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		mux:      http.NewServeMux(),
		sessions: make(map[string]*sseSession),
	}
	for _, o := range opts {
		o(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /sse", s.handleSSE)
	s.mux.HandleFunc("POST /messages/", s.handleMessages)
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
	s.mux.HandleFunc("POST /mcp", s.handleHTTP)
	s.mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("MCP server listening", "addr", addr, "tools", len(s.registry.List()))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.closeSessions()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("MCP server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	out := s.Handle(r.Context(), body)
	if out == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(out)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	slog.Debug("MCP WebSocket client connected", "remote", r.RemoteAddr)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("MCP WebSocket read ended", "err", err)
			}
			return
		}
		out := s.Handle(r.Context(), data)
		if out == nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
			slog.Debug("MCP WebSocket write failed", "err", err)
			return
		}
	}
}

// Handle processes one encoded JSON-RPC message and returns the encoded
// response, or nil for notifications.
func (s *Server) Handle(ctx context.Context, raw []byte) []byte {
	var req mcp.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return encode(mcp.NewError(nil, mcp.CodeParseError, "parse error"))
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		if req.IsNotification() {
			return nil
		}
		return encode(mcp.NewError(req.ID, mcp.CodeInvalidRequest, "invalid request"))
	}

	resp := s.dispatch(ctx, req)
	if req.IsNotification() || resp == nil {
		return nil
	}
	return encode(resp)
}

func (s *Server) dispatch(ctx context.Context, req mcp.Request) *mcp.Response {
	var (
		result any
		err    error
	)
	switch req.Method {
	case mcp.MethodInitialize:
		result = mcp.InitializeResult{
			ProtocolVersion: mcp.ProtocolVersion,
			Capabilities:    map[string]any{"tools": map[string]any{"listChanged": false}},
			ServerInfo:      s.info,
		}
	case mcp.MethodInitialized:
		slog.Debug("MCP client initialized")
		return nil
	case mcp.MethodPing:
		result = struct{}{}
	case mcp.MethodToolsList:
		result, err = s.listTools()
	case mcp.MethodToolsCall:
		var p struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if jerr := json.Unmarshal(req.Params, &p); jerr != nil || p.Name == "" {
			return mcp.NewError(req.ID, mcp.CodeInvalidParams, "tools/call requires a tool name")
		}
		result = s.callTool(ctx, string(req.ID), p.Name, p.Arguments)
	default:
		return mcp.NewError(req.ID, mcp.CodeMethodNotFound, "method not found: "+req.Method)
	}
	if err != nil {
		return mcp.NewError(req.ID, mcp.CodeInternalError, err.Error())
	}

	resp, err := mcp.NewResult(req.ID, result)
	if err != nil {
		return mcp.NewError(req.ID, mcp.CodeInternalError, err.Error())
	}
	return resp
}

func (s *Server) listTools() (mcp.ListToolsResult, error) {
	descs := s.registry.List()
	out := mcp.ListToolsResult{Tools: make([]mcp.RemoteTool, 0, len(descs))}
	for _, d := range descs {
		rt, err := mcp.DescribeTool(d)
		if err != nil {
			return mcp.ListToolsResult{}, err
		}
		out.Tools = append(out.Tools, rt)
	}
	return out, nil
}

// callTool runs one tool. Failures are reported in the result with isError
// set, not as JSON-RPC errors, so the calling model can read them.
func (s *Server) callTool(ctx context.Context, id, name string, args json.RawMessage) mcp.CallToolResult {
	res := s.invoker.Invoke(ctx, schema.InvocationRequest{ID: id, ToolName: name, RawArguments: string(args)})
	if !res.OK() {
		return mcp.CallToolResult{Content: mcp.TextContent(res.Failure.Message), IsError: true}
	}
	return mcp.CallToolResult{Content: mcp.TextContent(res.Text())}
}

func encode(resp *mcp.Response) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("Encode MCP response", "err", err)
		return nil
	}
	return data
}
