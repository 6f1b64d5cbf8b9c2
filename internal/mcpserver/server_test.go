package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/toolbridge/toolbridge/internal/mcp"
	"github.com/toolbridge/toolbridge/internal/tools"
)

type addressArgs struct {
	Address string `json:"address" jsonschema_description:"account address"`
}

func newServer(t *testing.T) *Server {
	t.Helper()
	lookup, err := tools.NewTool("get_balance", "Get the balance of an address.", func(_ context.Context, a addressArgs) (string, error) {
		return "balance of " + a.Address, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	reg, err := tools.NewRegistryBuilder().WithTool(lookup).Build()
	if err != nil {
		t.Fatal(err)
	}
	return New(reg, WithInfo("test-server", "9.9"))
}

func handle(t *testing.T, s *Server, msg string) mcp.Response {
	t.Helper()
	out := s.Handle(context.Background(), []byte(msg))
	if out == nil {
		t.Fatalf("Handle(%s) returned no response", msg)
	}
	var resp mcp.Response
	if err := json.Unmarshal(out, &resp); err != nil {
		t.Fatalf("decode response %s: %v", out, err)
	}
	return resp
}

func TestHandle_Initialize(t *testing.T) {
	resp := handle(t, newServer(t), `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"c","version":"1"}}}`)
	if resp.Error != nil {
		t.Fatalf("initialize error: %v", resp.Error)
	}
	var result mcp.InitializeResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatal(err)
	}
	if result.ProtocolVersion != mcp.ProtocolVersion || result.ServerInfo.Name != "test-server" {
		t.Errorf("result = %+v", result)
	}
	if string(resp.ID) != "1" {
		t.Errorf("ID = %s, want 1", resp.ID)
	}
}

func TestHandle_Notification(t *testing.T) {
	s := newServer(t)
	if out := s.Handle(context.Background(), []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)); out != nil {
		t.Errorf("notification produced a response: %s", out)
	}
}

func TestHandle_Errors(t *testing.T) {
	s := newServer(t)
	tests := []struct {
		name string
		msg  string
		code int
	}{
		{"parse error", `{not json`, mcp.CodeParseError},
		{"unknown method", `{"jsonrpc":"2.0","id":"x","method":"resources/list"}`, mcp.CodeMethodNotFound},
		{"missing version", `{"id":2,"method":"ping"}`, mcp.CodeInvalidRequest},
		{"call without name", `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{}}`, mcp.CodeInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := handle(t, s, tt.msg)
			if resp.Error == nil || resp.Error.Code != tt.code {
				t.Errorf("error = %+v, want code %d", resp.Error, tt.code)
			}
		})
	}
}

func TestHandle_ToolsList(t *testing.T) {
	resp := handle(t, newServer(t), `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	var result mcp.ListToolsResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Tools) != 1 || result.Tools[0].Name != "get_balance" {
		t.Fatalf("tools = %+v", result.Tools)
	}
	want := `{"type":"object","properties":{"address":{"type":"string","title":"Address","description":"account address"}},"required":["address"]}`
	if string(result.Tools[0].InputSchema) != want {
		t.Errorf("inputSchema = %s\nwant %s", result.Tools[0].InputSchema, want)
	}
}

func TestHandle_ToolsCall(t *testing.T) {
	s := newServer(t)
	tests := []struct {
		name    string
		params  string
		isError bool
		text    string
	}{
		{"success", `{"name":"get_balance","arguments":{"address":"0xabc"}}`, false, "balance of 0xabc"},
		{"unknown tool", `{"name":"nope","arguments":{}}`, true, `unknown tool "nope"`},
		{"bad arguments", `{"name":"get_balance","arguments":{"address":1}}`, true, "decode arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := handle(t, s, `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":`+tt.params+`}`)
			if resp.Error != nil {
				t.Fatalf("unexpected JSON-RPC error: %v", resp.Error)
			}
			var result mcp.CallToolResult
			if err := json.Unmarshal(resp.Result, &result); err != nil {
				t.Fatal(err)
			}
			if result.IsError != tt.isError {
				t.Errorf("IsError = %v, want %v", result.IsError, tt.isError)
			}
			if len(result.Content) != 1 || !strings.Contains(result.Content[0].Text, tt.text) {
				t.Errorf("content = %+v, want text containing %q", result.Content, tt.text)
			}
		})
	}
}

func TestHTTPEndpoint(t *testing.T) {
	ts := httptest.NewServer(newServer(t))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/mcp", "application/json", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"result":{}`) {
		t.Errorf("ping = %d %s", resp.StatusCode, body)
	}

	resp, err = http.Post(ts.URL+"/mcp", "application/json", strings.NewReader(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("notification status = %d, want 202", resp.StatusCode)
	}
}

func TestMessagesEndpoint_UnknownSession(t *testing.T) {
	ts := httptest.NewServer(newServer(t))
	defer ts.Close()

	for url, want := range map[string]int{
		ts.URL + "/messages/":                   http.StatusBadRequest,
		ts.URL + "/messages/?session_id=missing": http.StatusNotFound,
	} {
		resp, err := http.Post(url, "application/json", strings.NewReader(`{}`))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Errorf("POST %s = %d, want %d", url, resp.StatusCode, want)
		}
	}
}

func TestServeStdio(t *testing.T) {
	in := strings.NewReader(
		`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n\n" +
			`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n" +
			`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_balance","arguments":{"address":"0x1"}}}` + "\n")
	var out bytes.Buffer

	if err := newServer(t).ServeStdio(context.Background(), in, &out); err != nil {
		t.Fatalf("ServeStdio() failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d response lines, want 2:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[1], "balance of 0x1") {
		t.Errorf("tools/call response = %s", lines[1])
	}
}

func TestWriteEvent(t *testing.T) {
	var b bytes.Buffer
	if err := writeEvent(&b, "message", "line1\nline2"); err != nil {
		t.Fatal(err)
	}
	want := "event: message\ndata: line1\ndata: line2\n\n"
	if b.String() != want {
		t.Errorf("writeEvent() = %q, want %q", b.String(), want)
	}
}
