package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/toolbridge/toolbridge/internal/schema"
)

const maxErrorBody = 4096

// httpTransport posts each request to a single URL and reads the response
// from the HTTP body. The client has no timeout of its own; each call is
// bounded by its context.
type httpTransport struct {
	url     string
	headers map[string]string
	client  *http.Client
}

func newHTTPTransport(cfg SessionConfig) *httpTransport {
	return &httpTransport{
		url:     cfg.URL,
		headers: cfg.Headers,
		client:  &http.Client{},
	}
}

func (t *httpTransport) roundTrip(ctx context.Context, _ int64, msg []byte) (*Response, error) {
	resp, err := postJSON(ctx, t.client, t.url, t.headers, msg)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var rpcResp Response
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("decode MCP response: %w", err)
	}
	return &rpcResp, nil
}

func (t *httpTransport) notify(ctx context.Context, msg []byte) error {
	resp, err := postJSON(ctx, t.client, t.url, t.headers, msg)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (t *httpTransport) close() error {
	t.client.CloseIdleConnections()
	return nil
}

// postJSON posts body to url and returns the response when its status is
// 2xx; any other status becomes an *schema.UpstreamTransportError.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &schema.UpstreamTransportError{Endpoint: url, StatusCode: resp.StatusCode, Body: string(data)}
	}
	return resp, nil
}
