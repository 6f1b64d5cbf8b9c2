package mcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/toolbridge/toolbridge/internal/schema"
)

// sseTransport implements the MCP HTTP+SSE transport: a long-lived GET
// stream announces a message endpoint, requests are POSTed there and
// responses come back as "message" events on the stream.
type sseTransport struct {
	endpoint string
	headers  map[string]string
	client   *http.Client
	body     io.ReadCloser
	inbox    *inbox

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func dialSSE(ctx context.Context, cfg SessionConfig) (*sseTransport, error) {
	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse SSE url: %w", err)
	}

	// The stream lives until close, not until ctx is done.
	streamCtx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, cfg.URL, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open SSE stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		cancel()
		return nil, &schema.UpstreamTransportError{Endpoint: cfg.URL, StatusCode: resp.StatusCode, Body: string(data)}
	}

	t := &sseTransport{
		headers: cfg.Headers,
		client:  client,
		body:    resp.Body,
		inbox:   newInbox(),
		cancel:  cancel,
	}

	endpoints := make(chan string, 1)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.readLoop(base, endpoints)
	}()

	select {
	case ep := <-endpoints:
		t.endpoint = ep
		slog.Debug("MCP SSE endpoint announced", "endpoint", ep)
		return t, nil
	case <-t.inbox.done:
		_ = t.close()
		return nil, fmt.Errorf("SSE stream ended before endpoint event: %w", t.inbox.err)
	case <-ctx.Done():
		_ = t.close()
		return nil, ctx.Err()
	}
}

func (t *sseTransport) readLoop(base *url.URL, endpoints chan<- string) {
	announced := false
	err := readEvents(t.body, func(event, data string) {
		switch event {
		case "endpoint":
			if announced {
				return
			}
			ref, err := url.Parse(strings.TrimSpace(data))
			if err != nil {
				slog.Warn("MCP SSE bad endpoint event", "data", data, "err", err)
				return
			}
			announced = true
			endpoints <- base.ResolveReference(ref).String()
		case "message":
			t.inbox.deliver([]byte(data))
		}
	})
	if err == nil {
		err = io.EOF
	}
	t.inbox.fail(fmt.Errorf("SSE stream closed: %w", err))
}

func (t *sseTransport) roundTrip(ctx context.Context, id int64, msg []byte) (*Response, error) {
	ch := t.inbox.expect(id)
	defer t.inbox.forget(id)

	if err := t.post(ctx, msg); err != nil {
		return nil, err
	}
	return t.inbox.wait(ctx, ch)
}

func (t *sseTransport) notify(ctx context.Context, msg []byte) error {
	return t.post(ctx, msg)
}

func (t *sseTransport) post(ctx context.Context, msg []byte) error {
	select {
	case <-t.inbox.done:
		return t.inbox.err
	default:
	}
	resp, err := postJSON(ctx, t.client, t.endpoint, t.headers, msg)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (t *sseTransport) close() error {
	t.closeOnce.Do(func() {
		t.cancel()
		_ = t.body.Close()
		t.wg.Wait()
		t.inbox.fail(ErrSessionClosed)
	})
	return nil
}

// readEvents parses a text/event-stream body and calls fn for every
// dispatched event. Events without a name are reported as "message".
func readEvents(r io.Reader, fn func(event, data string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var event string
	var data []string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if len(data) > 0 {
				if event == "" {
					event = "message"
				}
				fn(event, strings.Join(data, "\n"))
			}
			event, data = "", nil
		case strings.HasPrefix(line, ":"):
			// keep-alive comment
		default:
			field, value, _ := strings.Cut(line, ":")
			value = strings.TrimPrefix(value, " ")
			switch field {
			case "event":
				event = value
			case "data":
				data = append(data, value)
			}
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
