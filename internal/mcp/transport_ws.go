package mcp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/toolbridge/toolbridge/internal/schema"
)

// wsTransport carries one JSON-RPC message per WebSocket text frame.
type wsTransport struct {
	conn    *websocket.Conn
	inbox   *inbox
	writeMu sync.Mutex

	wg        sync.WaitGroup
	closeOnce sync.Once
}

func dialWebSocket(ctx context.Context, cfg SessionConfig) (*wsTransport, error) {
	header := http.Header{}
	for k, v := range cfg.Headers {
		header.Set(k, v)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL, header)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			defer resp.Body.Close()
			data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return nil, &schema.UpstreamTransportError{Endpoint: cfg.URL, StatusCode: resp.StatusCode, Body: string(data)}
		}
		return nil, fmt.Errorf("dial %s: %w", cfg.URL, err)
	}

	t := &wsTransport{conn: conn, inbox: newInbox()}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.readLoop()
	}()
	return t, nil
}

func (t *wsTransport) readLoop() {
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			t.inbox.fail(fmt.Errorf("websocket closed: %w", err))
			return
		}
		t.inbox.deliver(data)
	}
}

func (t *wsTransport) roundTrip(ctx context.Context, id int64, msg []byte) (*Response, error) {
	ch := t.inbox.expect(id)
	defer t.inbox.forget(id)

	if err := t.write(msg); err != nil {
		return nil, err
	}
	return t.inbox.wait(ctx, ch)
}

func (t *wsTransport) notify(_ context.Context, msg []byte) error {
	return t.write(msg)
}

func (t *wsTransport) write(msg []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := t.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}

func (t *wsTransport) close() error {
	var err error
	t.closeOnce.Do(func() {
		t.writeMu.Lock()
		_ = t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		t.writeMu.Unlock()
		err = t.conn.Close()
		t.wg.Wait()
		t.inbox.fail(ErrSessionClosed)
	})
	return err
}
