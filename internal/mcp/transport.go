package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrSessionClosed is returned for calls made after Close.
var ErrSessionClosed = errors.New("mcp: session closed")

// transport moves encoded JSON-RPC messages to one server.
type transport interface {
	// roundTrip sends msg and waits for the response carrying id.
	roundTrip(ctx context.Context, id int64, msg []byte) (*Response, error)
	// notify sends msg without waiting for a response.
	notify(ctx context.Context, msg []byte) error
	close() error
}

func dial(ctx context.Context, cfg SessionConfig) (transport, error) {
	switch kind := cfg.transportKind(); kind {
	case TransportStdio:
		if cfg.Command == "" {
			return nil, errors.New("stdio transport requires a command")
		}
		return startStdio(cfg)
	case TransportHTTP, TransportSSE, TransportWebSocket:
		if cfg.URL == "" {
			return nil, fmt.Errorf("%s transport requires a url", kind)
		}
		switch kind {
		case TransportSSE:
			return dialSSE(ctx, cfg)
		case TransportWebSocket:
			return dialWebSocket(ctx, cfg)
		default:
			return newHTTPTransport(cfg), nil
		}
	default:
		return nil, fmt.Errorf("unknown MCP transport %q", kind)
	}
}

// inbox matches responses that arrive on a shared stream to the callers
// waiting for them.
type inbox struct {
	mu      sync.Mutex
	waiters map[int64]chan *Response
	done    chan struct{}
	err     error
	once    sync.Once
}

func newInbox() *inbox {
	return &inbox{waiters: make(map[int64]chan *Response), done: make(chan struct{})}
}

func (b *inbox) expect(id int64) chan *Response {
	ch := make(chan *Response, 1)
	b.mu.Lock()
	b.waiters[id] = ch
	b.mu.Unlock()
	return ch
}

func (b *inbox) forget(id int64) {
	b.mu.Lock()
	delete(b.waiters, id)
	b.mu.Unlock()
}

// deliver hands raw to the caller waiting on its id. Messages without a
// known id (server notifications, late replies) are dropped.
func (b *inbox) deliver(raw []byte) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return
	}
	id, ok := resp.intID()
	if !ok {
		return
	}
	b.mu.Lock()
	ch, ok := b.waiters[id]
	delete(b.waiters, id)
	b.mu.Unlock()
	if ok {
		ch <- &resp
	}
}

// fail wakes every waiter with err. Only the first call has an effect.
func (b *inbox) fail(err error) {
	b.once.Do(func() {
		if err == nil {
			err = ErrSessionClosed
		}
		b.err = err
		close(b.done)
	})
}

func (b *inbox) wait(ctx context.Context, ch chan *Response) (*Response, error) {
	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.done:
		return nil, b.err
	}
}
