package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const keepAliveInterval = 15 * time.Second

var errSessionGone = errors.New("sse session closed")

// sseSession is one open GET /sse stream. Responses to messages POSTed
// with its id are queued on outbox and written to the stream.
type sseSession struct {
	id     string
	outbox chan []byte
	done   chan struct{}
	once   sync.Once
}

func (c *sseSession) send(ctx context.Context, msg []byte) error {
	select {
	case c.outbox <- msg:
		return nil
	case <-c.done:
		return errSessionGone
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *sseSession) close() {
	c.once.Do(func() { close(c.done) })
}

func (s *Server) openSession() *sseSession {
	sess := &sseSession{
		id:     strings.ReplaceAll(uuid.NewString(), "-", ""),
		outbox: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	return sess
}

func (s *Server) session(id string) *sseSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

func (s *Server) dropSession(sess *sseSession) {
	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
	sess.close()
}

func (s *Server) closeSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.close()
		delete(s.sessions, id)
	}
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sess := s.openSession()
	defer s.dropSession(sess)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, "endpoint", "/messages/?session_id="+sess.id); err != nil {
		return
	}
	flusher.Flush()
	slog.Debug("MCP SSE session opened", "session", sess.id, "remote", r.RemoteAddr)

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			slog.Debug("MCP SSE session closed by client", "session", sess.id)
			return
		case <-sess.done:
			return
		case msg := <-sess.outbox:
			if err := writeEvent(w, "message", string(msg)); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session_id")
	if id == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}
	sess := s.session(id)
	if sess == nil {
		http.Error(w, "Could not find session", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	if out := s.Handle(r.Context(), body); out != nil {
		if err := sess.send(r.Context(), out); err != nil {
			http.Error(w, err.Error(), http.StatusGone)
			return
		}
	}
	w.WriteHeader(http.StatusAccepted)
	_, _ = io.WriteString(w, "Accepted")
}

func writeEvent(w io.Writer, event, data string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "event: %s\n", event)
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}
