package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// stdioTransport speaks newline-delimited JSON-RPC to a subprocess.
type stdioTransport struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	inbox *inbox

	writeMu   sync.Mutex
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func startStdio(cfg SessionConfig) (*stdioTransport, error) {
	// The subprocess outlives the dial context, so it is not bound to it.
	cmd := exec.Command(cfg.Command, cfg.Args...)
	if len(cfg.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range cfg.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start MCP server: %w", err)
	}

	t := &stdioTransport{cmd: cmd, stdin: stdin, inbox: newInbox()}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.readLoop(bufio.NewReader(stdout))
	}()
	return t, nil
}

// readLoop delivers every JSON line on stdout until the subprocess exits.
// Lines that are not JSON are server log output and are skipped.
func (t *stdioTransport) readLoop(r *bufio.Reader) {
	for {
		line, err := r.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" && json.Valid([]byte(line)) {
			t.inbox.deliver([]byte(line))
		}
		if err != nil {
			t.inbox.fail(fmt.Errorf("read MCP stdout: %w", err))
			return
		}
	}
}

func (t *stdioTransport) roundTrip(ctx context.Context, id int64, msg []byte) (*Response, error) {
	ch := t.inbox.expect(id)
	defer t.inbox.forget(id)

	if err := t.write(msg); err != nil {
		return nil, err
	}
	return t.inbox.wait(ctx, ch)
}

func (t *stdioTransport) notify(_ context.Context, msg []byte) error {
	return t.write(msg)
}

func (t *stdioTransport) write(msg []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := fmt.Fprintf(t.stdin, "%s\n", msg); err != nil {
		return fmt.Errorf("write to MCP stdin: %w", err)
	}
	return nil
}

func (t *stdioTransport) close() error {
	t.closeOnce.Do(func() {
		_ = t.stdin.Close()
		if t.cmd.Process != nil {
			_ = t.cmd.Process.Kill()
		}
		t.wg.Wait()
		_ = t.cmd.Wait()
		t.inbox.fail(ErrSessionClosed)
	})
	return nil
}
