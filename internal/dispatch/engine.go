package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/toolbridge/toolbridge/internal/schema"
	"github.com/toolbridge/toolbridge/internal/shared/llmutils"
	"github.com/toolbridge/toolbridge/internal/tools"
)

// ErrNoResult is returned by Ask when the model requested tools and none of
// the invocations succeeded.
var ErrNoResult = errors.New("no tool invocation succeeded")

// State is a step of one dispatch turn.
type State int

const (
	AwaitingResponse State = iota
	Dispatching
	Done
)

func (s State) String() string {
	switch s {
	case AwaitingResponse:
		return "awaiting_response"
	case Dispatching:
		return "dispatching"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome is the result of one dispatch turn.
type Outcome struct {
	// Path lists the states the turn went through, ending in Done.
	Path []State
	// Answer is the terminal text, or the text of the first successful
	// invocation when tools were dispatched.
	Answer string
	// Results holds every invocation result in request order.
	Results []schema.InvocationResult
}

// Dispatched reports whether the turn invoked tools.
func (o Outcome) Dispatched() bool {
	for _, s := range o.Path {
		if s == Dispatching {
			return true
		}
	}
	return false
}

// Succeeded reports whether at least one invocation succeeded.
func (o Outcome) Succeeded() bool {
	for _, r := range o.Results {
		if r.OK() {
			return true
		}
	}
	return false
}

// FirstFailure returns the first failed invocation, or nil.
func (o Outcome) FirstFailure() *schema.Failure {
	for _, r := range o.Results {
		if r.Failure != nil {
			return r.Failure
		}
	}
	return nil
}

// Options configures an Engine.
type Options struct {
	Chat schema.ChatOptions
	// EchoResults sends each successful result back to the model as an
	// assistant message. The reply is discarded.
	EchoResults bool
}

// Engine runs dispatch turns against one provider and one toolset. An
// engine processes one batch at a time and is not safe for concurrent use.
type Engine struct {
	provider schema.LLMProvider
	tools    Toolset
	invoker  *Invoker
	opts     Options
}

func New(provider schema.LLMProvider, ts Toolset, opts Options) *Engine {
	if opts.Chat.Model == "" && provider != nil {
		opts.Chat.Model = provider.DefaultModel()
	}
	return &Engine{provider: provider, tools: ts, invoker: NewInvoker(ts), opts: opts}
}

// Ask sends query to the model with the current tool advertisement and
// dispatches the response.
func (e *Engine) Ask(ctx context.Context, query string) (string, error) {
	msgs := schema.NewMessages()
	msgs.AddUser(query)

	resp, err := e.provider.Chat(ctx, msgs, tools.Advertise(e.tools.List()), e.opts.Chat)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}

	out, err := e.Dispatch(ctx, resp)
	if err != nil {
		return "", err
	}
	if out.Dispatched() && !out.Succeeded() {
		if f := out.FirstFailure(); f != nil {
			return "", fmt.Errorf("%w: %w", ErrNoResult, f.Err)
		}
		return "", ErrNoResult
	}
	return out.Answer, nil
}

// Dispatch processes one model response. A response without invocation
// requests is returned as the answer as is. Otherwise every request runs in
// order; a failed request never stops its siblings, but a cancelled context
// stops the batch and is returned with the results gathered so far.
func (e *Engine) Dispatch(ctx context.Context, resp schema.LLMResponse) (Outcome, error) {
	out := Outcome{Path: []State{AwaitingResponse}}

	if !resp.HasToolCalls() {
		out.Path = append(out.Path, Done)
		out.Answer = resp.Text()
		return out, nil
	}

	out.Path = append(out.Path, Dispatching)
	slog.Info("Dispatching tool calls", "count", len(resp.ToolCalls), "calls", llmutils.ToolHint(resp.ToolCalls))

	for _, req := range resp.ToolCalls {
		if err := ctx.Err(); err != nil {
			out.Path = append(out.Path, Done)
			return out, err
		}
		res := e.invoker.Invoke(ctx, req)
		out.Results = append(out.Results, res)
		if res.Failure != nil && res.Failure.Kind == schema.KindCanceled && ctx.Err() != nil {
			out.Path = append(out.Path, Done)
			return out, ctx.Err()
		}
	}

	for _, r := range out.Results {
		if r.OK() {
			out.Answer = r.Text()
			break
		}
	}

	if e.opts.EchoResults {
		e.echo(ctx, out.Results)
	}

	out.Path = append(out.Path, Done)
	return out, nil
}

// echo reports each successful result to the model in a separate call with
// no tools attached. Failures are logged and otherwise ignored.
func (e *Engine) echo(ctx context.Context, results []schema.InvocationResult) {
	for _, r := range results {
		if !r.OK() {
			continue
		}
		msgs := schema.NewMessages()
		msgs.AddAssistant("response of tool call: " + r.Text())
		if _, err := e.provider.Chat(ctx, msgs, nil, e.opts.Chat); err != nil {
			slog.Warn("Echo call failed", "name", r.ToolName, "err", err)
		}
	}
}
