package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/toolbridge/toolbridge/internal/schema"
)

const (
	defaultAPIBase   = "https://api.openai.com/v1"
	defaultMaxTokens = 4096
	maxErrorBody     = 2048
)

// OpenAIProvider makes direct HTTP calls to any OpenAI-compatible
// /chat/completions endpoint.
type OpenAIProvider struct {
	apiKey       string
	apiBase      string
	defaultModel string
	extraHeaders map[string]string
	gateway      *ProviderSpec // non-nil when routing through a gateway
	httpClient   *http.Client
}

// NewOpenAIProvider constructs a provider from raw config values.
func NewOpenAIProvider(apiKey, apiBase, defaultModel, providerName string, extraHeaders map[string]string) *OpenAIProvider {
	gateway := FindGateway(providerName, apiKey, apiBase)

	effectiveBase := apiBase
	if effectiveBase == "" {
		if spec := FindByName(providerName); spec != nil && spec.DefaultAPIBase != "" {
			effectiveBase = spec.DefaultAPIBase
		} else if gateway != nil && gateway.DefaultAPIBase != "" {
			effectiveBase = gateway.DefaultAPIBase
		} else {
			effectiveBase = defaultAPIBase
		}
	}

	return &OpenAIProvider{
		apiKey:       apiKey,
		apiBase:      strings.TrimRight(effectiveBase, "/"),
		defaultModel: defaultModel,
		extraHeaders: extraHeaders,
		gateway:      gateway,
		httpClient:   &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *OpenAIProvider) DefaultModel() string { return p.defaultModel }

// APIBase returns the resolved endpoint root.
func (p *OpenAIProvider) APIBase() string { return p.apiBase }

// Chat implements schema.LLMProvider.
func (p *OpenAIProvider) Chat(
	ctx context.Context,
	messages schema.Messages,
	tools []schema.FunctionTool,
	opts schema.ChatOptions,
) (schema.LLMResponse, error) {
	model := opts.Model
	if model == "" {
		model = p.defaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	body := map[string]any{
		"model":       p.resolveModel(model),
		"messages":    messages.WireMaps(),
		"max_tokens":  maxTokens,
		"temperature": opts.Temperature,
	}
	if len(tools) > 0 {
		body["tools"] = tools
		body["tool_choice"] = "auto"
	}

	data, err := json.Marshal(body)
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := p.apiBase + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	for k, v := range p.extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return schema.LLMResponse{}, &schema.UpstreamTransportError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       friendlyHTTPError(resp.StatusCode, raw),
		}
	}

	out, err := parseOpenAIResponse(raw)
	if err != nil {
		return schema.LLMResponse{}, err
	}
	slog.Debug("LLM response",
		"model", model,
		"finish", out.FinishReason,
		"tool_calls", len(out.ToolCalls),
		"total_tokens", out.Usage["total_tokens"],
	)
	return out, nil
}

// resolveModel strips a gateway's own routing prefix ("openrouter/") from
// the model name. Gateways that want bare names drop every prefix.
func (p *OpenAIProvider) resolveModel(model string) string {
	if p.gateway == nil {
		return model
	}
	if p.gateway.StripModelPrefix {
		if i := strings.LastIndex(model, "/"); i >= 0 {
			return model[i+1:]
		}
		return model
	}
	if pfx := p.gateway.Name + "/"; strings.HasPrefix(strings.ToLower(model), pfx) {
		return model[len(pfx):]
	}
	return model
}

// openAIRespBody is the subset of the chat completion response we care about.
type openAIRespBody struct {
	Choices []struct {
		Message struct {
			Content   *string `json:"content"`
			ToolCalls []struct {
				ID       string `json:"id"`
				Type     string `json:"type"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// parseOpenAIResponse keeps tool-call arguments as the raw text the model
// produced; decoding them is the dispatch engine's job.
func parseOpenAIResponse(raw []byte) (schema.LLMResponse, error) {
	var body openAIRespBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return schema.LLMResponse{}, fmt.Errorf("parse OpenAI response: %w", err)
	}
	if len(body.Choices) == 0 {
		return schema.LLMResponse{}, errors.New("empty choices in response")
	}

	choice := body.Choices[0]
	var content *string
	if c := choice.Message.Content; c != nil && *c != "" {
		content = c
	}

	var calls []schema.InvocationRequest
	for _, tc := range choice.Message.ToolCalls {
		calls = append(calls, schema.InvocationRequest{
			ID:           tc.ID,
			ToolName:     tc.Function.Name,
			RawArguments: tc.Function.Arguments,
		})
	}

	finish := choice.FinishReason
	if finish == "" {
		finish = "stop"
	}

	return schema.LLMResponse{
		Content:      content,
		ToolCalls:    calls,
		FinishReason: finish,
		Usage: map[string]int{
			"prompt_tokens":     body.Usage.PromptTokens,
			"completion_tokens": body.Usage.CompletionTokens,
			"total_tokens":      body.Usage.TotalTokens,
		},
	}, nil
}

func friendlyHTTPError(code int, body []byte) string {
	if code == http.StatusTooManyRequests {
		return "rate limit exceeded"
	}
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody]
	}
	return s
}
