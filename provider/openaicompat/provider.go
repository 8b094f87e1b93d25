package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	quire "github.com/nevindra/quire"
)

// Provider implements quire.Provider for any OpenAI-compatible API. It uses
// the shared helpers in this package (BuildBody, StreamSSE, ParseResponse)
// to handle body building, streaming, and response parsing.
//
// Works with OpenAI, OpenRouter, Groq, Together, Fireworks, DeepSeek,
// Mistral, Ollama, vLLM, LM Studio, Azure OpenAI, and any other provider
// that implements the OpenAI chat completions API.
type Provider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	name    string
	opts    []Option
}

// NewProvider creates an OpenAI-compatible chat provider.
//
// baseURL is the API base (e.g. "https://api.openai.com/v1",
// "https://api.groq.com/openai/v1", "http://localhost:11434/v1"). The
// /chat/completions path is appended automatically.
//
// Provider-level options (via WithOptions) are applied to every request.
// Per-request options from BuildBody still work for callers using the
// helpers directly.
func NewProvider(apiKey, model, baseURL string, opts ...ProviderOption) *Provider {
	p := &Provider{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{},
		name:    "openai",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider name (default "openai", configurable via WithName).
func (p *Provider) Name() string { return p.name }

// requestOpts returns the provider's base options with per-request overrides
// appended. Per-request params win because options are applied in order.
func (p *Provider) requestOpts(req quire.ChatRequest) []Option {
	opts := make([]Option, len(p.opts), len(p.opts)+4)
	copy(opts, p.opts)
	if gp := req.GenerationParams; gp != nil {
		if gp.Temperature != nil {
			opts = append(opts, WithTemperature(*gp.Temperature))
		}
		if gp.TopP != nil {
			opts = append(opts, WithTopP(*gp.TopP))
		}
		if gp.MaxTokens != nil {
			opts = append(opts, WithMaxTokens(*gp.MaxTokens))
		}
	}
	if req.JSONOutput {
		opts = append(opts, WithJSONObject())
	}
	return opts
}

// Chat sends a non-streaming chat request and returns the complete response.
func (p *Provider) Chat(ctx context.Context, req quire.ChatRequest) (quire.ChatResponse, error) {
	body := BuildBody(req.Messages, p.model, p.requestOpts(req)...)
	return p.doRequest(ctx, body)
}

// ChatStream streams text-delta events into ch, then returns the final
// accumulated response. The channel is closed when streaming completes (via
// StreamSSE) or on error.
func (p *Provider) ChatStream(ctx context.Context, req quire.ChatRequest, ch chan<- quire.StreamEvent) (quire.ChatResponse, error) {
	body := BuildBody(req.Messages, p.model, p.requestOpts(req)...)
	body.Stream = true
	body.StreamOptions = &StreamOptions{IncludeUsage: true}

	resp, err := p.sendHTTP(ctx, body)
	if err != nil {
		close(ch)
		return quire.ChatResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		close(ch)
		return quire.ChatResponse{}, p.httpErr(resp)
	}

	// StreamSSE closes ch when done.
	return StreamSSE(ctx, resp.Body, ch)
}

// ListModels enumerates the models visible on the endpoint via GET /models.
func (p *Provider) ListModels(ctx context.Context) ([]quire.ModelInfo, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return nil, &quire.ErrLLM{Provider: p.name, Message: fmt.Sprintf("create request: %v", err)}
	}
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, p.httpErr(resp)
	}

	var list ModelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, &quire.ErrLLM{Provider: p.name, Message: fmt.Sprintf("decode response: %v", err)}
	}

	out := make([]quire.ModelInfo, 0, len(list.Data))
	for _, m := range list.Data {
		out = append(out, quire.ModelInfo{ID: m.ID, OwnedBy: m.OwnedBy, Created: m.Created})
	}
	return out, nil
}

// doRequest sends a non-streaming request and parses the response.
func (p *Provider) doRequest(ctx context.Context, body ChatRequest) (quire.ChatResponse, error) {
	resp, err := p.sendHTTP(ctx, body)
	if err != nil {
		return quire.ChatResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return quire.ChatResponse{}, p.httpErr(resp)
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return quire.ChatResponse{}, &quire.ErrLLM{Provider: p.name, Message: fmt.Sprintf("decode response: %v", err)}
	}

	return ParseResponse(chatResp)
}

// sendHTTP marshals the request body and sends it to the chat completions
// endpoint.
func (p *Provider) sendHTTP(ctx context.Context, body ChatRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &quire.ErrLLM{Provider: p.name, Message: fmt.Sprintf("marshal request: %v", err)}
	}

	url := p.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &quire.ErrLLM{Provider: p.name, Message: fmt.Sprintf("create request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	return p.client.Do(httpReq)
}

// httpErr reads the response body and returns an ErrHTTP for retry
// middleware. Parses the Retry-After header when present (429/503).
func (p *Provider) httpErr(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return &quire.ErrHTTP{
		Status:     resp.StatusCode,
		Body:       string(body),
		RetryAfter: quire.ParseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

// Compile-time interface checks.
var _ quire.Provider = (*Provider)(nil)
var _ quire.ModelLister = (*Provider)(nil)
