package quire

import "context"

// Provider abstracts the LLM backend.
type Provider interface {
	// Chat sends a request and returns a complete response.
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
	// ChatStream streams text-delta events into ch, then returns the final
	// response with usage stats. Implementations close ch before returning.
	ChatStream(ctx context.Context, req ChatRequest, ch chan<- StreamEvent) (ChatResponse, error)
	// Name returns the provider name (e.g. "openai", "gemini").
	Name() string
}

// ModelLister is implemented by providers whose endpoint can enumerate
// available models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}
