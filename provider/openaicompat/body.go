package openaicompat

import (
	quire "github.com/nevindra/quire"
)

// BuildBody converts chat messages and a model name into an OpenAI-format
// ChatRequest. System messages are kept in the messages array as
// role:"system". Options configure generation parameters (temperature,
// top_p, etc.).
func BuildBody(messages []quire.ChatMessage, model string, opts ...Option) ChatRequest {
	msgs := make([]Message, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, Message{Role: m.Role, Content: m.Content})
	}

	req := ChatRequest{
		Model:    model,
		Messages: msgs,
	}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}
