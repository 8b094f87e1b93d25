package gemini

import "net/http"

// Option configures a Gemini provider.
type Option func(*Gemini)

// WithTemperature sets the sampling temperature. Default is 0.1.
func WithTemperature(t float64) Option {
	return func(g *Gemini) { g.temperature = t }
}

// WithTopP sets the nucleus sampling parameter. Default is 0.9.
func WithTopP(p float64) Option {
	return func(g *Gemini) { g.topP = p }
}

// WithMaxOutputTokens limits the number of tokens the model may generate.
// Zero means no explicit limit.
func WithMaxOutputTokens(n int) Option {
	return func(g *Gemini) { g.maxOutputTokens = n }
}

// WithThinking enables dynamic thinking on models that support it. When
// enabled the request carries a thinkingConfig with an unlimited budget.
func WithThinking(enabled bool) Option {
	return func(g *Gemini) { g.thinkingEnabled = enabled }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gemini) { g.httpClient = c }
}
