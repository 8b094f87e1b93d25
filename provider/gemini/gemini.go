// Package gemini implements the Google Gemini chat provider.
package gemini

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	quire "github.com/nevindra/quire"
)

var baseURL = "https://generativelanguage.googleapis.com/v1beta"

// Gemini implements quire.Provider for Google Gemini models.
type Gemini struct {
	apiKey     string
	model      string
	httpClient *http.Client

	temperature     float64
	topP            float64
	maxOutputTokens int
	thinkingEnabled bool
}

// New creates a new Gemini chat provider with functional options.
func New(apiKey, model string, opts ...Option) *Gemini {
	g := &Gemini{
		apiKey:      apiKey,
		model:       model,
		httpClient:  &http.Client{},
		temperature: 0.1,
		topP:        0.9,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns "gemini".
func (g *Gemini) Name() string { return "gemini" }

// Chat sends a non-streaming chat request and returns the complete response.
func (g *Gemini) Chat(ctx context.Context, req quire.ChatRequest) (quire.ChatResponse, error) {
	return g.doGenerate(ctx, g.buildBody(req))
}

// ChatStream streams text-delta events into ch, then returns the final
// accumulated response. The channel is closed when streaming completes.
func (g *Gemini) ChatStream(ctx context.Context, req quire.ChatRequest, ch chan<- quire.StreamEvent) (quire.ChatResponse, error) {
	defer close(ch)

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s", baseURL, g.model, g.apiKey)

	payload, err := json.Marshal(g.buildBody(req))
	if err != nil {
		return quire.ChatResponse{}, g.wrapErr("marshal body: " + err.Error())
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(payload)))
	if err != nil {
		return quire.ChatResponse{}, g.wrapErr("create request: " + err.Error())
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return quire.ChatResponse{}, g.wrapErr("stream request failed: " + err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return quire.ChatResponse{}, httpErr(resp, string(b))
	}

	var fullContent strings.Builder
	var usage quire.Usage
	var model string

	scanner := bufio.NewScanner(resp.Body)
	// Large buffer for SSE payloads.
	scanner.Buffer(make([]byte, 0, 4*1024*1024), 4*1024*1024)

	// Gemini sometimes splits one JSON chunk across multiple SSE lines, so
	// accumulate until braces balance.
	var jsonBuf strings.Builder

	for scanner.Scan() {
		line := scanner.Text()

		if !strings.HasPrefix(line, "data: ") {
			if jsonBuf.Len() > 0 {
				jsonBuf.WriteString(line)
				if isCompleteJSON(jsonBuf.String()) {
					g.processStreamChunk(jsonBuf.String(), &fullContent, &usage, &model, ch)
					jsonBuf.Reset()
				}
			}
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "" {
			continue
		}

		if isCompleteJSON(data) {
			g.processStreamChunk(data, &fullContent, &usage, &model, ch)
		} else {
			jsonBuf.Reset()
			jsonBuf.WriteString(data)
		}
	}

	// Process any remaining buffered JSON.
	if jsonBuf.Len() > 0 && isCompleteJSON(jsonBuf.String()) {
		g.processStreamChunk(jsonBuf.String(), &fullContent, &usage, &model, ch)
	}

	if err := scanner.Err(); err != nil {
		return quire.ChatResponse{}, g.wrapErr("read stream: " + err.Error())
	}

	if model == "" {
		model = g.model
	}
	return quire.ChatResponse{
		Content: fullContent.String(),
		Model:   model,
		Usage:   usage,
	}, nil
}

// processStreamChunk parses a single JSON chunk from the SSE stream,
// extracts text deltas and usage, and sends text to the channel.
func (g *Gemini) processStreamChunk(jsonStr string, fullContent *strings.Builder, usage *quire.Usage, model *string, ch chan<- quire.StreamEvent) {
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return
	}

	// Extract text from candidates[0].content.parts[].text.
	text := extractTextFromParsed(parsed)
	if text != "" {
		fullContent.WriteString(text)
		ch <- quire.StreamEvent{Type: quire.EventTextDelta, Content: text}
	}

	if raw, ok := parsed["modelVersion"]; ok {
		var mv string
		if json.Unmarshal(raw, &mv) == nil && mv != "" {
			*model = mv
		}
	}

	// Extract usage metadata (overwrite each time; last chunk wins).
	extractUsageFromParsed(parsed, usage)
}

// doGenerate performs a non-streaming generateContent call and parses the
// response.
func (g *Gemini) doGenerate(ctx context.Context, body map[string]any) (quire.ChatResponse, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", baseURL, g.model, g.apiKey)

	payload, err := json.Marshal(body)
	if err != nil {
		return quire.ChatResponse{}, g.wrapErr("marshal body: " + err.Error())
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(payload)))
	if err != nil {
		return quire.ChatResponse{}, g.wrapErr("create request: " + err.Error())
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return quire.ChatResponse{}, g.wrapErr("request failed: " + err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return quire.ChatResponse{}, g.wrapErr("failed to read response body: " + err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return quire.ChatResponse{}, httpErr(resp, string(respBody))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return quire.ChatResponse{}, g.wrapErr("failed to parse response JSON: " + err.Error())
	}

	var content strings.Builder
	if len(parsed.Candidates) > 0 {
		for _, part := range parsed.Candidates[0].Content.Parts {
			// Skip thinking parts (thought: true).
			if part.Thought {
				continue
			}
			if part.Text != nil {
				content.WriteString(*part.Text)
			}
		}
	}

	var usage quire.Usage
	if parsed.UsageMetadata != nil {
		usage.InputTokens = parsed.UsageMetadata.PromptTokenCount
		usage.OutputTokens = parsed.UsageMetadata.CandidatesTokenCount
	}

	model := parsed.ModelVersion
	if model == "" {
		model = g.model
	}

	return quire.ChatResponse{
		Content: content.String(),
		Model:   model,
		Usage:   usage,
	}, nil
}

func (g *Gemini) wrapErr(msg string) error {
	return &quire.ErrLLM{Provider: "gemini", Message: msg}
}

// httpErr creates an ErrHTTP from an HTTP response, extracting the retry
// delay from the Retry-After header or from the Gemini-specific
// google.rpc.RetryInfo detail in the JSON error body.
func httpErr(resp *http.Response, body string) *quire.ErrHTTP {
	ra := quire.ParseRetryAfter(resp.Header.Get("Retry-After"))
	if ra == 0 {
		ra = parseRetryInfo(body)
	}
	return &quire.ErrHTTP{
		Status:     resp.StatusCode,
		Body:       body,
		RetryAfter: ra,
	}
}

// parseRetryInfo extracts the retryDelay from a Gemini error body containing
// a google.rpc.RetryInfo detail. Returns 0 if not found or unparseable.
func parseRetryInfo(body string) time.Duration {
	var envelope struct {
		Error struct {
			Details []json.RawMessage `json:"details"`
		} `json:"error"`
	}
	if json.Unmarshal([]byte(body), &envelope) != nil {
		return 0
	}
	for _, raw := range envelope.Error.Details {
		var detail struct {
			Type       string `json:"@type"`
			RetryDelay string `json:"retryDelay"`
		}
		if json.Unmarshal(raw, &detail) != nil {
			continue
		}
		if detail.Type == "type.googleapis.com/google.rpc.RetryInfo" && detail.RetryDelay != "" {
			if d, err := time.ParseDuration(detail.RetryDelay); err == nil {
				return d
			}
		}
	}
	return 0
}

// ---- Body builder ----

// buildBody constructs the Gemini API request body from the chat request.
// System messages are accumulated into systemInstruction, everything else
// lands in contents with roles mapped to the Gemini vocabulary.
func (g *Gemini) buildBody(req quire.ChatRequest) map[string]any {
	var systemParts []string
	var contents []map[string]any

	for _, m := range req.Messages {
		if m.Role == "system" {
			systemParts = append(systemParts, m.Content)
			continue
		}
		contents = append(contents, map[string]any{
			"role": mapRole(m.Role),
			"parts": []map[string]any{
				{"text": m.Content},
			},
		})
	}

	body := map[string]any{
		"contents": contents,
	}

	if len(systemParts) > 0 {
		body["systemInstruction"] = map[string]any{
			"parts": []map[string]any{
				{"text": strings.Join(systemParts, "\n\n")},
			},
		}
	}

	temperature := g.temperature
	topP := g.topP
	maxTokens := g.maxOutputTokens
	if gp := req.GenerationParams; gp != nil {
		if gp.Temperature != nil {
			temperature = *gp.Temperature
		}
		if gp.TopP != nil {
			topP = *gp.TopP
		}
		if gp.MaxTokens != nil {
			maxTokens = *gp.MaxTokens
		}
	}

	genConfig := map[string]any{
		"temperature": temperature,
		"topP":        topP,
	}
	if maxTokens > 0 {
		genConfig["maxOutputTokens"] = maxTokens
	}
	if g.thinkingEnabled {
		genConfig["thinkingConfig"] = map[string]any{
			"thinkingBudget": -1,
		}
	}
	if req.JSONOutput {
		genConfig["responseMimeType"] = "application/json"
	}
	body["generationConfig"] = genConfig

	return body
}

// mapRole converts standard roles to Gemini API roles.
func mapRole(role string) string {
	if role == "assistant" {
		return "model"
	}
	return role
}

// ---- Response parsing types ----

type geminiResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata *geminiUsage      `json:"usageMetadata"`
	ModelVersion  string            `json:"modelVersion"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role"`
}

type geminiPart struct {
	Text    *string `json:"text,omitempty"`
	Thought bool    `json:"thought,omitempty"`
}

type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}

// ---- Stream helpers ----

// extractTextFromParsed extracts concatenated text from
// candidates[0].content.parts[].text in a raw parsed JSON map.
func extractTextFromParsed(parsed map[string]json.RawMessage) string {
	candidatesRaw, ok := parsed["candidates"]
	if !ok {
		return ""
	}

	var candidates []json.RawMessage
	if err := json.Unmarshal(candidatesRaw, &candidates); err != nil || len(candidates) == 0 {
		return ""
	}

	var candidate struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	}
	if err := json.Unmarshal(candidates[0], &candidate); err != nil {
		return ""
	}

	var sb strings.Builder
	for _, p := range candidate.Content.Parts {
		if p.Thought {
			continue
		}
		if p.Text != nil {
			sb.WriteString(*p.Text)
		}
	}
	return sb.String()
}

// extractUsageFromParsed extracts usage metadata from the parsed response.
func extractUsageFromParsed(parsed map[string]json.RawMessage, usage *quire.Usage) {
	usageRaw, ok := parsed["usageMetadata"]
	if !ok {
		return
	}

	var u geminiUsage
	if err := json.Unmarshal(usageRaw, &u); err != nil {
		return
	}

	if u.PromptTokenCount > 0 || u.CandidatesTokenCount > 0 {
		usage.InputTokens = u.PromptTokenCount
		usage.OutputTokens = u.CandidatesTokenCount
	}
}

// isCompleteJSON checks whether a string has balanced braces/brackets,
// indicating it is a complete JSON value.
func isCompleteJSON(s string) bool {
	depth := 0
	inString := false
	escape := false

	for _, ch := range s {
		if escape {
			escape = false
			continue
		}
		if ch == '\\' && inString {
			escape = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch ch {
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		}
	}
	return depth == 0 && !inString
}

// Compile-time interface check.
var _ quire.Provider = (*Gemini)(nil)
