package openaicompat

import (
	"context"
	"strings"
	"testing"

	quire "github.com/nevindra/quire"
)

// buildSSE constructs a mock SSE stream from data lines.
func buildSSE(lines ...string) string {
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString("data: ")
		sb.WriteString(line)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func collectStream(t *testing.T, sse string) (quire.ChatResponse, []quire.StreamEvent) {
	t.Helper()

	ch := make(chan quire.StreamEvent, 32)
	resp, err := StreamSSE(context.Background(), strings.NewReader(sse), ch)
	if err != nil {
		t.Fatalf("StreamSSE returned error: %v", err)
	}

	var events []quire.StreamEvent
	for ev := range ch {
		events = append(events, ev)
	}
	return resp, events
}

func TestStreamSSE_TextChunks(t *testing.T) {
	sse := buildSSE(
		`{"id":"chatcmpl-1","choices":[{"index":0,"delta":{"role":"assistant","content":""}}]}`,
		`{"id":"chatcmpl-1","choices":[{"index":0,"delta":{"content":"Hello"}}]}`,
		`{"id":"chatcmpl-1","choices":[{"index":0,"delta":{"content":" world"}}]}`,
		`{"id":"chatcmpl-1","choices":[{"index":0,"delta":{"content":"!"}}]}`,
		`{"id":"chatcmpl-1","choices":[{"index":0,"delta":{},"finish_reason":"stop"}],"usage":{"prompt_tokens":5,"completion_tokens":3,"total_tokens":8}}`,
		"[DONE]",
	)

	resp, events := collectStream(t, sse)

	if resp.Content != "Hello world!" {
		t.Errorf("expected content 'Hello world!', got %q", resp.Content)
	}
	// Should have received 3 non-empty deltas.
	if len(events) != 3 {
		t.Errorf("expected 3 deltas, got %d: %v", len(events), events)
	}
	for _, ev := range events {
		if ev.Type != quire.EventTextDelta {
			t.Errorf("expected text-delta event, got %s", ev.Type)
		}
	}
	if resp.Usage.InputTokens != 5 {
		t.Errorf("expected 5 input tokens, got %d", resp.Usage.InputTokens)
	}
	if resp.Usage.OutputTokens != 3 {
		t.Errorf("expected 3 output tokens, got %d", resp.Usage.OutputTokens)
	}
}

func TestStreamSSE_ModelCarried(t *testing.T) {
	sse := buildSSE(
		`{"id":"chatcmpl-2","model":"gpt-4o-mini","choices":[{"index":0,"delta":{"content":"Hi"}}]}`,
		"[DONE]",
	)

	resp, _ := collectStream(t, sse)
	if resp.Model != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %q", resp.Model)
	}
}

func TestStreamSSE_EmptyStream(t *testing.T) {
	resp, events := collectStream(t, buildSSE("[DONE]"))

	if resp.Content != "" {
		t.Errorf("expected empty content, got %q", resp.Content)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestStreamSSE_UsageOnlyChunk(t *testing.T) {
	// Some providers send a final chunk with usage and no choices.
	sse := buildSSE(
		`{"id":"chatcmpl-3","choices":[{"index":0,"delta":{"content":"Hi"}}]}`,
		`{"id":"chatcmpl-3","choices":[],"usage":{"prompt_tokens":9,"completion_tokens":1,"total_tokens":10}}`,
		"[DONE]",
	)

	resp, _ := collectStream(t, sse)

	if resp.Content != "Hi" {
		t.Errorf("expected content 'Hi', got %q", resp.Content)
	}
	if resp.Usage.InputTokens != 9 || resp.Usage.OutputTokens != 1 {
		t.Errorf("unexpected usage: %+v", resp.Usage)
	}
}

func TestStreamSSE_SkipsMalformedChunks(t *testing.T) {
	sse := buildSSE(
		`{"id":"chatcmpl-4","choices":[{"index":0,"delta":{"content":"A"}}]}`,
		`{not valid json`,
		`{"id":"chatcmpl-4","choices":[{"index":0,"delta":{"content":"B"}}]}`,
		"[DONE]",
	)

	resp, events := collectStream(t, sse)

	if resp.Content != "AB" {
		t.Errorf("expected content 'AB', got %q", resp.Content)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 events, got %d", len(events))
	}
}

func TestStreamSSE_NonDataLinesIgnored(t *testing.T) {
	sse := ": keep-alive comment\n\n" +
		"event: message\n" +
		buildSSE(
			`{"id":"chatcmpl-5","choices":[{"index":0,"delta":{"content":"Hi"}}]}`,
			"[DONE]",
		)

	resp, _ := collectStream(t, sse)
	if resp.Content != "Hi" {
		t.Errorf("expected content 'Hi', got %q", resp.Content)
	}
}
