package quire

// StreamEventType identifies the kind of streaming event.
type StreamEventType string

const (
	// EventTextDelta carries an incremental text chunk from the LLM.
	EventTextDelta StreamEventType = "text-delta"
)

// StreamEvent is a typed event emitted during provider streaming.
type StreamEvent struct {
	// Type identifies the event kind.
	Type StreamEventType `json:"type"`
	// Content carries the text delta.
	Content string `json:"content,omitempty"`
}
