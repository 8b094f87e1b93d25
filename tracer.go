package quire

import "context"

// Tracer is the tracing seam for pipeline stages and provider calls. The
// pipeline opens one span per stage (pipeline.parse, pipeline.detect, and
// so on) when a Tracer is wired via WithTracer; with none configured, span
// creation is skipped entirely. The observer package supplies an
// OTEL-backed implementation through its NewTracer.
type Tracer interface {
	// Start opens a span and returns a child context carrying it. The
	// caller must End the returned span when the operation finishes.
	Start(ctx context.Context, name string, attrs ...SpanAttr) (context.Context, Span)
}

// Span is one traced operation.
type Span interface {
	// SetAttr attaches attributes after creation, for values only known
	// once the operation has run (page counts, byte sizes).
	SetAttr(attrs ...SpanAttr)
	// Event records a point-in-time annotation on the span.
	Event(name string, attrs ...SpanAttr)
	// Error records err and marks the span failed.
	Error(err error)
	// End completes the span. Call exactly once.
	End()
}

// SpanAttr is a key-value attribute on a span or event. Value should be a
// string, int, int64, float64, or bool; other types are stringified by the
// backend.
type SpanAttr struct {
	Key   string
	Value any
}

func StringAttr(k, v string) SpanAttr          { return SpanAttr{Key: k, Value: v} }
func IntAttr(k string, v int) SpanAttr         { return SpanAttr{Key: k, Value: v} }
func BoolAttr(k string, v bool) SpanAttr       { return SpanAttr{Key: k, Value: v} }
func Float64Attr(k string, v float64) SpanAttr { return SpanAttr{Key: k, Value: v} }
