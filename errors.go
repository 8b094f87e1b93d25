package quire

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Sentinel errors for pipeline gate conditions.
var (
	// ErrEmptyDocument reports a parse that produced no text at all.
	ErrEmptyDocument = errors.New("document produced no text")
	// ErrTextTooShort reports input below the transform minimum length.
	ErrTextTooShort = errors.New("text too short to transform")
	// ErrUnsupportedType reports an upload with no matching parser.
	ErrUnsupportedType = errors.New("unsupported media type")
	// ErrUnsupportedFormat reports an export format no writer handles.
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrNotFound reports a store lookup that matched no record.
	ErrNotFound = errors.New("not found")
)

// ErrLLM is a provider-level failure (marshaling, transport, decoding).
type ErrLLM struct {
	Provider string
	Message  string
}

func (e *ErrLLM) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// ErrHTTP is a non-2xx response from a remote API. RetryAfter carries the
// server's requested delay when the response included one; retry middleware
// uses it as a floor.
type ErrHTTP struct {
	Status     int
	Body       string
	RetryAfter time.Duration
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}

// ParseRetryAfter parses an HTTP Retry-After header value. Supports the
// delta-seconds form and the HTTP-date form. Returns 0 when absent or
// unparseable, or when the date is already past.
func ParseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := time.Parse(time.RFC1123, v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
