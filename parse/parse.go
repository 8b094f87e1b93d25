// Package parse turns raw uploads into extracted text and embedded images.
//
// A Mux inspects the upload's media type and routes it to the registered
// engine: parse/pdf for PDF files, parse/llamaparse for the managed parsing
// API, parse/html for web pages, and the built-in Text engine for plain
// text and markdown. Heavy engines live in subpackages so their
// dependencies are only pulled in by users who need them.
package parse

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	quire "github.com/nevindra/quire"
)

// Media types the built-in engines handle.
const (
	TypePDF      = "application/pdf"
	TypeHTML     = "text/html"
	TypePlain    = "text/plain"
	TypeMarkdown = "text/markdown"
)

// typeFromExtension maps file extensions to media types for uploads whose
// content sniffs as generic text or binary.
func typeFromExtension(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "pdf":
		return TypePDF
	case "md", "markdown":
		return TypeMarkdown
	case "html", "htm":
		return TypeHTML
	case "txt", "text", "log":
		return TypePlain
	default:
		return ""
	}
}

// DetectMediaType sniffs the media type of raw content, falling back to
// the filename extension when sniffing is inconclusive. Markdown, for
// example, sniffs as plain text and is only recognizable by extension.
func DetectMediaType(name string, data []byte) string {
	mt, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	mt = strings.TrimSpace(mt)
	if mt == TypePlain || mt == "application/octet-stream" {
		if byExt := typeFromExtension(filepath.Ext(name)); byExt != "" {
			return byExt
		}
	}
	return mt
}

// Mux routes parse requests to the engine registered for their media type.
type Mux struct {
	engines map[string]quire.Parser
}

// Option configures a Mux.
type Option func(*Mux)

// WithEngine registers an engine for a media type, replacing any previous
// registration for that type.
func WithEngine(mediaType string, p quire.Parser) Option {
	return func(m *Mux) { m.engines[mediaType] = p }
}

// NewMux creates a Mux with the Text engine pre-registered for plain text
// and markdown.
func NewMux(opts ...Option) *Mux {
	m := &Mux{engines: map[string]quire.Parser{
		TypePlain:    Text{},
		TypeMarkdown: Text{},
	}}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Parse dispatches the request to the engine for its media type, sniffing
// the content first when the request does not name one. Requests for types
// with no registered engine fail with quire.ErrUnsupportedType.
func (m *Mux) Parse(ctx context.Context, req quire.ParseRequest) (*quire.ParseResult, error) {
	mt := req.MediaType
	if mt == "" {
		mt = DetectMediaType(req.Name, req.Data)
	}
	eng, ok := m.engines[mt]
	if !ok {
		return nil, fmt.Errorf("%s: %w", mt, quire.ErrUnsupportedType)
	}
	req.MediaType = mt
	return eng.Parse(ctx, req)
}

var _ quire.Parser = (*Mux)(nil)
