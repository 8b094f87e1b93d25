package parse

import (
	"context"
	"strings"

	quire "github.com/nevindra/quire"
)

// Text is the passthrough engine for plain text and markdown uploads.
// Markdown is kept intact so table and image detection can operate on it.
type Text struct{}

func (Text) Parse(_ context.Context, req quire.ParseRequest) (*quire.ParseResult, error) {
	mt := req.MediaType
	if mt == "" {
		mt = DetectMediaType(req.Name, req.Data)
	}
	return &quire.ParseResult{
		Text:      strings.TrimSpace(Sanitize(string(req.Data))),
		MediaType: mt,
	}, nil
}

var _ quire.Parser = Text{}
