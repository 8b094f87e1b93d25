// Package html extracts readable text from HTML uploads.
//
// Extraction first runs readability to isolate the article body; pages
// that do not look like an article fall back to a plain tag strip.
package html

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"

	quire "github.com/nevindra/quire"
	"github.com/nevindra/quire/parse"
)

// Engine extracts article text from HTML documents.
type Engine struct{}

// NewEngine creates an HTML engine.
func NewEngine() *Engine { return &Engine{} }

// Parse extracts the readable text of an HTML document. The article title,
// when readability finds one, becomes a markdown heading so structure
// detection can count it.
func (e *Engine) Parse(_ context.Context, req quire.ParseRequest) (*quire.ParseResult, error) {
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("empty HTML content")
	}
	src := string(req.Data)
	pageURL, _ := url.Parse("file:///" + url.PathEscape(req.Name))

	var text string
	article, err := readability.FromReader(strings.NewReader(src), pageURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		text = strings.TrimSpace(article.TextContent)
		if article.Title != "" {
			text = "# " + article.Title + "\n\n" + text
		}
	} else {
		text = stripTags(src)
	}

	return &quire.ParseResult{
		Text:      strings.TrimSpace(parse.Sanitize(text)),
		MediaType: parse.TypeHTML,
	}, nil
}

var _ quire.Parser = (*Engine)(nil)
