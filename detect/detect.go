// Package detect identifies the language and markdown structure of
// extracted text.
//
// Table and image checks are regex-based presence signals over the
// extracted markdown. The structure scan walks the goldmark AST for
// exact counts.
package detect

import (
	"regexp"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	gtext "github.com/yuin/goldmark/text"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	quire "github.com/nevindra/quire"
)

var (
	// tableRe matches a pipe row followed by a pipe-and-dashes separator
	// row, the shape every markdown table renderer emits.
	tableRe = regexp.MustCompile(`\|\s?.*\|\s?\n\|\s?-+`)
	// imageRe matches inline markdown image syntax.
	imageRe = regexp.MustCompile(`!\[.*?\]\(.*?\)`)
)

// HasTables reports whether text contains a markdown table.
func HasTables(text string) bool { return tableRe.MatchString(text) }

// HasImages reports whether text references an image, either as a bare
// extraction placeholder or as inline markdown image syntax.
func HasImages(text string) bool {
	return strings.Contains(text, "![image]") || imageRe.MatchString(text)
}

// Detector implements quire.Analyzer. It is stateless after construction
// and safe for concurrent use.
type Detector struct {
	md goldmark.Markdown
}

// New creates a Detector.
func New() *Detector {
	return &Detector{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Analyze runs language detection and structure scanning over text.
func (d *Detector) Analyze(text string) quire.Analysis {
	return quire.Analysis{
		Language:  Language(text),
		HasTables: HasTables(text),
		HasImages: HasImages(text),
		Structure: d.Scan(text),
	}
}

// Language detects the dominant language of text. Empty or undetectable
// text is reported as unknown rather than guessed.
func Language(text string) quire.Language {
	text = strings.TrimSpace(text)
	if text == "" {
		return quire.Language{Code: "unknown", Name: "Unknown"}
	}

	info := whatlanggo.Detect(text)
	iso3 := whatlanggo.LangToString(info.Lang)
	if iso3 == "" {
		return quire.Language{Code: "unknown", Name: "Unknown"}
	}

	// Parsing the ISO 639-3 code canonicalizes it to the two-letter form
	// when one exists ("eng" to "en").
	code := iso3
	name := info.Lang.String()
	if tag, err := language.Parse(iso3); err == nil {
		code = tag.String()
		if disp := display.English.Languages().Name(tag); disp != "" {
			name = disp
		}
	}
	return quire.Language{Code: code, Name: name, Confidence: info.Confidence}
}

// Scan counts markdown structure by walking the goldmark AST.
func (d *Detector) Scan(src string) quire.Structure {
	var s quire.Structure
	root := d.md.Parser().Parse(gtext.NewReader([]byte(src)))
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindHeading:
			s.Headings++
		case ast.KindImage:
			s.Images++
		case ast.KindLink, ast.KindAutoLink:
			s.Links++
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			s.CodeBlocks++
		case ast.KindList:
			s.Lists++
		case extast.KindTable:
			s.Tables++
		}
		return ast.WalkContinue, nil
	})
	return s
}

// Compile-time interface check.
var _ quire.Analyzer = (*Detector)(nil)
