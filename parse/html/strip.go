package html

import (
	"strings"

	xhtml "golang.org/x/net/html"
)

// stripTags is the fallback for pages readability rejects: markup is
// dropped, script and style bodies skipped, and block boundaries become
// line breaks. Text tokens arrive entity-decoded from the tokenizer.
func stripTags(src string) string {
	z := xhtml.NewTokenizer(strings.NewReader(src))
	var b strings.Builder
	skipDepth := 0
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return collapseWhitespace(b.String())
		case xhtml.StartTagToken:
			name, _ := z.TagName()
			if isRawTextTag(string(name)) {
				skipDepth++
			}
			if isBlockTag(string(name)) {
				b.WriteByte('\n')
			}
		case xhtml.EndTagToken:
			name, _ := z.TagName()
			if isRawTextTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}
			if isBlockTag(string(name)) {
				b.WriteByte('\n')
			}
		case xhtml.SelfClosingTagToken:
			name, _ := z.TagName()
			if isBlockTag(string(name)) {
				b.WriteByte('\n')
			}
		case xhtml.TextToken:
			if skipDepth == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawTextTag(tag string) bool {
	switch tag {
	case "script", "style", "noscript", "template":
		return true
	}
	return false
}

func isBlockTag(tag string) bool {
	switch tag {
	case "p", "div", "br", "hr", "h1", "h2", "h3", "h4", "h5", "h6",
		"li", "ul", "ol", "table", "tr", "blockquote", "pre",
		"section", "article", "header", "footer", "nav", "main":
		return true
	}
	return false
}

// collapseWhitespace trims lines and squeezes runs of blank lines down to
// one blank line.
func collapseWhitespace(s string) string {
	var out strings.Builder
	blank := 0
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			blank++
			continue
		}
		if out.Len() > 0 {
			out.WriteByte('\n')
			if blank > 0 {
				out.WriteByte('\n')
			}
		}
		out.WriteString(line)
		blank = 0
	}
	return out.String()
}
