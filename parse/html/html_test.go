package html

import (
	"context"
	"strings"
	"testing"

	quire "github.com/nevindra/quire"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
<title>Quarterly Review</title>
<style>body { color: red; }</style>
<script>var tracking = "beacon";</script>
</head>
<body>
<nav>Home | About</nav>
<article>
<h1>Quarterly Review</h1>
<p>Revenue grew by twelve percent over the previous quarter, driven by
strong demand in the enterprise segment and better retention.</p>
<p>Operating costs stayed flat thanks to the migration finished in March,
which consolidated three clusters into one.</p>
</article>
</body>
</html>`

func TestParseExtractsBodyText(t *testing.T) {
	res, err := NewEngine().Parse(context.Background(), quire.ParseRequest{
		Name: "review.html",
		Data: []byte(samplePage),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Text, "Revenue grew by twelve percent") {
		t.Errorf("body text missing from %q", res.Text)
	}
	if strings.Contains(res.Text, "<p>") || strings.Contains(res.Text, "<article>") {
		t.Errorf("markup leaked into %q", res.Text)
	}
	if strings.Contains(res.Text, "tracking") || strings.Contains(res.Text, "color: red") {
		t.Errorf("script or style content leaked into %q", res.Text)
	}
	if res.MediaType != "text/html" {
		t.Errorf("got media type %q, want text/html", res.MediaType)
	}
}

func TestParseEmptyContent(t *testing.T) {
	if _, err := NewEngine().Parse(context.Background(), quire.ParseRequest{Name: "a.html"}); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestStripTags(t *testing.T) {
	got := stripTags(`<div><h1>Title</h1><script>evil()</script><p>Ben &amp; Jerry</p></div>`)
	if !strings.Contains(got, "Title") {
		t.Errorf("heading text missing from %q", got)
	}
	if !strings.Contains(got, "Ben & Jerry") {
		t.Errorf("entity not decoded in %q", got)
	}
	if strings.Contains(got, "evil") {
		t.Errorf("script body leaked into %q", got)
	}
	if strings.Contains(got, "<") {
		t.Errorf("markup leaked into %q", got)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	got := collapseWhitespace("  one  \n\n\n\n  two  \n\n three ")
	want := "one\n\ntwo\n\nthree"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
