package quire

import "context"

// Parser abstracts a text and image extraction engine. Implementations live
// in parse/pdf (pure Go), parse/llamaparse (managed parsing API), and
// parse/html; parse.Mux dispatches on media type.
type Parser interface {
	// Parse extracts text and embedded images from a raw document.
	Parse(ctx context.Context, req ParseRequest) (*ParseResult, error)
}

// ParseRequest is a raw document handed to a Parser.
type ParseRequest struct {
	// Name is the original filename; engines may use its extension when
	// content sniffing is inconclusive.
	Name string
	// Data is the raw file content.
	Data []byte
	// MediaType, when non-empty, skips sniffing.
	MediaType string
}

// ParseResult is the extraction output of a Parser.
type ParseResult struct {
	// Text is the full extracted text, sanitized (valid UTF-8, NFC),
	// pages joined with blank lines.
	Text string
	// MediaType is the detected media type of the source.
	MediaType string
	// PageCount is the source page count where the format has pages.
	PageCount int
	// Images are embedded images recovered from the source, in page order.
	Images []ParsedImage
	// Warnings are non-fatal extraction problems (unreadable page,
	// undecodable image).
	Warnings []string
}

// ParsedImage is one embedded image recovered during parsing. Page and
// Index are both 1-based; Index counts images within their page.
type ParsedImage struct {
	Page      int
	Index     int
	MediaType string
	// Format is the short format name derived from the image codec
	// ("jpg", "png", "tiff", ...).
	Format string
	Data   []byte
}

// Renderer rasterizes document pages; the render package provides a
// MuPDF-backed implementation. Optional pipeline stage.
type Renderer interface {
	// RenderPages rasterizes up to maxPages pages (0 = all) to JPEG.
	RenderPages(ctx context.Context, data []byte, maxPages int) ([]RenderedPage, error)
}

// RenderedPage is one rasterized page image.
type RenderedPage struct {
	Page int
	JPEG []byte
}
