// Package render rasterizes PDF pages to JPEG through the MuPDF bindings.
//
// Separate subpackage because MuPDF needs CGO; pipelines that skip page
// rendering stay pure Go.
//
// Usage:
//
//	r := render.New()
//	pages, err := r.RenderPages(ctx, data, 10)
package render

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"log/slog"

	"github.com/gen2brain/go-fitz"

	quire "github.com/nevindra/quire"
)

// Compile-time interface check.
var _ quire.Renderer = (*Renderer)(nil)

const (
	// defaultDPI matches the resolution scanned documents are commonly
	// processed at. Output size grows quadratically with DPI.
	defaultDPI = 150

	defaultQuality = jpeg.DefaultQuality
)

// Renderer rasterizes document pages to JPEG.
type Renderer struct {
	dpi     float64
	quality int
	logger  *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithDPI sets the rasterization resolution. Default 150.
func WithDPI(dpi float64) Option {
	return func(r *Renderer) { r.dpi = dpi }
}

// WithQuality sets the JPEG encode quality, 1 to 100. Default 75.
func WithQuality(q int) Option {
	return func(r *Renderer) { r.quality = q }
}

// WithLogger sets a logger for per-page render events.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// New creates a Renderer with default resolution and quality.
func New(opts ...Option) *Renderer {
	r := &Renderer{dpi: defaultDPI, quality: defaultQuality}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderPages rasterizes up to maxPages pages (0 = all) to JPEG. Pages are
// numbered from 1. A page that fails to rasterize fails the whole call.
func (r *Renderer) RenderPages(ctx context.Context, data []byte, maxPages int) ([]quire.RenderedPage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document content")
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer doc.Close()

	total := doc.NumPage()
	if maxPages > 0 && total > maxPages {
		total = maxPages
	}

	pages := make([]quire.RenderedPage, 0, total)
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.ImageDPI(i, r.dpi)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", i+1, err)
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.quality}); err != nil {
			return nil, fmt.Errorf("encode page %d: %w", i+1, err)
		}
		if r.logger != nil {
			r.logger.Debug("page rendered", "page", i+1, "bytes", buf.Len())
		}
		pages = append(pages, quire.RenderedPage{Page: i + 1, JPEG: buf.Bytes()})
	}
	return pages, nil
}
