// Package pdf extracts text and embedded images from PDF files.
//
// Text extraction uses ledongthuc/pdf (BSD-3, pure Go, no CGO) and image
// extraction uses pdfcpu. This is a separate subpackage so the
// dependencies are only pulled in by users who need native PDF support.
// Rasterizing pages to JPEG needs MuPDF and lives in the render package.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	quire "github.com/nevindra/quire"
	"github.com/nevindra/quire/parse"
)

// Engine extracts text and embedded images from PDF uploads.
type Engine struct {
	withImages bool
	maxImages  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithImages toggles embedded image extraction (default on).
func WithImages(enabled bool) Option {
	return func(e *Engine) { e.withImages = enabled }
}

// WithMaxImages caps how many embedded images are extracted (default 64).
func WithMaxImages(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxImages = n
		}
	}
}

// NewEngine creates a PDF engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{withImages: true, maxImages: 64}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Parse extracts text page by page, then pulls embedded images out of the
// file. Unreadable pages and failed image extraction degrade to warnings
// on the result.
func (e *Engine) Parse(ctx context.Context, req quire.ParseRequest) (*quire.ParseResult, error) {
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("empty PDF content")
	}
	r, err := pdf.NewReader(bytes.NewReader(req.Data), int64(len(req.Data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	res := &quire.ParseResult{
		MediaType: parse.TypePDF,
		PageCount: r.NumPage(),
	}

	var text strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := extractPageText(page)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: %v", i, err))
			continue
		}
		if pageText == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(pageText)
	}
	res.Text = strings.TrimSpace(parse.Sanitize(text.String()))

	if e.withImages {
		images, err := e.extractImages(req.Data)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("image extraction: %v", err))
		}
		res.Images = images
	}
	return res, nil
}

// extractPageText recovers from panics in the content stream decoder;
// malformed PDFs in the wild trip it regularly.
func extractPageText(page pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed content stream: %v", r)
		}
	}()
	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// extractImages pulls raw embedded images via pdfcpu. They come back
// grouped per page and keyed by object number; sorting the object numbers
// keeps index assignment stable across runs.
func (e *Engine) extractImages(data []byte) ([]quire.ParsedImage, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pageImages, err := api.ExtractImagesRaw(bytes.NewReader(data), nil, conf)
	if err != nil {
		return nil, err
	}

	var out []quire.ParsedImage
	perPage := map[int]int{}
	for _, byObj := range pageImages {
		objNrs := make([]int, 0, len(byObj))
		for nr := range byObj {
			objNrs = append(objNrs, nr)
		}
		sort.Ints(objNrs)
		for _, nr := range objNrs {
			if len(out) >= e.maxImages {
				return out, nil
			}
			img := byObj[nr]
			raw, err := io.ReadAll(img)
			if err != nil || len(raw) == 0 {
				continue
			}
			format := img.FileType
			if format == "" {
				format = "bin"
			}
			perPage[img.PageNr]++
			out = append(out, quire.ParsedImage{
				Page:      img.PageNr,
				Index:     perPage[img.PageNr],
				MediaType: mediaTypeFor(format),
				Format:    format,
				Data:      raw,
			})
		}
	}
	return out, nil
}

func mediaTypeFor(fileType string) string {
	switch fileType {
	case "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "tiff":
		return "image/tiff"
	case "jpx":
		return "image/jp2"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

var _ quire.Parser = (*Engine)(nil)
