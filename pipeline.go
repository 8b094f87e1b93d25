package quire

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Analysis is the detection result for a document's extracted text.
type Analysis struct {
	Language  Language
	HasTables bool
	HasImages bool
	Structure Structure
}

// Analyzer detects language and markdown structure in extracted text.
// The detect package provides the implementation.
type Analyzer interface {
	Analyze(text string) Analysis
}

// Rewriter rewrites extracted text through an LLM into a target format.
// The transform package provides the implementation.
type Rewriter interface {
	Rewrite(ctx context.Context, text, format, instruction string) (Transform, error)
}

// ExportFile describes one file written by an Exporter.
type ExportFile struct {
	Format string `json:"format"`
	Path   string `json:"path"`
	Size   int64  `json:"size"`
}

// Exporter serializes pipeline output into files. The export package
// provides the implementation.
type Exporter interface {
	// Export writes output in each requested format under dir, using base
	// as the filename stem.
	Export(dir, base, output string, formats []string) ([]ExportFile, error)
}

// StageFunc observes completed pipeline stages. The observer package can
// supply one that records stage duration metrics.
type StageFunc func(stage string, elapsed time.Duration, err error)

// Pipeline sequences parsing, detection, asset collection, optional LLM
// rewriting, export, and persistence for one uploaded document.
//
// Only the parser is mandatory. Every other collaborator is optional: a nil
// analyzer skips detection with a warning, a nil store skips persistence,
// rendering and transformation run only when the Input asks for them.
type Pipeline struct {
	parser         Parser
	analyzer       Analyzer
	rewriter       Rewriter
	exporter       Exporter
	renderer       Renderer
	store          Store
	tracer         Tracer
	logger         *slog.Logger
	stageFn        StageFunc
	maxUploadBytes int64
	maxRenderPages int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithAnalyzer(a Analyzer) Option { return func(p *Pipeline) { p.analyzer = a } }
func WithRewriter(r Rewriter) Option { return func(p *Pipeline) { p.rewriter = r } }
func WithExporter(e Exporter) Option { return func(p *Pipeline) { p.exporter = e } }
func WithRenderer(r Renderer) Option { return func(p *Pipeline) { p.renderer = r } }
func WithStore(s Store) Option       { return func(p *Pipeline) { p.store = s } }
func WithTracer(t Tracer) Option     { return func(p *Pipeline) { p.tracer = t } }

// WithLogger sets the structured logger for stage events (default: no output).
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithStageFunc installs a callback invoked after every stage with its
// duration and outcome.
func WithStageFunc(fn StageFunc) Option { return func(p *Pipeline) { p.stageFn = fn } }

// WithMaxUploadBytes caps the accepted upload size (default 32MB, 0 keeps
// the default).
func WithMaxUploadBytes(n int64) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxUploadBytes = n
		}
	}
}

// WithMaxRenderPages caps how many pages the render stage rasterizes
// (default 20, 0 keeps the default).
func WithMaxRenderPages(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxRenderPages = n
		}
	}
}

const (
	defaultMaxUploadBytes = 32 << 20
	defaultMaxRenderPages = 20
)

// NewPipeline creates a Pipeline around the given parser.
func NewPipeline(parser Parser, opts ...Option) *Pipeline {
	p := &Pipeline{
		parser:         parser,
		logger:         nopLogger,
		maxUploadBytes: defaultMaxUploadBytes,
		maxRenderPages: defaultMaxRenderPages,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Input is one document run through the pipeline.
type Input struct {
	// Name is the original filename.
	Name string
	// Data is the raw upload.
	Data []byte
	// MediaType, when non-empty, skips content sniffing.
	MediaType string
	// TransformFormat selects an LLM rewrite ("table", "summary", "report",
	// "article", "custom"); empty skips the transform stage.
	TransformFormat string
	// Instruction is the custom rewrite instruction (TransformFormat "custom").
	Instruction string
	// ExportFormats lists serialization targets ("json", "csv", "xlsx",
	// "docx", "txt", "md"); empty skips the export stage.
	ExportFormats []string
	// OutDir receives exported files; required when ExportFormats is set.
	OutDir string
	// RenderPages rasterizes pages to JPEG assets when a Renderer is wired.
	RenderPages bool
}

// Outcome is the result of one pipeline run.
type Outcome struct {
	Document  Document     `json:"document"`
	Assets    []Asset      `json:"assets,omitempty"`
	Transform *Transform   `json:"transform,omitempty"`
	Exports   []ExportFile `json:"exports,omitempty"`
	// Warnings collect non-fatal problems from optional stages.
	Warnings []string `json:"warnings,omitempty"`
}

// Run executes the pipeline for one document.
//
// Parse and transform failures abort the run; detection, rendering, export,
// and persistence problems degrade to warnings on the Outcome.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Outcome, error) {
	if p.parser == nil {
		return nil, errors.New("pipeline: parser is required")
	}
	if len(in.Data) == 0 {
		return nil, errors.New("pipeline: empty upload")
	}
	if int64(len(in.Data)) > p.maxUploadBytes {
		return nil, fmt.Errorf("pipeline: upload exceeds %d bytes", p.maxUploadBytes)
	}

	out := &Outcome{}
	sum := sha256.Sum256(in.Data)

	// Parse.
	pctx, end := p.stage(ctx, "parse", StringAttr("document.name", in.Name))
	res, err := p.parser.Parse(pctx, ParseRequest{Name: in.Name, Data: in.Data, MediaType: in.MediaType})
	end(err)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", in.Name, err)
	}
	if res.Text == "" {
		return nil, fmt.Errorf("parse %s: %w", in.Name, ErrEmptyDocument)
	}
	out.Warnings = append(out.Warnings, res.Warnings...)

	doc := Document{
		ID:        NewID(),
		Name:      in.Name,
		MediaType: res.MediaType,
		Size:      int64(len(in.Data)),
		Checksum:  hex.EncodeToString(sum[:]),
		PageCount: res.PageCount,
		Text:      res.Text,
		CreatedAt: NowUnix(),
	}

	// Detect.
	if p.analyzer != nil {
		_, end = p.stage(ctx, "detect")
		an := p.analyzer.Analyze(res.Text)
		end(nil)
		doc.Language = an.Language
		doc.HasTables = an.HasTables
		doc.HasImages = an.HasImages
		doc.Structure = an.Structure
	} else {
		out.Warnings = append(out.Warnings, "detection skipped: no analyzer configured")
	}

	// Embedded images become assets.
	for _, img := range res.Images {
		out.Assets = append(out.Assets, Asset{
			ID:         NewID(),
			DocumentID: doc.ID,
			Kind:       AssetEmbedded,
			Name:       fmt.Sprintf("page%d_img%d_%s.%s", img.Page, img.Index, NewIDFragment(6), img.Format),
			Page:       img.Page,
			MediaType:  img.MediaType,
			Data:       img.Data,
			CreatedAt:  doc.CreatedAt,
		})
	}

	// Render pages (optional, warn-only).
	if in.RenderPages && p.renderer != nil {
		ctx, end := p.stage(ctx, "render")
		pages, err := p.renderer.RenderPages(ctx, in.Data, p.maxRenderPages)
		end(err)
		if err != nil {
			out.Warnings = append(out.Warnings, "render: "+err.Error())
			p.logger.Warn("page render failed", "document", doc.ID, "error", err)
		}
		for _, pg := range pages {
			out.Assets = append(out.Assets, Asset{
				ID:         NewID(),
				DocumentID: doc.ID,
				Kind:       AssetRender,
				Name:       fmt.Sprintf("page_%d_%s.jpg", pg.Page, NewIDFragment(8)),
				Page:       pg.Page,
				MediaType:  "image/jpeg",
				Data:       pg.JPEG,
				CreatedAt:  doc.CreatedAt,
			})
		}
	}

	// Transform (optional, abort on failure).
	output := doc.Text
	if in.TransformFormat != "" {
		if p.rewriter == nil {
			return nil, errors.New("pipeline: transform requested but no rewriter configured")
		}
		ctx, end := p.stage(ctx, "transform", StringAttr("transform.format", in.TransformFormat))
		tr, err := p.rewriter.Rewrite(ctx, doc.Text, in.TransformFormat, in.Instruction)
		end(err)
		if err != nil {
			return nil, fmt.Errorf("transform: %w", err)
		}
		tr.DocumentID = doc.ID
		out.Transform = &tr
		output = tr.Output
	}

	// Export (optional, warn-only).
	if len(in.ExportFormats) > 0 && p.exporter != nil {
		if err := os.MkdirAll(in.OutDir, 0o755); err != nil {
			out.Warnings = append(out.Warnings, "export: "+err.Error())
		} else {
			_, end := p.stage(ctx, "export", IntAttr("export.formats", len(in.ExportFormats)))
			files, err := p.exporter.Export(in.OutDir, baseName(in.Name), output, in.ExportFormats)
			end(err)
			if err != nil {
				out.Warnings = append(out.Warnings, "export: "+err.Error())
				p.logger.Warn("export failed", "document", doc.ID, "error", err)
			}
			out.Exports = files
		}
	}

	out.Document = doc
	p.persist(ctx, out)

	p.logger.Info("document processed",
		"document", doc.ID,
		"name", doc.Name,
		"media_type", doc.MediaType,
		"pages", doc.PageCount,
		"language", doc.Language.Code,
		"tables", doc.HasTables,
		"images", doc.HasImages,
		"assets", len(out.Assets),
		"warnings", len(out.Warnings))
	return out, nil
}

// persist saves the outcome to the store. Persistence problems never fail
// the run; they surface as warnings.
func (p *Pipeline) persist(ctx context.Context, out *Outcome) {
	if p.store == nil {
		return
	}
	_, end := p.stage(ctx, "persist")
	var err error
	if e := p.store.SaveDocument(ctx, out.Document); e != nil {
		err = e
		out.Warnings = append(out.Warnings, "store document: "+e.Error())
	}
	for _, a := range out.Assets {
		if e := p.store.SaveAsset(ctx, a); e != nil {
			err = e
			out.Warnings = append(out.Warnings, "store asset "+a.Name+": "+e.Error())
		}
	}
	if out.Transform != nil {
		if e := p.store.SaveTransform(ctx, *out.Transform); e != nil {
			err = e
			out.Warnings = append(out.Warnings, "store transform: "+e.Error())
		}
	}
	end(err)
}

// stage begins a traced pipeline stage. The returned func must be called
// once with the stage error; it ends the span, fires the stage callback,
// and logs the duration.
func (p *Pipeline) stage(ctx context.Context, name string, attrs ...SpanAttr) (context.Context, func(error)) {
	start := time.Now()
	var span Span
	if p.tracer != nil {
		ctx, span = p.tracer.Start(ctx, "pipeline."+name, attrs...)
	}
	return ctx, func(err error) {
		elapsed := time.Since(start)
		if span != nil {
			if err != nil {
				span.Error(err)
			}
			span.End()
		}
		if p.stageFn != nil {
			p.stageFn(name, elapsed, err)
		}
		p.logger.Debug("stage complete", "stage", name, "elapsed_ms", elapsed.Milliseconds(), "error", err)
	}
}

// baseName strips directories and the last extension from a filename for
// use as an export file stem.
func baseName(name string) string {
	base := filepath.Base(name)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "document"
	}
	return base
}
