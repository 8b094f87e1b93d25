// Package quire is a document parsing and transformation pipeline for Go.
//
// It turns uploaded documents (PDF first, HTML and plain text too) into
// sanitized text plus derived artifacts: detected language, markdown
// structure flags, embedded images, optional LLM rewrites, and exports in
// several formats (JSON, CSV, XLSX, DOCX, TXT, Markdown).
//
// # Quick Start
//
// Compose a pipeline from a parser, an optional LLM provider, and an
// optional store:
//
//	parser := parse.NewMux(
//		parse.WithEngine(parse.TypePDF, pdf.NewEngine()),
//	)
//	llm := quire.WithRetry(openaicompat.NewProvider(apiKey, "gpt-4o", baseURL))
//	db := sqlite.New("quire.db")
//
//	p := quire.NewPipeline(parser,
//		quire.WithAnalyzer(detect.New()),
//		quire.WithRewriter(transform.New(llm)),
//		quire.WithExporter(export.NewSet()),
//		quire.WithStore(db),
//	)
//
//	out, err := p.Run(ctx, quire.Input{
//		Name:            "handbook.pdf",
//		Data:            raw,
//		TransformFormat: transform.FormatSummary,
//		ExportFormats:   []string{"json", "csv"},
//		OutDir:          "out",
//	})
//
// # Core Interfaces
//
// The root package defines the contracts the subpackages implement:
//
//   - [Parser]: text and image extraction engine (native or remote)
//   - [Provider]: LLM backend (chat, streaming), consumed as a black box
//   - [Store]: registry for documents, assets, and transforms
//
// # Included Implementations
//
// Parsers: parse/pdf (pure Go), parse/llamaparse (managed parsing API),
// parse/html (readability). Providers: provider/openaicompat,
// provider/gemini. Storage: store/sqlite (local), store/postgres.
// Rendering: render (page rasterization, cgo, opt-in).
//
// See the cmd/quire directory for the CLI and HTTP service.
package quire
