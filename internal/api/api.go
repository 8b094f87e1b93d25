// Package api exposes the document pipeline over HTTP.
//
// POST /documents runs an upload through the full pipeline. The remaining
// endpoints serve stored documents and their derived records, rerun
// rewrites, and export previously processed text. Responses are JSON;
// errors come back as {"error": "..."} with a matching status code.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	quire "github.com/nevindra/quire"
)

// Runner runs the document pipeline for one upload. *quire.Pipeline
// satisfies it, as does the observer package's instrumented wrapper.
type Runner interface {
	Run(ctx context.Context, in quire.Input) (*quire.Outcome, error)
}

// Deps are the collaborators behind the HTTP surface. Pipeline and Store
// are required. Rewriter enables POST /documents/{id}/transform and
// Exporter enables GET /documents/{id}/export; without them those
// endpoints answer 503.
type Deps struct {
	Pipeline Runner
	Store    quire.Store
	Rewriter quire.Rewriter
	Exporter quire.Exporter
	Logger   *slog.Logger
}

// Config tunes request handling.
type Config struct {
	// MaxUploadMB caps the uploaded file size (default 32).
	MaxUploadMB int64
	// MaxConcurrent bounds pipeline runs in flight; excess uploads get 503
	// (default 4).
	MaxConcurrent int
	// ExportDir receives exported files (default "exports").
	ExportDir string
	// ExportFormats apply when an export request names no formats.
	ExportFormats []string
}

// Server handles the HTTP API.
type Server struct {
	pipeline       Runner
	store          quire.Store
	rewriter       quire.Rewriter
	exporter       quire.Exporter
	logger         *slog.Logger
	sem            chan struct{}
	maxUploadBytes int64
	exportDir      string
	exportFormats  []string
}

// New creates a Server. Zero-value Config fields fall back to defaults.
func New(cfg Config, deps Deps) *Server {
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 32
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = "exports"
	}
	logger := deps.Logger
	if logger == nil {
		logger = nopLogger
	}
	return &Server{
		pipeline:       deps.Pipeline,
		store:          deps.Store,
		rewriter:       deps.Rewriter,
		exporter:       deps.Exporter,
		logger:         logger,
		sem:            make(chan struct{}, cfg.MaxConcurrent),
		maxUploadBytes: cfg.MaxUploadMB << 20,
		exportDir:      cfg.ExportDir,
		exportFormats:  cfg.ExportFormats,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /documents", s.handleUpload)
	mux.HandleFunc("GET /documents", s.handleListDocuments)
	mux.HandleFunc("GET /documents/{id}", s.handleGetDocument)
	mux.HandleFunc("GET /documents/{id}/assets", s.handleListAssets)
	mux.HandleFunc("GET /documents/{id}/transforms", s.handleListTransforms)
	mux.HandleFunc("POST /documents/{id}/transform", s.handleTransform)
	mux.HandleFunc("GET /documents/{id}/export", s.handleExport)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// --- Responses ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "marshal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// statusFor maps pipeline and store errors onto HTTP status codes.
func statusFor(err error) int {
	var llmErr *quire.ErrLLM
	switch {
	case errors.Is(err, quire.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, quire.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, quire.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, quire.ErrEmptyDocument), errors.Is(err, quire.ErrTextTooShort):
		return http.StatusUnprocessableEntity
	case errors.As(err, &llmErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
