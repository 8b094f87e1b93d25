// Package sqlite implements quire.Store using pure-Go SQLite.
// Zero CGO required, so it is the default store for single-binary deploys.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	quire "github.com/nevindra/quire"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// StoreOption configures a SQLite Store.
type StoreOption func(*Store)

// WithLogger sets a structured logger for the store.
// When set, the store emits debug logs for every operation including
// timing, row counts, and key parameters. If not set, no logs are emitted.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// Store implements quire.Store backed by a local SQLite file.
// Asset payloads are stored inline as BLOBs; document structure is
// serialized to a JSON column.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ quire.Store = (*Store)(nil)

// nopLogger is a logger that discards all output.
var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// New creates a Store using a local SQLite file at dbPath.
// It opens a single shared connection pool with SetMaxOpenConns(1) so that
// all goroutines serialize through one connection, eliminating SQLITE_BUSY
// errors caused by concurrent writers opening independent connections.
func New(dbPath string, opts ...StoreOption) *Store {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		// sql.Open only fails when the driver is not registered; with the
		// blank import above that never happens.
		panic(fmt.Sprintf("sqlite: open driver: %v", err))
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db, logger: nopLogger}
	for _, o := range opts {
		o(s)
	}
	s.logger.Debug("sqlite: store opened", "path", dbPath)
	return s
}

// Init creates all required tables and indexes.
// Safe to call multiple times (all statements are idempotent).
func (s *Store) Init(ctx context.Context) error {
	start := time.Now()
	s.logger.Debug("sqlite: init started")
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			media_type TEXT NOT NULL,
			size INTEGER NOT NULL,
			checksum TEXT NOT NULL,
			page_count INTEGER NOT NULL,
			text TEXT NOT NULL,
			lang_code TEXT NOT NULL,
			lang_name TEXT NOT NULL,
			lang_confidence REAL NOT NULL,
			has_tables INTEGER NOT NULL,
			has_images INTEGER NOT NULL,
			structure TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS assets (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			page INTEGER NOT NULL,
			media_type TEXT NOT NULL,
			data BLOB NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transforms (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			format TEXT NOT NULL,
			instruction TEXT NOT NULL,
			model TEXT NOT NULL,
			output TEXT NOT NULL,
			input_tokens INTEGER NOT NULL,
			output_tokens INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_created ON documents(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_assets_document ON assets(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transforms_document ON transforms(document_id)`,
	}

	for _, ddl := range stmts {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	s.logger.Info("sqlite: init completed", "duration", time.Since(start))
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// --- Documents ---

// SaveDocument inserts or replaces a document record.
func (s *Store) SaveDocument(ctx context.Context, doc quire.Document) error {
	start := time.Now()
	s.logger.Debug("sqlite: save document", "id", doc.ID, "name", doc.Name, "pages", doc.PageCount, "size", doc.Size)

	structJSON, _ := json.Marshal(doc.Structure)

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO documents
		 (id, name, media_type, size, checksum, page_count, text,
		  lang_code, lang_name, lang_confidence, has_tables, has_images, structure, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Name, doc.MediaType, doc.Size, doc.Checksum, doc.PageCount, doc.Text,
		doc.Language.Code, doc.Language.Name, doc.Language.Confidence,
		doc.HasTables, doc.HasImages, string(structJSON), doc.CreatedAt,
	)
	if err != nil {
		s.logger.Error("sqlite: save document failed", "id", doc.ID, "error", err, "duration", time.Since(start))
		return fmt.Errorf("save document: %w", err)
	}
	s.logger.Debug("sqlite: save document ok", "id", doc.ID, "duration", time.Since(start))
	return nil
}

// Document returns a single document by ID. Returns an error wrapping
// quire.ErrNotFound when no document matches.
func (s *Store) Document(ctx context.Context, id string) (quire.Document, error) {
	start := time.Now()
	s.logger.Debug("sqlite: get document", "id", id)

	var d quire.Document
	var structJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, media_type, size, checksum, page_count, text,
		        lang_code, lang_name, lang_confidence, has_tables, has_images, structure, created_at
		 FROM documents WHERE id = ?`, id,
	).Scan(&d.ID, &d.Name, &d.MediaType, &d.Size, &d.Checksum, &d.PageCount, &d.Text,
		&d.Language.Code, &d.Language.Name, &d.Language.Confidence,
		&d.HasTables, &d.HasImages, &structJSON, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Debug("sqlite: get document not found", "id", id, "duration", time.Since(start))
		return quire.Document{}, fmt.Errorf("document %s: %w", id, quire.ErrNotFound)
	}
	if err != nil {
		s.logger.Error("sqlite: get document failed", "id", id, "error", err, "duration", time.Since(start))
		return quire.Document{}, fmt.Errorf("get document: %w", err)
	}
	_ = json.Unmarshal([]byte(structJSON), &d.Structure)

	s.logger.Debug("sqlite: get document ok", "id", id, "duration", time.Since(start))
	return d, nil
}

// Documents returns documents ordered by creation time (newest first).
// A limit of 0 or less returns all documents.
func (s *Store) Documents(ctx context.Context, limit int) ([]quire.Document, error) {
	start := time.Now()
	s.logger.Debug("sqlite: list documents", "limit", limit)

	query := `SELECT id, name, media_type, size, checksum, page_count, text,
	                 lang_code, lang_name, lang_confidence, has_tables, has_images, structure, created_at
	          FROM documents ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("sqlite: list documents failed", "error", err)
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []quire.Document
	for rows.Next() {
		var d quire.Document
		var structJSON string
		if err := rows.Scan(&d.ID, &d.Name, &d.MediaType, &d.Size, &d.Checksum, &d.PageCount, &d.Text,
			&d.Language.Code, &d.Language.Name, &d.Language.Confidence,
			&d.HasTables, &d.HasImages, &structJSON, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		_ = json.Unmarshal([]byte(structJSON), &d.Structure)
		docs = append(docs, d)
	}
	s.logger.Debug("sqlite: list documents ok", "count", len(docs), "duration", time.Since(start))
	return docs, rows.Err()
}

// --- Assets ---

// SaveAsset inserts or replaces an asset with its binary payload.
func (s *Store) SaveAsset(ctx context.Context, asset quire.Asset) error {
	start := time.Now()
	s.logger.Debug("sqlite: save asset", "id", asset.ID, "document_id", asset.DocumentID, "kind", asset.Kind, "bytes", len(asset.Data))

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO assets (id, document_id, kind, name, page, media_type, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		asset.ID, asset.DocumentID, string(asset.Kind), asset.Name, asset.Page, asset.MediaType, asset.Data, asset.CreatedAt,
	)
	if err != nil {
		s.logger.Error("sqlite: save asset failed", "id", asset.ID, "error", err, "duration", time.Since(start))
		return fmt.Errorf("save asset: %w", err)
	}
	s.logger.Debug("sqlite: save asset ok", "id", asset.ID, "duration", time.Since(start))
	return nil
}

// AssetsByDocument returns all assets for a document ordered by page,
// then insertion order within the page.
func (s *Store) AssetsByDocument(ctx context.Context, documentID string) ([]quire.Asset, error) {
	start := time.Now()
	s.logger.Debug("sqlite: list assets", "document_id", documentID)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, kind, name, page, media_type, data, created_at
		 FROM assets WHERE document_id = ?
		 ORDER BY page, id`,
		documentID,
	)
	if err != nil {
		s.logger.Error("sqlite: list assets failed", "document_id", documentID, "error", err)
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []quire.Asset
	for rows.Next() {
		var a quire.Asset
		var kind string
		if err := rows.Scan(&a.ID, &a.DocumentID, &kind, &a.Name, &a.Page, &a.MediaType, &a.Data, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		a.Kind = quire.AssetKind(kind)
		assets = append(assets, a)
	}
	s.logger.Debug("sqlite: list assets ok", "document_id", documentID, "count", len(assets), "duration", time.Since(start))
	return assets, rows.Err()
}

// --- Transforms ---

// SaveTransform inserts or replaces a transform record.
func (s *Store) SaveTransform(ctx context.Context, tr quire.Transform) error {
	start := time.Now()
	s.logger.Debug("sqlite: save transform", "id", tr.ID, "document_id", tr.DocumentID, "format", tr.Format, "model", tr.Model)

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO transforms
		 (id, document_id, format, instruction, model, output, input_tokens, output_tokens, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.ID, tr.DocumentID, tr.Format, tr.Instruction, tr.Model, tr.Output,
		tr.Usage.InputTokens, tr.Usage.OutputTokens, tr.CreatedAt,
	)
	if err != nil {
		s.logger.Error("sqlite: save transform failed", "id", tr.ID, "error", err, "duration", time.Since(start))
		return fmt.Errorf("save transform: %w", err)
	}
	s.logger.Debug("sqlite: save transform ok", "id", tr.ID, "duration", time.Since(start))
	return nil
}

// TransformsByDocument returns all transforms for a document, newest first.
func (s *Store) TransformsByDocument(ctx context.Context, documentID string) ([]quire.Transform, error) {
	start := time.Now()
	s.logger.Debug("sqlite: list transforms", "document_id", documentID)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, format, instruction, model, output, input_tokens, output_tokens, created_at
		 FROM transforms WHERE document_id = ?
		 ORDER BY created_at DESC, id DESC`,
		documentID,
	)
	if err != nil {
		s.logger.Error("sqlite: list transforms failed", "document_id", documentID, "error", err)
		return nil, fmt.Errorf("list transforms: %w", err)
	}
	defer rows.Close()

	var transforms []quire.Transform
	for rows.Next() {
		var tr quire.Transform
		if err := rows.Scan(&tr.ID, &tr.DocumentID, &tr.Format, &tr.Instruction, &tr.Model, &tr.Output,
			&tr.Usage.InputTokens, &tr.Usage.OutputTokens, &tr.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transform: %w", err)
		}
		transforms = append(transforms, tr)
	}
	s.logger.Debug("sqlite: list transforms ok", "document_id", documentID, "count", len(transforms), "duration", time.Since(start))
	return transforms, rows.Err()
}
