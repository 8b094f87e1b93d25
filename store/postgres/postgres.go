// Package postgres implements quire.Store using PostgreSQL.
//
// The Store accepts an externally-owned *pgxpool.Pool via constructor
// injection. The caller creates and closes the pool.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	quire "github.com/nevindra/quire"
)

// Store implements quire.Store backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ quire.Store = (*Store)(nil)

// New creates a Store using an existing pgxpool.Pool.
// The caller owns the pool and is responsible for closing it.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Init creates all required tables and indexes.
// Safe to call multiple times (all statements are idempotent).
func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			media_type TEXT NOT NULL,
			size BIGINT NOT NULL,
			checksum TEXT NOT NULL,
			page_count INTEGER NOT NULL,
			text TEXT NOT NULL,
			lang_code TEXT NOT NULL,
			lang_name TEXT NOT NULL,
			lang_confidence DOUBLE PRECISION NOT NULL,
			has_tables BOOLEAN NOT NULL,
			has_images BOOLEAN NOT NULL,
			structure JSONB NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS documents_created_idx ON documents(created_at)`,

		`CREATE TABLE IF NOT EXISTS assets (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			page INTEGER NOT NULL,
			media_type TEXT NOT NULL,
			data BYTEA NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS assets_document_idx ON assets(document_id)`,

		`CREATE TABLE IF NOT EXISTS transforms (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			format TEXT NOT NULL,
			instruction TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL,
			output TEXT NOT NULL,
			input_tokens INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS transforms_document_idx ON transforms(document_id)`,
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: init: %w", err)
		}
	}
	return nil
}

// Close is a no-op; the injected pool is owned by the caller.
func (s *Store) Close() error { return nil }

// --- Documents ---

// SaveDocument inserts or replaces a document record.
func (s *Store) SaveDocument(ctx context.Context, doc quire.Document) error {
	structJSON, _ := json.Marshal(doc.Structure)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents
		 (id, name, media_type, size, checksum, page_count, text,
		  lang_code, lang_name, lang_confidence, has_tables, has_images, structure, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::jsonb, $14)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name,
		   media_type = EXCLUDED.media_type,
		   size = EXCLUDED.size,
		   checksum = EXCLUDED.checksum,
		   page_count = EXCLUDED.page_count,
		   text = EXCLUDED.text,
		   lang_code = EXCLUDED.lang_code,
		   lang_name = EXCLUDED.lang_name,
		   lang_confidence = EXCLUDED.lang_confidence,
		   has_tables = EXCLUDED.has_tables,
		   has_images = EXCLUDED.has_images,
		   structure = EXCLUDED.structure,
		   created_at = EXCLUDED.created_at`,
		doc.ID, doc.Name, doc.MediaType, doc.Size, doc.Checksum, doc.PageCount, doc.Text,
		doc.Language.Code, doc.Language.Name, doc.Language.Confidence,
		doc.HasTables, doc.HasImages, string(structJSON), doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: save document: %w", err)
	}
	return nil
}

// Document returns a single document by ID. Returns an error wrapping
// quire.ErrNotFound when no document matches.
func (s *Store) Document(ctx context.Context, id string) (quire.Document, error) {
	var d quire.Document
	var structJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, media_type, size, checksum, page_count, text,
		        lang_code, lang_name, lang_confidence, has_tables, has_images, structure, created_at
		 FROM documents WHERE id = $1`, id,
	).Scan(&d.ID, &d.Name, &d.MediaType, &d.Size, &d.Checksum, &d.PageCount, &d.Text,
		&d.Language.Code, &d.Language.Name, &d.Language.Confidence,
		&d.HasTables, &d.HasImages, &structJSON, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return quire.Document{}, fmt.Errorf("document %s: %w", id, quire.ErrNotFound)
	}
	if err != nil {
		return quire.Document{}, fmt.Errorf("postgres: get document: %w", err)
	}
	if structJSON != nil {
		_ = json.Unmarshal(structJSON, &d.Structure)
	}
	return d, nil
}

// Documents returns documents ordered by creation time (newest first).
// A limit of 0 or less returns all documents.
func (s *Store) Documents(ctx context.Context, limit int) ([]quire.Document, error) {
	query := `SELECT id, name, media_type, size, checksum, page_count, text,
	                 lang_code, lang_name, lang_confidence, has_tables, has_images, structure, created_at
	          FROM documents ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list documents: %w", err)
	}
	defer rows.Close()

	var docs []quire.Document
	for rows.Next() {
		var d quire.Document
		var structJSON []byte
		if err := rows.Scan(&d.ID, &d.Name, &d.MediaType, &d.Size, &d.Checksum, &d.PageCount, &d.Text,
			&d.Language.Code, &d.Language.Name, &d.Language.Confidence,
			&d.HasTables, &d.HasImages, &structJSON, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan document: %w", err)
		}
		if structJSON != nil {
			_ = json.Unmarshal(structJSON, &d.Structure)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// --- Assets ---

// SaveAsset inserts or replaces an asset with its binary payload.
func (s *Store) SaveAsset(ctx context.Context, asset quire.Asset) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO assets (id, document_id, kind, name, page, media_type, data, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   document_id = EXCLUDED.document_id,
		   kind = EXCLUDED.kind,
		   name = EXCLUDED.name,
		   page = EXCLUDED.page,
		   media_type = EXCLUDED.media_type,
		   data = EXCLUDED.data,
		   created_at = EXCLUDED.created_at`,
		asset.ID, asset.DocumentID, string(asset.Kind), asset.Name, asset.Page, asset.MediaType, asset.Data, asset.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: save asset: %w", err)
	}
	return nil
}

// AssetsByDocument returns all assets for a document ordered by page,
// then insertion order within the page.
func (s *Store) AssetsByDocument(ctx context.Context, documentID string) ([]quire.Asset, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, document_id, kind, name, page, media_type, data, created_at
		 FROM assets WHERE document_id = $1
		 ORDER BY page, id`,
		documentID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list assets: %w", err)
	}
	defer rows.Close()

	var assets []quire.Asset
	for rows.Next() {
		var a quire.Asset
		var kind string
		if err := rows.Scan(&a.ID, &a.DocumentID, &kind, &a.Name, &a.Page, &a.MediaType, &a.Data, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan asset: %w", err)
		}
		a.Kind = quire.AssetKind(kind)
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// --- Transforms ---

// SaveTransform inserts or replaces a transform record.
func (s *Store) SaveTransform(ctx context.Context, tr quire.Transform) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO transforms
		 (id, document_id, format, instruction, model, output, input_tokens, output_tokens, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		   document_id = EXCLUDED.document_id,
		   format = EXCLUDED.format,
		   instruction = EXCLUDED.instruction,
		   model = EXCLUDED.model,
		   output = EXCLUDED.output,
		   input_tokens = EXCLUDED.input_tokens,
		   output_tokens = EXCLUDED.output_tokens,
		   created_at = EXCLUDED.created_at`,
		tr.ID, tr.DocumentID, tr.Format, tr.Instruction, tr.Model, tr.Output,
		tr.Usage.InputTokens, tr.Usage.OutputTokens, tr.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: save transform: %w", err)
	}
	return nil
}

// TransformsByDocument returns all transforms for a document, newest first.
func (s *Store) TransformsByDocument(ctx context.Context, documentID string) ([]quire.Transform, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, document_id, format, instruction, model, output, input_tokens, output_tokens, created_at
		 FROM transforms WHERE document_id = $1
		 ORDER BY created_at DESC, id DESC`,
		documentID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list transforms: %w", err)
	}
	defer rows.Close()

	var transforms []quire.Transform
	for rows.Next() {
		var tr quire.Transform
		if err := rows.Scan(&tr.ID, &tr.DocumentID, &tr.Format, &tr.Instruction, &tr.Model, &tr.Output,
			&tr.Usage.InputTokens, &tr.Usage.OutputTokens, &tr.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan transform: %w", err)
		}
		transforms = append(transforms, tr)
	}
	return transforms, rows.Err()
}
