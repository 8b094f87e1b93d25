package quire

import "context"

// Store abstracts persistence for documents and their derived records.
type Store interface {
	// --- Documents ---
	SaveDocument(ctx context.Context, doc Document) error
	Document(ctx context.Context, id string) (Document, error)
	Documents(ctx context.Context, limit int) ([]Document, error)

	// --- Assets ---
	SaveAsset(ctx context.Context, asset Asset) error
	AssetsByDocument(ctx context.Context, documentID string) ([]Asset, error)

	// --- Transforms ---
	SaveTransform(ctx context.Context, tr Transform) error
	TransformsByDocument(ctx context.Context, documentID string) ([]Transform, error)

	// --- Lifecycle ---
	Init(ctx context.Context) error
	Close() error
}
