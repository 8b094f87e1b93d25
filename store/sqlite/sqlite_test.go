package sqlite

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	quire "github.com/nevindra/quire"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "test.db"))
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testDocument(id string, createdAt int64) quire.Document {
	return quire.Document{
		ID:        id,
		Name:      "report.pdf",
		MediaType: "application/pdf",
		Size:      2048,
		Checksum:  "abc123",
		PageCount: 3,
		Text:      "# Quarterly Report\n\nRevenue grew.",
		Language:  quire.Language{Code: "en", Name: "English", Confidence: 0.97},
		HasTables: true,
		HasImages: false,
		Structure: quire.Structure{Headings: 1, Tables: 2},
		CreatedAt: createdAt,
	}
}

func TestInitIdempotent(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "init.db"))
	defer s.Close()
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("first Init: %v", err)
	}
	if err := s.Init(ctx); err != nil {
		t.Fatalf("second Init: %v", err)
	}
}

func TestSaveAndGetDocument(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	doc := testDocument(quire.NewID(), quire.NowUnix())
	if err := s.SaveDocument(ctx, doc); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	got, err := s.Document(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if got.Name != doc.Name || got.MediaType != doc.MediaType || got.Size != doc.Size {
		t.Errorf("unexpected document: %+v", got)
	}
	if got.Language.Code != "en" || got.Language.Confidence != 0.97 {
		t.Errorf("language not round-tripped: %+v", got.Language)
	}
	if !got.HasTables || got.HasImages {
		t.Errorf("flags not round-tripped: tables=%v images=%v", got.HasTables, got.HasImages)
	}
	if got.Structure.Headings != 1 || got.Structure.Tables != 2 {
		t.Errorf("structure not round-tripped: %+v", got.Structure)
	}
}

func TestDocumentNotFound(t *testing.T) {
	s := testStore(t)

	_, err := s.Document(context.Background(), "missing-id")
	if !errors.Is(err, quire.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveDocumentReplace(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	doc := testDocument("doc-1", 1000)
	if err := s.SaveDocument(ctx, doc); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	doc.Text = "updated text"
	if err := s.SaveDocument(ctx, doc); err != nil {
		t.Fatalf("SaveDocument replace: %v", err)
	}

	got, err := s.Document(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if got.Text != "updated text" {
		t.Errorf("text = %q, want updated text", got.Text)
	}

	docs, _ := s.Documents(ctx, 0)
	if len(docs) != 1 {
		t.Errorf("expected 1 document after replace, got %d", len(docs))
	}
}

func TestDocumentsOrderAndLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i, id := range []string{"old", "mid", "new"} {
		doc := testDocument(id, int64(1000*(i+1)))
		if err := s.SaveDocument(ctx, doc); err != nil {
			t.Fatalf("SaveDocument %s: %v", id, err)
		}
	}

	docs, err := s.Documents(ctx, 0)
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
	if docs[0].ID != "new" || docs[2].ID != "old" {
		t.Errorf("documents not newest-first: %s, %s, %s", docs[0].ID, docs[1].ID, docs[2].ID)
	}

	limited, err := s.Documents(ctx, 2)
	if err != nil {
		t.Fatalf("Documents limit: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "new" {
		t.Errorf("limit 2: expected [new mid], got %v", limited)
	}
}

func TestSaveAndListAssets(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	doc := testDocument(quire.NewID(), quire.NowUnix())
	if err := s.SaveDocument(ctx, doc); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	assets := []quire.Asset{
		{ID: quire.NewID(), DocumentID: doc.ID, Kind: quire.AssetEmbedded, Name: "page2_img1_aa.png", Page: 2, MediaType: "image/png", Data: payload, CreatedAt: quire.NowUnix()},
		{ID: quire.NewID(), DocumentID: doc.ID, Kind: quire.AssetRender, Name: "page_1_bb.jpg", Page: 1, MediaType: "image/jpeg", Data: []byte("jpeg"), CreatedAt: quire.NowUnix()},
	}
	for _, a := range assets {
		if err := s.SaveAsset(ctx, a); err != nil {
			t.Fatalf("SaveAsset: %v", err)
		}
	}

	got, err := s.AssetsByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("AssetsByDocument: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(got))
	}
	// Ordered by page.
	if got[0].Page != 1 || got[1].Page != 2 {
		t.Errorf("assets not page-ordered: %d, %d", got[0].Page, got[1].Page)
	}
	if got[1].Kind != quire.AssetEmbedded {
		t.Errorf("kind = %q, want embedded", got[1].Kind)
	}
	if !bytes.Equal(got[1].Data, payload) {
		t.Error("asset payload not round-tripped")
	}

	other, _ := s.AssetsByDocument(ctx, "other-doc")
	if len(other) != 0 {
		t.Errorf("expected no assets for other document, got %d", len(other))
	}
}

func TestSaveAndListTransforms(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	doc := testDocument(quire.NewID(), quire.NowUnix())
	if err := s.SaveDocument(ctx, doc); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	trs := []quire.Transform{
		{ID: "tr-old", DocumentID: doc.ID, Format: "summary", Model: "gpt-4o", Output: "short", Usage: quire.Usage{InputTokens: 10, OutputTokens: 5}, CreatedAt: 1000},
		{ID: "tr-new", DocumentID: doc.ID, Format: "table", Instruction: "group by region", Model: "gpt-4o", Output: `[{"a":1}]`, Usage: quire.Usage{InputTokens: 20, OutputTokens: 15}, CreatedAt: 2000},
	}
	for _, tr := range trs {
		if err := s.SaveTransform(ctx, tr); err != nil {
			t.Fatalf("SaveTransform: %v", err)
		}
	}

	got, err := s.TransformsByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("TransformsByDocument: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 transforms, got %d", len(got))
	}
	if got[0].ID != "tr-new" {
		t.Errorf("transforms not newest-first: %s", got[0].ID)
	}
	if got[0].Instruction != "group by region" {
		t.Errorf("instruction = %q", got[0].Instruction)
	}
	if got[1].Usage.InputTokens != 10 || got[1].Usage.OutputTokens != 5 {
		t.Errorf("usage not round-tripped: %+v", got[1].Usage)
	}
}
