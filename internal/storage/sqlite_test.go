package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kotae/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStorage_DocumentLifecycle(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	doc := &models.Document{
		ID:       "doc1",
		Title:    "notes.md",
		Content:  "some cleaned text",
		Metadata: map[string]interface{}{"source_path": "/tmp/notes.md"},
	}
	if err := s.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetDocument(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "notes.md" || got.Content != "some cleaned text" {
		t.Errorf("got %+v", got)
	}
	if got.Metadata["source_path"] != "/tmp/notes.md" {
		t.Errorf("metadata=%v", got.Metadata)
	}

	if err := s.DeleteDocument(ctx, "doc1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetDocument(ctx, "doc1"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStorage_Chunks(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	doc := &models.Document{ID: "doc1", Content: "text"}
	if err := s.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	chunks := []*models.Chunk{
		{ID: models.ChunkID("doc1", 0), DocumentID: "doc1", Text: "first", SpanStart: 0, SpanEnd: 5, Seq: 0},
		{ID: models.ChunkID("doc1", 1), DocumentID: "doc1", Text: "second", SpanStart: 3, SpanEnd: 9, Seq: 1},
	}
	if err := s.BatchCreateChunks(ctx, chunks); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetChunksByDocumentID(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d chunks", len(got))
	}
	if got[0].Seq != 0 || got[1].Seq != 1 {
		t.Error("chunks must be ordered by seq")
	}
	if got[1].SpanStart != 3 || got[1].SpanEnd != 9 {
		t.Errorf("spans=%d..%d", got[1].SpanStart, got[1].SpanEnd)
	}

	one, err := s.GetChunk(ctx, models.ChunkID("doc1", 1))
	if err != nil {
		t.Fatal(err)
	}
	if one.Text != "second" {
		t.Errorf("text=%q", one.Text)
	}

	if err := s.DeleteChunksByDocumentID(ctx, "doc1"); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.CountChunks(ctx); n != 0 {
		t.Errorf("count=%d after delete", n)
	}
	if _, err := s.GetChunk(ctx, models.ChunkID("doc1", 0)); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStorage_Counts(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := s.CreateDocument(ctx, &models.Document{ID: id, Content: id}); err != nil {
			t.Fatal(err)
		}
	}
	n, err := s.CountDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("documents=%d", n)
	}

	docs, err := s.ListDocuments(ctx, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Errorf("listed %d documents, want 2", len(docs))
	}
}

func TestSQLiteStorage_DuplicateDocument(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.CreateDocument(ctx, &models.Document{ID: "dup", Content: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateDocument(ctx, &models.Document{ID: "dup", Content: "y"}); err == nil {
		t.Error("duplicate primary key should fail")
	}
}
