package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/fileid"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
)

func newTestIndexer(t *testing.T) (*Indexer, storage.Storage, vector.Index) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	embedder := embedding.NewMockEmbedder(32)
	index, err := vector.NewFlatIndex(32, vector.MetricCosine, embedder.ID())
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.RetrievalConfig{ChunkSize: 100, ChunkOverlap: 20}
	idx, err := NewIndexer(store, embedder, index, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	return idx, store, index
}

func TestIndexer_IndexDocument(t *testing.T) {
	idx, store, index := newTestIndexer(t)
	ctx := context.Background()

	err := idx.IndexDocument(ctx, &models.DocumentInput{
		ID:      "doc1",
		Title:   "notes",
		Content: "The first sentence of the document. The second sentence follows it. A third one closes the paragraph.",
	})
	if err != nil {
		t.Fatal(err)
	}

	doc, err := store.GetDocument(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "notes" {
		t.Errorf("title=%q", doc.Title)
	}
	chunks, err := store.GetChunksByDocumentID(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) == 0 {
		t.Fatal("no chunks stored")
	}
	if index.Size() != len(chunks) {
		t.Errorf("index has %d vectors for %d chunks", index.Size(), len(chunks))
	}
	for _, ch := range chunks {
		if ch.ID != models.ChunkID("doc1", ch.Seq) {
			t.Errorf("chunk id %q not deterministic", ch.ID)
		}
	}
}

func TestIndexer_ReindexReplacesDocument(t *testing.T) {
	idx, store, index := newTestIndexer(t)
	ctx := context.Background()

	long := "First version content. It has several sentences to produce more than one chunk. Padding padding padding padding padding. More padding to cross the window size comfortably here."
	if err := idx.IndexDocument(ctx, &models.DocumentInput{ID: "doc1", Content: long}); err != nil {
		t.Fatal(err)
	}
	firstCount := index.Size()

	if err := idx.IndexDocument(ctx, &models.DocumentInput{ID: "doc1", Content: "Short replacement."}); err != nil {
		t.Fatal(err)
	}
	if index.Size() >= firstCount {
		t.Errorf("index size %d after replacing with shorter doc (was %d)", index.Size(), firstCount)
	}
	doc, err := store.GetDocument(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Content != "Short replacement." {
		t.Errorf("content=%q", doc.Content)
	}
}

func TestIndexer_BlankDocumentRejected(t *testing.T) {
	idx, _, _ := newTestIndexer(t)
	err := idx.IndexDocument(context.Background(), &models.DocumentInput{ID: "doc1", Content: "   \n "})
	if err == nil {
		t.Fatal("blank document should be rejected")
	}
}

func TestIndexer_DeleteDocument(t *testing.T) {
	idx, store, index := newTestIndexer(t)
	ctx := context.Background()

	if err := idx.IndexDocument(ctx, &models.DocumentInput{ID: "doc1", Content: "Some content to index and then delete."}); err != nil {
		t.Fatal(err)
	}
	if err := idx.DeleteDocument(ctx, "doc1"); err != nil {
		t.Fatal(err)
	}
	if index.Size() != 0 {
		t.Errorf("index size=%d after delete", index.Size())
	}
	if n, _ := store.CountChunks(ctx); n != 0 {
		t.Errorf("chunks=%d after delete", n)
	}
	// Deleting again is a no-op.
	if err := idx.DeleteDocument(ctx, "doc1"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestIndexer_IndexFile(t *testing.T) {
	idx, store, _ := newTestIndexer(t)
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(path, []byte("Text stored in a file on disk."), 0644); err != nil {
		t.Fatal(err)
	}
	if err := idx.IndexFile(ctx, path, nil); err != nil {
		t.Fatal(err)
	}

	absPath, _ := filepath.Abs(path)
	doc, err := store.GetDocument(ctx, fileid.FileDocID(absPath))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "note.txt" {
		t.Errorf("title=%q", doc.Title)
	}

	// Unchanged file: the stored document must not be rewritten.
	created := doc.CreatedAt
	if err := idx.IndexFile(ctx, path, nil); err != nil {
		t.Fatal(err)
	}
	doc2, _ := store.GetDocument(ctx, fileid.FileDocID(absPath))
	if !doc2.CreatedAt.Equal(created) {
		t.Error("unchanged file was re-indexed")
	}

	// Changed content (different size) triggers re-indexing.
	if err := os.WriteFile(path, []byte("Completely different text now stored."), 0644); err != nil {
		t.Fatal(err)
	}
	if err := idx.IndexFile(ctx, path, nil); err != nil {
		t.Fatal(err)
	}
	doc3, _ := store.GetDocument(ctx, fileid.FileDocID(absPath))
	if doc3.Content == doc.Content {
		t.Error("changed file kept old content")
	}
}

func TestIndexer_IndexFileExtensionFilter(t *testing.T) {
	idx, _, _ := newTestIndexer(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "binary.bin")
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := idx.IndexFile(context.Background(), path, []string{".txt", ".md"}); err == nil {
		t.Error("disallowed extension should be rejected")
	}
}

func TestIndexer_IndexDirectory(t *testing.T) {
	idx, store, _ := newTestIndexer(t)
	ctx := context.Background()

	dir := t.TempDir()
	files := map[string]string{
		"a.txt":     "Content of the first file.",
		"b.md":      "Content of the second file.",
		"skip.bin":  "binary payload",
		"sub/c.txt": "Content of a nested file.",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	n, err := idx.IndexDirectory(ctx, dir, []string{".txt", ".md"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("indexed %d files, want 3", n)
	}
	if docs, _ := store.CountDocuments(ctx); docs != 3 {
		t.Errorf("documents=%d, want 3", docs)
	}
}

func TestIndexer_IndexDirectoryIsolatesFailures(t *testing.T) {
	idx, store, _ := newTestIndexer(t)
	ctx := context.Background()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "good.txt"), []byte("Usable content."), 0644); err != nil {
		t.Fatal(err)
	}
	// Blank file fails cleaning but must not abort the good one.
	if err := os.WriteFile(filepath.Join(dir, "blank.txt"), []byte("   "), 0644); err != nil {
		t.Fatal(err)
	}

	n, err := idx.IndexDirectory(ctx, dir, []string{".txt"})
	if n != 1 {
		t.Errorf("indexed %d files, want 1", n)
	}
	if err == nil {
		t.Error("expected the blank file's error to be reported")
	}
	if docs, _ := store.CountDocuments(ctx); docs != 1 {
		t.Errorf("documents=%d, want 1", docs)
	}
}
