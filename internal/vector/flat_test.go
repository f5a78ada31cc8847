package vector

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kotae/internal/models"
)

func entry(id, docID string, vec ...float32) Entry {
	return Entry{ChunkID: id, Vector: vec, DocumentID: docID, Text: "text of " + id}
}

func TestFlatIndex_InsertSearch(t *testing.T) {
	idx, err := NewFlatIndex(2, MetricCosine, "mock-v1")
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	if err := idx.Insert(ctx, entry("a", "doc1", 1, 0)); err != nil {
		t.Fatal(err)
	}
	if err := idx.Insert(ctx, entry("b", "doc1", 0, 1)); err != nil {
		t.Fatal(err)
	}

	// Cosine index, query [1,0], k=2, threshold 0: exactly [("a",1.0), ("b",0.0)].
	hits, err := idx.Search(ctx, []float32{1, 0}, 2, 0.0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ChunkID != "a" || math.Abs(hits[0].Score-1.0) > 1e-9 {
		t.Errorf("hit 0: %s %g, want a 1.0", hits[0].ChunkID, hits[0].Score)
	}
	if hits[1].ChunkID != "b" || math.Abs(hits[1].Score) > 1e-9 {
		t.Errorf("hit 1: %s %g, want b 0.0", hits[1].ChunkID, hits[1].Score)
	}
	if hits[0].Entry.DocumentID != "doc1" || hits[0].Entry.Text == "" {
		t.Error("hit should carry payload without a secondary lookup")
	}
}

func TestFlatIndex_SearchEmpty(t *testing.T) {
	idx, _ := NewFlatIndex(2, MetricCosine, "")
	hits, err := idx.Search(context.Background(), []float32{1, 0}, 5, 0)
	if err != nil {
		t.Fatalf("empty index search should not error: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}

func TestFlatIndex_SearchKLargerThanSize(t *testing.T) {
	idx, _ := NewFlatIndex(2, MetricCosine, "")
	ctx := context.Background()
	_ = idx.Insert(ctx, entry("a", "d", 1, 0))
	_ = idx.Insert(ctx, entry("b", "d", 0, 1))
	hits, err := idx.Search(ctx, []float32{1, 1}, 50, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Errorf("expected all 2 entries, got %d", len(hits))
	}
}

func TestFlatIndex_SearchThresholdAndOrder(t *testing.T) {
	idx, _ := NewFlatIndex(3, MetricCosine, "")
	ctx := context.Background()
	_ = idx.Insert(ctx, entry("a", "d", 1, 0, 0))
	_ = idx.Insert(ctx, entry("b", "d", 0.9, 0.1, 0))
	_ = idx.Insert(ctx, entry("c", "d", 0, 1, 0))

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 10, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits above 0.5, got %d", len(hits))
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Error("scores must be non-increasing")
		}
	}
	for _, h := range hits {
		if h.Score < 0.5 {
			t.Errorf("hit %s below threshold: %g", h.ChunkID, h.Score)
		}
	}
}

func TestFlatIndex_TieBreakByID(t *testing.T) {
	idx, _ := NewFlatIndex(2, MetricCosine, "")
	ctx := context.Background()
	// Parallel vectors score identically; order must be ascending id.
	_ = idx.Insert(ctx, entry("z", "d", 2, 0))
	_ = idx.Insert(ctx, entry("a", "d", 1, 0))
	_ = idx.Insert(ctx, entry("m", "d", 3, 0))

	hits, err := idx.Search(ctx, []float32{1, 0}, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	got := []string{hits[0].ChunkID, hits[1].ChunkID, hits[2].ChunkID}
	want := []string{"a", "m", "z"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tie order %v, want %v", got, want)
		}
	}
}

func TestFlatIndex_DimensionMismatch(t *testing.T) {
	idx, _ := NewFlatIndex(2, MetricCosine, "")
	ctx := context.Background()

	err := idx.Insert(ctx, entry("a", "d", 1, 0, 0))
	if !errors.Is(err, models.ErrDimensionMismatch) {
		t.Errorf("insert: expected ErrDimensionMismatch, got %v", err)
	}
	if idx.Size() != 0 {
		t.Error("failed insert must leave the index unchanged")
	}

	_, err = idx.Search(ctx, []float32{1, 0, 0}, 1, 0)
	if !errors.Is(err, models.ErrDimensionMismatch) {
		t.Errorf("search: expected ErrDimensionMismatch, got %v", err)
	}
}

func TestFlatIndex_DuplicateAndUpsert(t *testing.T) {
	idx, _ := NewFlatIndex(2, MetricCosine, "")
	ctx := context.Background()
	_ = idx.Insert(ctx, entry("a", "d", 1, 0))

	if err := idx.Insert(ctx, entry("a", "d", 0, 1)); !errors.Is(err, models.ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
	if err := idx.Upsert(ctx, entry("a", "d", 0, 1)); err != nil {
		t.Fatal(err)
	}
	hits, _ := idx.Search(ctx, []float32{0, 1}, 1, 0.9)
	if len(hits) != 1 || hits[0].ChunkID != "a" {
		t.Error("upsert should supersede the old vector")
	}
}

func TestFlatIndex_DeleteIdempotent(t *testing.T) {
	idx, _ := NewFlatIndex(2, MetricCosine, "")
	ctx := context.Background()
	_ = idx.Insert(ctx, entry("a", "d", 1, 0))

	if err := idx.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := idx.Delete(ctx, "a"); err != nil {
		t.Errorf("deleting an absent id must be a no-op, got %v", err)
	}
	if err := idx.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("deleting an unknown id must be a no-op, got %v", err)
	}
	if idx.Size() != 0 {
		t.Errorf("Size=%d", idx.Size())
	}
}

func TestFlatIndex_InvalidConfig(t *testing.T) {
	if _, err := NewFlatIndex(0, MetricCosine, ""); !errors.Is(err, models.ErrConfig) {
		t.Errorf("zero dimension: %v", err)
	}
	if _, err := NewFlatIndex(-3, MetricCosine, ""); !errors.Is(err, models.ErrConfig) {
		t.Errorf("negative dimension: %v", err)
	}
	if _, err := NewFlatIndex(2, Metric("chebyshev"), ""); !errors.Is(err, models.ErrConfig) {
		t.Errorf("unknown metric: %v", err)
	}

	idx, _ := NewFlatIndex(2, MetricCosine, "")
	if _, err := idx.Search(context.Background(), []float32{1, 0}, 0, 0); !errors.Is(err, models.ErrConfig) {
		t.Errorf("k=0: %v", err)
	}
}

func TestFlatIndex_EuclideanMetric(t *testing.T) {
	idx, _ := NewFlatIndex(2, MetricEuclidean, "")
	ctx := context.Background()
	_ = idx.Insert(ctx, entry("near", "d", 1, 1))
	_ = idx.Insert(ctx, entry("far", "d", 10, 10))

	hits, err := idx.Search(ctx, []float32{1, 1}, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if hits[0].ChunkID != "near" {
		t.Errorf("closest entry should rank first, got %s", hits[0].ChunkID)
	}
	if math.Abs(hits[0].Score-1.0) > 1e-9 {
		t.Errorf("distance 0 should score 1, got %g", hits[0].Score)
	}
}

func TestFlatIndex_SaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx", "vectors.kvix")
	ctx := context.Background()

	orig, _ := NewFlatIndex(3, MetricCosine, "bow-384")
	_ = orig.Insert(ctx, Entry{ChunkID: "d1_chunk_0", Vector: []float32{1, 0, 0}, DocumentID: "d1", Text: "alpha", SpanStart: 0, SpanEnd: 5})
	_ = orig.Insert(ctx, Entry{ChunkID: "d1_chunk_1", Vector: []float32{0, 1, 0}, DocumentID: "d1", Text: "beta", SpanStart: 3, SpanEnd: 8})
	_ = orig.Insert(ctx, Entry{ChunkID: "d2_chunk_0", Vector: []float32{0.5, 0.5, 0}, DocumentID: "d2", Text: "gamma", SpanStart: 0, SpanEnd: 5})

	if err := orig.SaveFile(path); err != nil {
		t.Fatal(err)
	}

	loaded, _ := NewFlatIndex(3, MetricCosine, "bow-384")
	if err := loaded.LoadFile(path); err != nil {
		t.Fatal(err)
	}
	if loaded.Size() != 3 {
		t.Fatalf("loaded size=%d", loaded.Size())
	}
	if m := loaded.Manifest(); m.EmbedderID != "bow-384" || m.Count != 3 {
		t.Errorf("manifest=%+v", m)
	}

	// Observable equivalence: identical ordered results for any query.
	for _, q := range [][]float32{{1, 0, 0}, {0, 1, 0}, {0.3, 0.7, 0}, {1, 1, 1}} {
		a, err := orig.Search(ctx, q, 10, 0)
		if err != nil {
			t.Fatal(err)
		}
		b, err := loaded.Search(ctx, q, 10, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(a) != len(b) {
			t.Fatalf("query %v: %d vs %d hits", q, len(a), len(b))
		}
		for i := range a {
			if a[i].ChunkID != b[i].ChunkID || a[i].Score != b[i].Score {
				t.Errorf("query %v hit %d: %v vs %v", q, i, a[i], b[i])
			}
			if a[i].Entry.Text != b[i].Entry.Text || a[i].Entry.SpanStart != b[i].Entry.SpanStart {
				t.Errorf("query %v hit %d: payload differs", q, i)
			}
		}
	}
}

func TestFlatIndex_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.kvix")
	if err := writeFile(path, []byte("not an index")); err != nil {
		t.Fatal(err)
	}
	idx, _ := NewFlatIndex(2, MetricCosine, "")
	if err := idx.LoadFile(path); !errors.Is(err, models.ErrCorruptIndex) {
		t.Errorf("expected ErrCorruptIndex, got %v", err)
	}
}

func TestFlatIndex_LoadTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trunc.kvix")
	ctx := context.Background()
	orig, _ := NewFlatIndex(2, MetricCosine, "")
	_ = orig.Insert(ctx, entry("a", "d", 1, 0))
	_ = orig.Insert(ctx, entry("b", "d", 0, 1))
	if err := orig.SaveFile(path); err != nil {
		t.Fatal(err)
	}
	if err := truncateFile(path, 10); err != nil {
		t.Fatal(err)
	}
	idx, _ := NewFlatIndex(2, MetricCosine, "")
	if err := idx.LoadFile(path); !errors.Is(err, models.ErrCorruptIndex) {
		t.Errorf("expected ErrCorruptIndex for truncated file, got %v", err)
	}
}

func TestFlatIndex_LoadNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.kvix")
	// Magic + version 99.
	data := append([]byte(fileMagic), 99, 0, 0, 0)
	if err := writeFile(path, data); err != nil {
		t.Fatal(err)
	}
	idx, _ := NewFlatIndex(2, MetricCosine, "")
	if err := idx.LoadFile(path); !errors.Is(err, models.ErrVersionMismatch) {
		t.Errorf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestFlatIndex_LoadDimensionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dim.kvix")
	ctx := context.Background()
	orig, _ := NewFlatIndex(2, MetricCosine, "")
	_ = orig.Insert(ctx, entry("a", "d", 1, 0))
	if err := orig.SaveFile(path); err != nil {
		t.Fatal(err)
	}
	idx, _ := NewFlatIndex(3, MetricCosine, "")
	if err := idx.LoadFile(path); !errors.Is(err, models.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestFlatIndex_LoadEmbedderMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emb.kvix")
	ctx := context.Background()
	orig, _ := NewFlatIndex(2, MetricCosine, "bow-384")
	_ = orig.Insert(ctx, entry("a", "d", 1, 0))
	if err := orig.SaveFile(path); err != nil {
		t.Fatal(err)
	}
	idx, _ := NewFlatIndex(2, MetricCosine, "openai:text-embedding-3-small")
	if err := idx.LoadFile(path); !errors.Is(err, models.ErrManifestMismatch) {
		t.Errorf("expected ErrManifestMismatch, got %v", err)
	}
}
