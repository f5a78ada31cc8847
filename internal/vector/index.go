package vector

import (
	"context"
	"fmt"

	"github.com/hyperjump/kotae/internal/models"
)

// Manifest binds an index to the embedding space it was built in: the vector
// dimension, the similarity metric, and the identity of the embedder that
// produced the stored vectors. Queries from a different embedder or dimension
// are rejected; comparing vectors across embedding spaces is meaningless.
type Manifest struct {
	Dimension     int    `json:"dimension"`
	Metric        Metric `json:"metric"`
	EmbedderID    string `json:"embedder_id"`
	Count         int    `json:"count"`
	FormatVersion int    `json:"format_version"`
}

// Entry is a stored (chunk id, vector, payload) triple. The payload carries
// everything needed to present a retrieval hit without a secondary lookup.
type Entry struct {
	ChunkID    string
	Vector     []float32
	DocumentID string
	Text       string
	SpanStart  int
	SpanEnd    int
}

// Hit is a single search result: a chunk id, its score under the index's
// metric, and the stored payload.
type Hit struct {
	ChunkID string
	Score   float64
	Entry   *Entry
}

// Index stores entries and answers top-k similarity queries. Mutations are
// serialized internally (single writer); searches may run concurrently and
// observe either the pre- or post-mutation state, never a torn mix.
type Index interface {
	// Insert adds an entry. Fails with ErrDimensionMismatch if the vector's
	// dimension disagrees with the manifest, and with ErrDuplicateID if the
	// chunk id is already present. The index is unchanged on failure.
	Insert(ctx context.Context, e Entry) error
	// Upsert is Insert that atomically supersedes an existing entry with
	// the same chunk id.
	Upsert(ctx context.Context, e Entry) error
	// Delete removes an entry by chunk id. Deleting an absent id is a no-op.
	Delete(ctx context.Context, chunkID string) error
	// Search returns at most k hits with score >= minSimilarity, ordered by
	// descending score, ties broken by ascending chunk id. An empty index
	// or an all-filtered result set yields an empty slice, not an error.
	Search(ctx context.Context, query []float32, k int, minSimilarity float64) ([]Hit, error)
	// Manifest returns a snapshot of the index manifest with the live count.
	Manifest() Manifest
	// Size returns the number of stored entries.
	Size() int
	// SaveFile persists the manifest and all entries to path so that
	// LoadFile reconstructs an observably identical index.
	SaveFile(path string) error
	// LoadFile replaces the index contents from path. Fails with
	// ErrCorruptIndex or ErrVersionMismatch; the manifest on disk must
	// agree with the index's dimension and metric.
	LoadFile(path string) error
	// Type returns the strategy identifier ("flat" or "ivf").
	Type() string
	Close() error
}

// validateDimension checks that an entry or query vector matches the
// manifest dimension.
func validateDimension(got, want int) error {
	if got != want {
		return fmt.Errorf("%w: got %d, index expects %d", models.ErrDimensionMismatch, got, want)
	}
	return nil
}

// validateK rejects non-positive k at the call boundary.
func validateK(k int) error {
	if k <= 0 {
		return fmt.Errorf("%w: k must be positive, got %d", models.ErrConfig, k)
	}
	return nil
}

// copyEntry deep-copies e so callers cannot mutate stored state.
func copyEntry(e Entry) *Entry {
	vec := make([]float32, len(e.Vector))
	copy(vec, e.Vector)
	stored := e
	stored.Vector = vec
	return &stored
}
