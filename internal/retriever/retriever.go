// Package retriever answers similarity queries against the vector index.
package retriever

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vector"
)

// Retriever embeds a query with the configured embedder and searches the
// vector index. The embedder's identity and dimension are checked against
// the index manifest before any search; an index built in a different
// embedding space is never queried.
type Retriever struct {
	embedder embedding.Embedder
	index    vector.Index
	logger   *zap.Logger // optional
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(r *Retriever) { r.logger = l }
}

// New creates a Retriever over the given embedder and index.
func New(embedder embedding.Embedder, index vector.Index, opts ...Option) *Retriever {
	r := &Retriever{embedder: embedder, index: index}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns at most k chunks scoring at least minSimilarity against
// queryText, ordered by descending score. No hit above the threshold is a
// valid empty result, not an error.
func (r *Retriever) Retrieve(ctx context.Context, queryText string, k int, minSimilarity float64) ([]*models.RetrievedChunk, error) {
	if err := r.checkManifest(); err != nil {
		return nil, err
	}
	queryVec, err := r.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := r.index.Search(ctx, queryVec, k, minSimilarity)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	if r.logger != nil {
		r.logger.Debug("retriever query answered",
			zap.Int("k", k),
			zap.Float64("min_similarity", minSimilarity),
			zap.Int("hits", len(hits)))
	}
	results := make([]*models.RetrievedChunk, len(hits))
	for i, h := range hits {
		results[i] = &models.RetrievedChunk{
			ChunkID:    h.ChunkID,
			DocumentID: h.Entry.DocumentID,
			Text:       h.Entry.Text,
			SpanStart:  h.Entry.SpanStart,
			SpanEnd:    h.Entry.SpanEnd,
			Score:      h.Score,
		}
	}
	return results, nil
}

// RetrieveQuery validates q, applies defaults, and runs Retrieve.
func (r *Retriever) RetrieveQuery(ctx context.Context, q *models.RetrieveQuery) ([]*models.RetrievedChunk, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return r.Retrieve(ctx, q.Query, q.TopK, q.MinSimilarity)
}

// checkManifest rejects an embedder whose identity or dimension disagrees
// with the index manifest.
func (r *Retriever) checkManifest() error {
	m := r.index.Manifest()
	if r.embedder.ID() != m.EmbedderID {
		return fmt.Errorf("%w: embedder %q, index built with %q",
			models.ErrManifestMismatch, r.embedder.ID(), m.EmbedderID)
	}
	if r.embedder.Dimensions() != m.Dimension {
		return fmt.Errorf("%w: embedder dimension %d, index dimension %d",
			models.ErrManifestMismatch, r.embedder.Dimensions(), m.Dimension)
	}
	return nil
}
