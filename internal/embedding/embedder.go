// Package embedding provides text embedding strategies and caching.
package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/kotae/internal/models"
)

// Embedder produces vector embeddings for text. For a fixed instance, Embed
// is a pure function of its input, so results are reproducible and cacheable
// by content hash. ID identifies the embedding space; vectors are only
// comparable between embedders with the same ID, and the vector index
// manifest records it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ID() string
	Close() error
}

// validateInput rejects empty or blank text at the call boundary.
func validateInput(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: cannot embed blank text", models.ErrEmptyInput)
	}
	return nil
}

// embedBatch implements EmbedBatch via per-text Embed for strategies with
// no native batching.
func embedBatch(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// withRetries runs fn up to maxRetries+1 times with exponential backoff,
// stopping early when ctx is done or fn succeeds. The last error is wrapped
// as an embedding backend failure.
func withRetries(ctx context.Context, maxRetries int, fn func() error) error {
	var err error
	backoff := time.Second
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", models.ErrEmbeddingBackend, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %v", models.ErrEmbeddingBackend, err)
}
