package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// BOWEmbedder is the local reference strategy: a deterministic bag-of-words
// projection. Tokens are feature-hashed into a fixed number of buckets with
// a sign hash, weighted by log-scaled term frequency, and L2 normalized.
// No corpus fitting, no I/O; the same text always yields the same vector.
type BOWEmbedder struct {
	dimensions   int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewBOWEmbedder creates a bag-of-words embedder with the given dimension.
func NewBOWEmbedder(dimensions int) (*BOWEmbedder, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got %d", models.ErrConfig, dimensions)
	}
	return &BOWEmbedder{
		dimensions:   dimensions,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`),
		stopwords:    defaultStopwords(),
	}, nil
}

// Embed computes the hashed bag-of-words vector for text.
func (e *BOWEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := validateInput(text); err != nil {
		return nil, err
	}
	vec := make([]float32, e.dimensions)
	counts := make(map[string]int)
	for _, tok := range e.tokenize(text) {
		if _, isStop := e.stopwords[tok]; isStop {
			continue
		}
		counts[tok]++
	}
	for tok, n := range counts {
		bucket, sign := e.hashToken(tok)
		vec[bucket] += sign * float32(1+math.Log(float64(n)))
	}
	utils.NormalizeL2(vec)
	return vec, nil
}

// EmbedBatch calls Embed for each text.
func (e *BOWEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedBatch(ctx, e, texts)
}

// Dimensions returns the embedding dimension.
func (e *BOWEmbedder) Dimensions() int {
	return e.dimensions
}

// ID returns the embedding-space identity.
func (e *BOWEmbedder) ID() string {
	return fmt.Sprintf("bow-%d", e.dimensions)
}

// Close is a no-op for BOWEmbedder.
func (e *BOWEmbedder) Close() error {
	return nil
}

func (e *BOWEmbedder) tokenize(text string) []string {
	return e.tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// hashToken maps a token to a bucket index and a sign in {-1, +1}. The sign
// bit reduces collision bias in the hashed projection.
func (e *BOWEmbedder) hashToken(tok string) (int, float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(tok))
	sum := h.Sum64()
	bucket := int(sum % uint64(e.dimensions))
	if sum&(1<<63) != 0 {
		return bucket, -1
	}
	return bucket, 1
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "and", "are", "as", "at", "be", "but", "by", "for",
		"if", "in", "into", "is", "it", "no", "not", "of", "on", "or",
		"such", "that", "the", "their", "then", "there", "these", "they",
		"this", "to", "was", "will", "with",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
