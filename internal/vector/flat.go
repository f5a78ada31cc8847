package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hyperjump/kotae/internal/models"
)

// FlatIndex is an exact-search index: every query scans all entries, O(n·d).
// Suitable as the reference strategy and for collections up to tens of
// thousands of chunks.
type FlatIndex struct {
	manifest Manifest
	entries  map[string]*Entry
	mu       sync.RWMutex
}

// NewFlatIndex creates an exact-search index for the given dimension, metric,
// and embedder identity.
func NewFlatIndex(dimension int, metric Metric, embedderID string) (*FlatIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", models.ErrConfig, dimension)
	}
	metric, err := ParseMetric(string(metric))
	if err != nil {
		return nil, err
	}
	return &FlatIndex{
		manifest: Manifest{
			Dimension:     dimension,
			Metric:        metric,
			EmbedderID:    embedderID,
			FormatVersion: formatVersion,
		},
		entries: make(map[string]*Entry),
	}, nil
}

// Type returns the strategy identifier.
func (f *FlatIndex) Type() string {
	return string(IndexTypeFlat)
}

// Insert adds an entry, rejecting dimension mismatches and duplicate ids.
func (f *FlatIndex) Insert(ctx context.Context, e Entry) error {
	if err := validateDimension(len(e.Vector), f.manifest.Dimension); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.entries[e.ChunkID]; exists {
		return fmt.Errorf("%w: %s", models.ErrDuplicateID, e.ChunkID)
	}
	f.entries[e.ChunkID] = copyEntry(e)
	return nil
}

// Upsert adds an entry, superseding any existing entry with the same id.
func (f *FlatIndex) Upsert(ctx context.Context, e Entry) error {
	if err := validateDimension(len(e.Vector), f.manifest.Dimension); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[e.ChunkID] = copyEntry(e)
	return nil
}

// Delete removes an entry by id. Absent ids are a no-op.
func (f *FlatIndex) Delete(ctx context.Context, chunkID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, chunkID)
	return nil
}

// Search scans all entries and returns the top-k hits above minSimilarity.
func (f *FlatIndex) Search(ctx context.Context, query []float32, k int, minSimilarity float64) ([]Hit, error) {
	if err := validateK(k); err != nil {
		return nil, err
	}
	if err := validateDimension(len(query), f.manifest.Dimension); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	hits := make([]Hit, 0, len(f.entries))
	for _, e := range f.entries {
		score := Score(f.manifest.Metric, query, e.Vector)
		if score >= minSimilarity {
			hits = append(hits, Hit{ChunkID: e.ChunkID, Score: score, Entry: e})
		}
	}
	sortHits(hits)
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Manifest returns a snapshot of the manifest with the live entry count.
func (f *FlatIndex) Manifest() Manifest {
	f.mu.RLock()
	defer f.mu.RUnlock()
	m := f.manifest
	m.Count = len(f.entries)
	return m
}

// Size returns the number of stored entries.
func (f *FlatIndex) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}

// SaveFile persists the index to path. Exclusive with concurrent writes.
func (f *FlatIndex) SaveFile(path string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	m := f.manifest
	m.Count = len(f.entries)
	return writeIndexFile(path, m, f.entries)
}

// LoadFile replaces the index contents from path. The on-disk manifest must
// agree with this index's dimension, metric, and embedder identity.
func (f *FlatIndex) LoadFile(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, entries, err := readIndexFile(path, f.manifest)
	if err != nil {
		return err
	}
	if f.manifest.EmbedderID == "" {
		f.manifest.EmbedderID = m.EmbedderID
	}
	f.entries = entries
	return nil
}

// Close is a no-op for FlatIndex.
func (f *FlatIndex) Close() error {
	return nil
}

// sortHits orders hits by descending score, ties broken by ascending chunk
// id so results are deterministic.
func sortHits(hits []Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
}
