package vector

import (
	"fmt"

	"github.com/hyperjump/kotae/internal/models"
)

// IndexType selects a search strategy. Both types implement the same Index
// contract; they differ only in query cost and exactness.
type IndexType string

const (
	// IndexTypeFlat scans every entry per query. Exact, O(n·d).
	IndexTypeFlat IndexType = "flat"
	// IndexTypeIVF probes a subset of k-means clusters per query.
	// Approximate, sub-linear for large entry counts.
	IndexTypeIVF IndexType = "ivf"
)

// Options carries strategy-specific tuning. Zero values fall back to
// defaults suitable for collections around 10k-100k chunks.
type Options struct {
	NumLists int
	NumProbe int
}

// New creates a vector index of the given type. An empty type selects flat.
func New(indexType string, dimension int, metric Metric, embedderID string, opts Options) (Index, error) {
	switch IndexType(indexType) {
	case IndexTypeFlat, "":
		return NewFlatIndex(dimension, metric, embedderID)
	case IndexTypeIVF:
		numLists := opts.NumLists
		if numLists == 0 {
			numLists = 64
		}
		numProbe := opts.NumProbe
		if numProbe == 0 {
			numProbe = 8
		}
		return NewIVFIndex(dimension, metric, embedderID, numLists, numProbe)
	default:
		return nil, fmt.Errorf("%w: unknown index type %q (supported: flat, ivf)", models.ErrConfig, indexType)
	}
}
