// Package vector provides the persistable vector index and similarity search.
package vector

import (
	"fmt"
	"math"

	"github.com/hyperjump/kotae/internal/models"
)

// Metric is the similarity metric an index scores with. It is fixed at
// index creation and recorded in the manifest.
type Metric string

const (
	// MetricCosine scores by cosine similarity: dot(a,b)/(|a||b|).
	MetricCosine Metric = "cosine"
	// MetricEuclidean scores by 1/(1+d) where d is Euclidean distance, so
	// ordering and threshold semantics match the cosine case.
	MetricEuclidean Metric = "euclidean"
)

// ParseMetric validates a metric name from config or a persisted manifest.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricCosine, "":
		return MetricCosine, nil
	case MetricEuclidean:
		return MetricEuclidean, nil
	default:
		return "", fmt.Errorf("%w: unknown metric %q (supported: cosine, euclidean)", models.ErrConfig, s)
	}
}

// CosineSimilarity returns the cosine similarity of a and b. Defined as 0
// when either vector has zero magnitude, so the operation is total.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// EuclideanDistance returns the L2 distance between a and b.
func EuclideanDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// EuclideanSimilarity maps Euclidean distance to a (0,1] similarity score
// via 1/(1+d), monotonically decreasing in distance.
func EuclideanSimilarity(a, b []float32) float64 {
	return 1 / (1 + EuclideanDistance(a, b))
}

// Score returns the similarity of query and vec under the given metric.
func Score(metric Metric, query, vec []float32) float64 {
	switch metric {
	case MetricEuclidean:
		return EuclideanSimilarity(query, vec)
	default:
		return CosineSimilarity(query, vec)
	}
}
