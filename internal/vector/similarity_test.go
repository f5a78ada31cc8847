package vector

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	if got := CosineSimilarity([]float32{1, 0}, []float32{1, 0}); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("identical vectors: %g, want 1", got)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{0, 1}); math.Abs(got) > 1e-9 {
		t.Errorf("orthogonal vectors: %g, want 0", got)
	}
	// Scale invariance: cosine ignores magnitude.
	a := CosineSimilarity([]float32{2, 3}, []float32{4, 6})
	if math.Abs(a-1.0) > 1e-6 {
		t.Errorf("parallel vectors: %g, want 1", a)
	}
}

func TestCosineSimilarityZeroMagnitude(t *testing.T) {
	// Total function: zero vector scores 0, never divides by zero.
	if got := CosineSimilarity([]float32{0, 0}, []float32{1, 0}); got != 0 {
		t.Errorf("zero vector: %g, want 0", got)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{0, 0}); got != 0 {
		t.Errorf("zero vector: %g, want 0", got)
	}
}

func TestCosineSimilarityLengthMismatch(t *testing.T) {
	if got := CosineSimilarity([]float32{1, 0}, []float32{1}); got != 0 {
		t.Errorf("mismatched lengths: %g, want 0", got)
	}
}

func TestEuclideanSimilarity(t *testing.T) {
	// Identical vectors: distance 0, similarity 1.
	if got := EuclideanSimilarity([]float32{1, 2}, []float32{1, 2}); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("identical vectors: %g, want 1", got)
	}
	// Distance 1 maps to 0.5.
	if got := EuclideanSimilarity([]float32{0, 0}, []float32{1, 0}); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("distance 1: %g, want 0.5", got)
	}
	// Monotonically decreasing in distance.
	near := EuclideanSimilarity([]float32{0, 0}, []float32{1, 0})
	far := EuclideanSimilarity([]float32{0, 0}, []float32{5, 0})
	if near <= far {
		t.Errorf("similarity should decrease with distance: near=%g far=%g", near, far)
	}
}

func TestParseMetric(t *testing.T) {
	if m, err := ParseMetric(""); err != nil || m != MetricCosine {
		t.Errorf("empty metric: %v %v", m, err)
	}
	if m, err := ParseMetric("euclidean"); err != nil || m != MetricEuclidean {
		t.Errorf("euclidean: %v %v", m, err)
	}
	if _, err := ParseMetric("manhattan"); err == nil {
		t.Error("unknown metric should fail")
	}
}
