package vector

import (
	"errors"
	"testing"

	"github.com/hyperjump/kotae/internal/models"
)

func TestNew(t *testing.T) {
	idx, err := New("flat", 4, MetricCosine, "mock", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if idx.Type() != "flat" {
		t.Errorf("Type=%s", idx.Type())
	}

	idx, err = New("ivf", 4, MetricEuclidean, "mock", Options{NumLists: 16, NumProbe: 4})
	if err != nil {
		t.Fatal(err)
	}
	if idx.Type() != "ivf" {
		t.Errorf("Type=%s", idx.Type())
	}

	// Empty type defaults to flat.
	idx, err = New("", 4, MetricCosine, "", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if idx.Type() != "flat" {
		t.Errorf("default Type=%s", idx.Type())
	}
}

func TestNewUnknownType(t *testing.T) {
	if _, err := New("hnsw", 4, MetricCosine, "", Options{}); !errors.Is(err, models.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}
