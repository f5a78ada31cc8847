package embedding

import (
	"errors"
	"testing"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

func TestNew_BOW(t *testing.T) {
	e, err := New(&config.EmbeddingConfig{Method: "bow", Dimensions: 128})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	if e.Dimensions() != 128 || e.ID() != "bow-128" {
		t.Errorf("dimensions=%d id=%s", e.Dimensions(), e.ID())
	}
}

func TestNew_DefaultsToBOW(t *testing.T) {
	e, err := New(&config.EmbeddingConfig{Dimensions: 64})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	if e.ID() != "bow-64" {
		t.Errorf("ID=%s", e.ID())
	}
}

func TestNew_Mock(t *testing.T) {
	e, err := New(&config.EmbeddingConfig{Method: "mock", Dimensions: 32})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	if e.ID() != "mock-32" {
		t.Errorf("ID=%s", e.ID())
	}
}

func TestNew_UnknownMethod(t *testing.T) {
	if _, err := New(&config.EmbeddingConfig{Method: "quantum", Dimensions: 32}); !errors.Is(err, models.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestNew_OpenAIMissingKey(t *testing.T) {
	cfg := &config.EmbeddingConfig{
		Method:     "openai",
		Dimensions: 1536,
		APIKeyEnv:  "KOTAE_TEST_NONEXISTENT_KEY",
	}
	if _, err := New(cfg); !errors.Is(err, models.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}
