package embedding

import (
	"fmt"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

// New creates the embedder selected by cfg.Method. Adding a strategy means
// adding a case here and a type implementing Embedder; callers never change.
// Backend-driven strategies are wrapped with a content-hash cache when
// cfg.CacheSize > 0.
func New(cfg *config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Method {
	case "bow", "":
		return NewBOWEmbedder(cfg.Dimensions)
	case "mock":
		return NewMockEmbedder(cfg.Dimensions), nil
	case "openai":
		e, err := NewOpenAIEmbedder(OpenAIConfig{
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			APIKeyEnv:  cfg.APIKeyEnv,
			Dimensions: cfg.Dimensions,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		})
		if err != nil {
			return nil, err
		}
		return WithCache(e, cfg.CacheSize), nil
	case "ollama":
		e, err := NewOllamaEmbedder(cfg.BaseURL, cfg.Model, cfg.Dimensions, cfg.Timeout, cfg.MaxRetries)
		if err != nil {
			return nil, err
		}
		return WithCache(e, cfg.CacheSize), nil
	case "onnx":
		e, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		return WithCache(e, cfg.CacheSize), nil
	default:
		return nil, fmt.Errorf("%w: unknown embedding method %q (supported: bow, openai, ollama, onnx, mock)",
			models.ErrConfig, cfg.Method)
	}
}
