// Package agent generates answers from retrieved context using a language model.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

// LLMClient generates a completion for a prompt. Implementations wrap a
// concrete backend; failures surface as ErrEmbeddingBackend-style wrapped
// errors so callers can match with errors.Is.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}

// NewLLMClient creates the client selected by cfg.Provider.
func NewLLMClient(cfg *config.LLMConfig) (LLMClient, error) {
	switch cfg.Provider {
	case "ollama", "":
		return NewOllamaClient(cfg.BaseURL, cfg.Model, cfg.Temperature, cfg.Timeout, cfg.MaxRetries)
	case "openai":
		return NewOpenAIClient(cfg)
	case "mock":
		return NewMockClient(""), nil
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q (supported: ollama, openai, mock)",
			models.ErrConfig, cfg.Provider)
	}
}

// generateWithRetries runs fn with bounded exponential backoff, stopping
// early when ctx is done. The last error is wrapped as a backend failure.
func generateWithRetries(ctx context.Context, maxRetries int, fn func() (string, error)) (string, error) {
	var (
		out string
		err error
	)
	backoff := time.Second
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", models.ErrEmbeddingBackend, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		if out, err = fn(); err == nil {
			return out, nil
		}
	}
	return "", fmt.Errorf("%w: %v", models.ErrEmbeddingBackend, err)
}
