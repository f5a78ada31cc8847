package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OllamaClient generates completions via a local Ollama server's
// /api/generate endpoint (non-streaming).
type OllamaClient struct {
	baseURL     string
	model       string
	temperature float64
	client      *http.Client
	maxRetries  int
}

// NewOllamaClient creates a client for the Ollama server at baseURL
// (default http://localhost:11434).
func NewOllamaClient(baseURL, model string, temperature float64, timeout time.Duration, maxRetries int) (*OllamaClient, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "qwen2.5:7b"
	}
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &OllamaClient{
		baseURL:     baseURL,
		model:       model,
		temperature: temperature,
		client:      &http.Client{Timeout: timeout},
		maxRetries:  maxRetries,
	}, nil
}

type ollamaGenerateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

// Generate returns the model's completion for prompt.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	req := ollamaGenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	}
	if c.temperature > 0 {
		req.Options = map[string]interface{}{"temperature": c.temperature}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	return generateWithRetries(ctx, c.maxRetries, func() (string, error) {
		httpReq, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
		if reqErr != nil {
			return "", reqErr
		}
		httpReq.Header.Set("Content-Type", "application/json")
		resp, reqErr := c.client.Do(httpReq)
		if reqErr != nil {
			return "", reqErr
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("ollama returned status %d", resp.StatusCode)
		}
		var parsed ollamaGenerateResponse
		if decErr := json.NewDecoder(resp.Body).Decode(&parsed); decErr != nil {
			return "", decErr
		}
		return parsed.Response, nil
	})
}

// Close is a no-op for OllamaClient.
func (c *OllamaClient) Close() error {
	return nil
}
