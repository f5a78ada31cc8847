package agent

import "context"

// MockClient returns a canned answer. Used in tests and as an offline
// fallback for wiring checks.
type MockClient struct {
	Answer string
	// Prompts records every prompt passed to Generate.
	Prompts []string
}

// NewMockClient creates a mock client that always answers with answer.
func NewMockClient(answer string) *MockClient {
	if answer == "" {
		answer = "mock answer"
	}
	return &MockClient{Answer: answer}
}

// Generate records the prompt and returns the canned answer.
func (c *MockClient) Generate(_ context.Context, prompt string) (string, error) {
	c.Prompts = append(c.Prompts, prompt)
	return c.Answer, nil
}

// Close is a no-op for MockClient.
func (c *MockClient) Close() error {
	return nil
}
