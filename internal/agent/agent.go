package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/retriever"
)

// NoContextAnswer is returned when retrieval finds nothing above the
// similarity threshold. The language model is not consulted in that case.
const NoContextAnswer = "No relevant context found in the indexed documents."

// Agent answers questions by retrieving context and generating a completion.
type Agent struct {
	retriever *retriever.Retriever
	llm       LLMClient
	logger    *zap.Logger // optional
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// New creates an Agent over the given retriever and language model client.
func New(r *retriever.Retriever, llm LLMClient, opts ...Option) *Agent {
	a := &Agent{retriever: r, llm: llm}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ask retrieves context for the question and generates an answer. When no
// chunk clears the similarity threshold, the answer states that and the
// model is not called.
func (a *Agent) Ask(ctx context.Context, req *models.AskRequest) (*models.AskResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	chunks, err := a.retriever.Retrieve(ctx, req.Question, req.TopK, req.MinSimilarity)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	resp := &models.AskResponse{
		Sources: chunks,
		Query:   req.Question,
	}
	if len(chunks) == 0 {
		resp.Answer = NoContextAnswer
		resp.QueryTime = time.Since(start).Milliseconds()
		if a.logger != nil {
			a.logger.Debug("agent answered without context", zap.String("question", req.Question))
		}
		return resp, nil
	}
	answer, err := a.llm.Generate(ctx, BuildPrompt(req.Question, chunks))
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	resp.Answer = answer
	resp.HasContext = true
	resp.QueryTime = time.Since(start).Milliseconds()
	if a.logger != nil {
		a.logger.Debug("agent answered",
			zap.String("question", req.Question),
			zap.Int("sources", len(chunks)),
			zap.Int64("query_time_ms", resp.QueryTime))
	}
	return resp, nil
}
