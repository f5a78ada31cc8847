package models

import "fmt"

// RetrieveQuery is a retrieval request against the vector index.
type RetrieveQuery struct {
	Query         string  `json:"query"`
	TopK          int     `json:"top_k,omitempty"`
	MinSimilarity float64 `json:"min_similarity,omitempty"`
}

// HardMaxTopK is the protocol-level ceiling on top_k. Deployments may
// configure a lower limit (retrieval.max_top_k); this bound always holds.
const HardMaxTopK = 100

// Validate checks the query and applies defaults. An empty query string, an
// out-of-range threshold, and a top_k outside (0, HardMaxTopK] are rejected;
// TopK defaults to 4. The threshold spans [-1,1] so cosine scores of
// negatively correlated vectors stay addressable.
func (q *RetrieveQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("%w: query cannot be empty", ErrConfig)
	}
	if q.TopK == 0 {
		q.TopK = 4
	}
	if q.TopK < 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrConfig, q.TopK)
	}
	if q.TopK > HardMaxTopK {
		return fmt.Errorf("%w: top_k must be at most %d, got %d", ErrConfig, HardMaxTopK, q.TopK)
	}
	if q.MinSimilarity < -1 || q.MinSimilarity > 1 {
		return fmt.Errorf("%w: min_similarity must be in [-1,1], got %g", ErrConfig, q.MinSimilarity)
	}
	return nil
}

// AskRequest is a question-answering request: one retrieval plus one
// generation round.
type AskRequest struct {
	Question      string  `json:"question"`
	TopK          int     `json:"top_k,omitempty"`
	MinSimilarity float64 `json:"min_similarity,omitempty"`
}

// Validate checks the request and applies retrieval defaults.
func (r *AskRequest) Validate() error {
	q := RetrieveQuery{Query: r.Question, TopK: r.TopK, MinSimilarity: r.MinSimilarity}
	if err := q.Validate(); err != nil {
		return err
	}
	r.TopK = q.TopK
	return nil
}
