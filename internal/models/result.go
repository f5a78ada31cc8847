package models

// RetrieveResponse is the response for a retrieval request. An empty Results
// slice is a valid outcome (nothing cleared the similarity threshold), not
// an error.
type RetrieveResponse struct {
	Results   []*RetrievedChunk `json:"results"`
	Query     string            `json:"query"`
	QueryTime int64             `json:"query_time_ms"`
}

// AskResponse is the response for a question-answering request.
// HasContext is false when retrieval returned nothing above the threshold;
// in that case Answer states that no relevant context was found and the
// language model was not consulted.
type AskResponse struct {
	Answer     string            `json:"answer"`
	Sources    []*RetrievedChunk `json:"sources"`
	HasContext bool              `json:"has_context"`
	Query      string            `json:"query"`
	QueryTime  int64             `json:"query_time_ms"`
}
