// Package models defines core data structures for documents, chunks, and retrieval results.
package models

import (
	"fmt"
	"time"
)

// Document represents an ingested source document. Content is the cleaned
// text; a document is immutable after cleaning (re-ingestion replaces it).
type Document struct {
	ID        string                 `json:"id" db:"id"`
	Title     string                 `json:"title" db:"title"`
	Content   string                 `json:"content" db:"content"`
	Metadata  map[string]interface{} `json:"metadata" db:"metadata"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt time.Time              `json:"updated_at" db:"updated_at"`
}

// Chunk is a bounded, offset-addressed span of a document's cleaned text.
// SpanStart/SpanEnd are character offsets into Document.Content; Seq is the
// chunk's position within the document. IDs are deterministic: re-chunking
// the same document with the same parameters yields the same IDs.
type Chunk struct {
	ID         string    `json:"id" db:"id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	Text       string    `json:"text" db:"text"`
	SpanStart  int       `json:"span_start" db:"span_start"`
	SpanEnd    int       `json:"span_end" db:"span_end"`
	Seq        int       `json:"seq" db:"seq"`
	Embedding  []float32 `json:"-" db:"-"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ChunkID returns the deterministic chunk ID for a document and sequence index.
func ChunkID(docID string, seq int) string {
	return fmt.Sprintf("%s_chunk_%d", docID, seq)
}

// RetrievedChunk is a single retrieval hit: the chunk text, its provenance,
// and its similarity score under the index's metric.
type RetrievedChunk struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Text       string  `json:"text"`
	SpanStart  int     `json:"span_start"`
	SpanEnd    int     `json:"span_end"`
	Score      float64 `json:"score"`
}

// DocumentInput is the input for creating or replacing a document.
type DocumentInput struct {
	ID       string                 `json:"id,omitempty"`
	Title    string                 `json:"title,omitempty"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
