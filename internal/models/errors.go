package models

import "errors"

// Sentinel errors for the retrieval core. Callers match with errors.Is;
// call sites wrap them with fmt.Errorf("...: %w", Err...) to add context.
var (
	// ErrConfig indicates invalid configuration at a call boundary
	// (chunk size/overlap, k, dimension, unknown metric). Values are
	// rejected, never clamped.
	ErrConfig = errors.New("invalid configuration")

	// ErrEmptyInput indicates empty or blank text passed to an embedder.
	ErrEmptyInput = errors.New("empty input")

	// ErrDimensionMismatch indicates a vector whose dimension disagrees
	// with the index manifest. Fatal to the operation; vectors are never
	// truncated or padded.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrDuplicateID indicates an insert with a chunk ID already present
	// in the index. Use Upsert to supersede.
	ErrDuplicateID = errors.New("duplicate chunk id")

	// ErrEmbeddingBackend indicates a model-backed embedder or LLM
	// failure (network, subprocess, timeout). Retryable a bounded number
	// of times before surfacing.
	ErrEmbeddingBackend = errors.New("embedding backend failure")

	// ErrCorruptIndex indicates a persisted index whose manifest is
	// unreadable or whose entry count disagrees with the stored entries.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrVersionMismatch indicates a persisted index format newer than
	// this build supports.
	ErrVersionMismatch = errors.New("unsupported index format version")

	// ErrManifestMismatch indicates an embedder whose identity or
	// dimension disagrees with the index manifest. Rejected before any
	// index access.
	ErrManifestMismatch = errors.New("embedder does not match index manifest")

	// ErrNotFound indicates a missing document or chunk.
	ErrNotFound = errors.New("not found")
)
