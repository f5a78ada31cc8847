// Package indexer provides document cleaning, chunking, and the indexing pipeline.
package indexer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/hyperjump/kotae/internal/models"
)

// maxSnapTolerance caps how far back from the target cut a boundary may be.
const maxSnapTolerance = 120

// Chunker splits cleaned text into overlapping character windows. Cuts
// prefer a sentence end, then whitespace, within a tolerance window behind
// the target position; otherwise the window is cut hard. Chunk ids and
// offsets are deterministic for a given text and configuration.
type Chunker struct {
	chunkSize int
	overlap   int
	tolerance int
}

// NewChunker creates a chunker with the given window size and overlap, both
// in characters. Requires chunkSize > overlap >= 0.
func NewChunker(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", models.ErrConfig, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap must satisfy 0 <= overlap < chunk size, got %d", models.ErrConfig, overlap)
	}
	tolerance := chunkSize * 15 / 100
	if tolerance > maxSnapTolerance {
		tolerance = maxSnapTolerance
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap, tolerance: tolerance}, nil
}

// Chunk splits text into models.Chunks with monotonically increasing spans.
// Spans are character (rune) offsets into text. Blank text yields no chunks.
// Text shorter than one window yields a single chunk.
func (c *Chunker) Chunk(docID, text string) ([]*models.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	runes := []rune(text)
	var chunks []*models.Chunk
	pos := 0
	seq := 0
	for pos < len(runes) {
		end := pos + c.chunkSize
		if end >= len(runes) {
			c.emit(&chunks, docID, runes, pos, len(runes), &seq)
			break
		}
		cut := c.snapCut(runes, pos, end)
		c.emit(&chunks, docID, runes, pos, cut, &seq)
		next := cut - c.overlap
		if next <= pos {
			next = pos + 1
		}
		pos = next
	}
	return chunks, nil
}

// emit appends the window [start, end) as a chunk unless it is blank.
func (c *Chunker) emit(chunks *[]*models.Chunk, docID string, runes []rune, start, end int, seq *int) {
	content := string(runes[start:end])
	if strings.TrimSpace(content) == "" {
		return
	}
	*chunks = append(*chunks, &models.Chunk{
		ID:         models.ChunkID(docID, *seq),
		DocumentID: docID,
		Text:       content,
		SpanStart:  start,
		SpanEnd:    end,
		Seq:        *seq,
	})
	*seq++
}

// snapCut returns the cut position for a window starting at pos with target
// end. It scans backwards through the tolerance window for a sentence end,
// then for whitespace; with no boundary in range the target stands.
func (c *Chunker) snapCut(runes []rune, pos, end int) int {
	low := end - c.tolerance
	if low <= pos {
		low = pos + 1
	}
	for i := end - 1; i >= low; i-- {
		if isSentenceEnd(runes, i) {
			return i + 1
		}
	}
	for i := end - 1; i >= low; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return end
}

// isSentenceEnd reports whether runes[i] terminates a sentence: one of . ! ?
// followed by whitespace or end of text.
func isSentenceEnd(runes []rune, i int) bool {
	switch runes[i] {
	case '.', '!', '?':
	default:
		return false
	}
	return i+1 >= len(runes) || unicode.IsSpace(runes[i+1])
}
