// Package cli provides output formatting for the kotae command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteRetrieveResponse writes retrieval results to w in the given format.
func WriteRetrieveResponse(w io.Writer, resp *models.RetrieveResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "\nFound %d chunks in %dms\n\n", len(resp.Results), resp.QueryTime)
	for i, chunk := range resp.Results {
		writeChunk(w, i+1, chunk)
	}
	if len(resp.Results) == 0 {
		fmt.Fprintln(w, "No chunks above the similarity threshold.")
	}
	return nil
}

// WriteAskResponse writes a question-answering result to w in the given format.
func WriteAskResponse(w io.Writer, resp *models.AskResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "\n%s\n", resp.Answer)
	if resp.HasContext {
		fmt.Fprintf(w, "\nSources (%d chunks, %dms):\n", len(resp.Sources), resp.QueryTime)
		for i, chunk := range resp.Sources {
			writeChunk(w, i+1, chunk)
		}
	}
	return nil
}

func writeChunk(w io.Writer, rank int, chunk *models.RetrievedChunk) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "%d. %s (score %.4f)\n", rank, chunk.ChunkID, chunk.Score)
	fmt.Fprintf(w, "Document: %s [%d:%d]\n", chunk.DocumentID, chunk.SpanStart, chunk.SpanEnd)
	fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(chunk.Text, 300))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
