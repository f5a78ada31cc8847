package agent

import (
	"fmt"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
)

// BuildPrompt assembles the generation prompt: numbered context blocks from
// the retrieved chunks followed by the question. The model is instructed to
// answer only from the provided context.
func BuildPrompt(question string, chunks []*models.RetrievedChunk) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the context below. ")
	b.WriteString("If the context does not contain the answer, say so.\n\n")
	for i, ch := range chunks {
		fmt.Fprintf(&b, "Context %d (document %s):\n%s\n\n", i+1, ch.DocumentID, ch.Text)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\nAnswer:")
	return b.String()
}
