package answer

import (
	"fmt"
	"strings"

	"github.com/poiesic/docquery/core"
)

const maxPromptPassageChars = 1200

const synthesisSystemPrompt = `You answer questions about a document using only the passages provided.

Rules:
- Use only information from the passages. Never invent facts.
- If the passages do not answer the question, say so plainly.
- Quote or closely paraphrase the relevant passage text.
- Mention the page number of the passage you relied on.
- Answer in at most one short paragraph.`

// buildSynthesisPrompt numbers the passages with their pages so the model
// can ground its answer.
func buildSynthesisPrompt(question string, results []*core.SearchResult) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nPassages:\n")
	for i, result := range results {
		text := result.Chunk.Text
		if len(text) > maxPromptPassageChars {
			text = trimToLength(text, maxPromptPassageChars)
		}
		fmt.Fprintf(&b, "[%d] (page %d) %s\n", i+1, result.Chunk.PageNumber, text)
	}
	b.WriteString("\nAnswer:")
	return b.String()
}
