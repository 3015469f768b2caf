package chunker

import (
	"regexp"
	"strings"
)

var (
	whitespaceRE = regexp.MustCompile(`\s+`)
	strayCharsRE = regexp.MustCompile(`[^\w\s.,;:!?\-()\[\]{}"']`)
	sentenceRE   = regexp.MustCompile(`[^.!?]+[.!?]*`)
)

// CleanText normalizes extracted document text: collapses whitespace,
// strips stray non-text characters, and normalizes typographic quotes and
// dashes to their ASCII forms.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	replacer := strings.NewReplacer(
		"“", `"`, "”", `"`,
		"‘", "'", "’", "'",
		"–", "-", "—", "-",
	)
	text = replacer.Replace(text)
	text = strayCharsRE.ReplaceAllString(text, " ")
	text = whitespaceRE.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

// Sentences splits text into sentences on terminator punctuation, keeping
// the terminators attached. Blank fragments are dropped.
func Sentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	matches := sentenceRE.FindAllString(text, -1)
	sentences := make([]string, 0, len(matches))
	for _, m := range matches {
		if s := strings.TrimSpace(m); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
