package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_Empty(t *testing.T) {
	c := New()
	assert.Empty(t, c.Split(""))
	assert.Empty(t, c.Split("   \t  "))
}

func TestSplit_SingleSentence(t *testing.T) {
	c := New(WithMaxSize(100), WithOverlap(20))
	chunks := c.Split("Payment is due within 30 days.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "Payment is due within 30 days.", chunks[0])
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("The first party shall notify the second party. ", 40)
	c := New(WithMaxSize(200), WithOverlap(30))

	first := c.Split(text)
	second := c.Split(text)
	assert.Equal(t, first, second)
}

func TestSplit_NoSentenceDropped(t *testing.T) {
	sentences := []string{
		"Payment is due in 30 days.",
		"Late payment accrues interest at 2 percent.",
		"Termination requires 60 days notice.",
		"Notice must be delivered in writing.",
		"Governing law is California.",
	}
	text := strings.Join(sentences, " ")

	c := New(WithMaxSize(60), WithOverlap(10))
	chunks := c.Split(text)
	require.NotEmpty(t, chunks)

	joined := strings.Join(chunks, " ")
	for _, sentence := range sentences {
		assert.Contains(t, joined, sentence)
	}
}

func TestSplit_OversizedSentenceKeptWhole(t *testing.T) {
	long := "This single sentence is far longer than the configured maximum chunk size and must not be truncated under any circumstances."
	c := New(WithMaxSize(40), WithOverlap(10))

	chunks := c.Split(long + " Short tail.")
	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0], long)
	assert.Contains(t, chunks[1], "Short tail.")
}

func TestSplit_OverlapCarried(t *testing.T) {
	text := "The agreement commences on the effective date. Either party may terminate with notice. Disputes are settled by arbitration."
	c := New(WithMaxSize(60), WithOverlap(15))

	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)

	// Each chunk after the first starts with the tail of its predecessor.
	for i := 1; i < len(chunks); i++ {
		tail := carryTail(chunks[i-1], 15)
		assert.True(t, strings.HasPrefix(chunks[i], tail),
			"chunk %d does not begin with predecessor tail %q", i, tail)
	}
}

func TestSplit_ZeroOverlap(t *testing.T) {
	text := "First clause here. Second clause there. Third clause everywhere."
	c := New(WithMaxSize(25), WithOverlap(0))

	chunks := c.Split(text)
	require.Len(t, chunks, 3)
	assert.Equal(t, "First clause here.", chunks[0])
	assert.Equal(t, "Second clause there.", chunks[1])
	assert.Equal(t, "Third clause everywhere.", chunks[2])
}

func TestSplit_MultibyteMeasuredInRunes(t *testing.T) {
	// 31 runes but 61 bytes per sentence; the size budget counts runes.
	sentence := strings.Repeat("é", 30) + "."
	text := sentence + " " + sentence

	t.Run("two sentences within the rune budget stay together", func(t *testing.T) {
		c := New(WithMaxSize(70), WithOverlap(0))
		chunks := c.Split(text)
		require.Len(t, chunks, 1)
		assert.Equal(t, text, chunks[0])
	})

	t.Run("seals once the rune budget is exceeded", func(t *testing.T) {
		c := New(WithMaxSize(60), WithOverlap(0))
		chunks := c.Split(text)
		require.Len(t, chunks, 2)
		assert.Equal(t, sentence, chunks[0])
		assert.Equal(t, sentence, chunks[1])
	})
}

func TestChunkPages(t *testing.T) {
	c := New(WithMaxSize(50), WithOverlap(0))
	pages := []string{
		"Payment is due in 30 days.",
		"Termination requires 60 days notice. Governing law is California.",
	}

	chunks := c.ChunkPages("doc-1", pages)
	require.Len(t, chunks, 3)

	assert.Equal(t, 1, chunks[0].PageNumber)
	assert.Equal(t, 2, chunks[1].PageNumber)
	assert.Equal(t, 2, chunks[2].PageNumber)

	// Indices are document-wide and strictly increasing.
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, "doc-1", chunk.DocumentID)
	}
}

func TestChunkText(t *testing.T) {
	c := New()
	chunks := c.ChunkText("doc-1", "Governing law is California.")
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].PageNumber)
	assert.Equal(t, 0, chunks[0].Index)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"collapse whitespace", "a  b\t\nc", "a b c"},
		{"normalize quotes", "the “party” and the ‘agent’", `the "party" and the 'agent'`},
		{"normalize dashes", "30–60 days — roughly", "30-60 days - roughly"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func TestSentences(t *testing.T) {
	sentences := Sentences("Is it binding? It is. Sign here!")
	require.Len(t, sentences, 3)
	assert.Equal(t, "Is it binding?", sentences[0])
	assert.Equal(t, "It is.", sentences[1])
	assert.Equal(t, "Sign here!", sentences[2])

	t.Run("no terminator", func(t *testing.T) {
		sentences := Sentences("trailing fragment without punctuation")
		require.Len(t, sentences, 1)
	})
}
