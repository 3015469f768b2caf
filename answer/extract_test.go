package answer

import (
	"strings"
	"testing"

	"github.com/poiesic/docquery/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultsFrom(texts []string, pages []int) []*core.SearchResult {
	results := make([]*core.SearchResult, len(texts))
	for i, text := range texts {
		results[i] = &core.SearchResult{
			Chunk: core.NewChunk("doc-1", text, i, pages[i]),
			Score: 0.9 - float64(i)*0.1,
		}
	}
	return results
}

func TestExtractYesNo_Affirmative(t *testing.T) {
	results := resultsFrom([]string{"The agreement shall renew automatically each year."}, []int{1})

	text, atype := extract(core.QuestionYesNo, "Is the agreement renewable?", results)
	assert.Equal(t, core.AnswerYesNo, atype)
	assert.True(t, strings.HasPrefix(text, "Yes. "))
	assert.Contains(t, text, "renew automatically")
}

func TestExtractYesNo_Negative(t *testing.T) {
	results := resultsFrom([]string{"The tenant may not sublet the premises."}, []int{2})

	text, _ := extract(core.QuestionYesNo, "Can the tenant sublet?", results)
	assert.True(t, strings.HasPrefix(text, "No. "))
	assert.Contains(t, text, "may not sublet")
}

func TestExtractYesNo_NoMatchingSentence(t *testing.T) {
	results := resultsFrom([]string{"Rent escalations follow the consumer price index."}, []int{1})

	text, _ := extract(core.QuestionYesNo, "Is parking included?", results)
	assert.Contains(t, text, "does not state this directly")
}

func TestExtractProcedural_NumbersSteps(t *testing.T) {
	results := resultsFrom([]string{
		"First, submit a written notice to the landlord. Then the landlord must respond within 30 days.",
	}, []int{3})

	text, atype := extract(core.QuestionProcedural, "How do I terminate the lease?", results)
	assert.Equal(t, core.AnswerProcedural, atype)
	assert.Contains(t, text, "1. First, submit a written notice")
	assert.Contains(t, text, "2. Then the landlord must respond")
}

func TestExtractInterpretation_FindsDefinition(t *testing.T) {
	results := resultsFrom([]string{
		"Force majeure means an event beyond the reasonable control of either party.",
	}, []int{5})

	text, atype := extract(core.QuestionInterpretation, "What does force majeure mean?", results)
	assert.Equal(t, core.AnswerInterpretation, atype)
	assert.True(t, strings.HasPrefix(text, "According to the document, "))
	assert.Contains(t, text, "means an event beyond")
}

func TestExtractComparison_PicksContrastSentences(t *testing.T) {
	results := resultsFrom([]string{
		"Termination ends the agreement early, whereas expiration ends it on the agreed date.",
	}, []int{2})

	text, atype := extract(core.QuestionComparison, "What is the difference between termination and expiration?", results)
	assert.Equal(t, core.AnswerComparison, atype)
	assert.Contains(t, text, "whereas")
}

func TestExtractFactual_MentionsSupportingPages(t *testing.T) {
	results := resultsFrom([]string{
		"Payment is due within 30 days of the invoice date.",
		"Late payment accrues interest at 2 percent monthly.",
	}, []int{1, 4})

	text, atype := extract(core.QuestionFactual, "When is payment due?", results)
	assert.Equal(t, core.AnswerFactual, atype)
	assert.Contains(t, text, "Payment is due within 30 days")
	assert.Contains(t, text, "page 4")
}

func TestExtractFactual_LongChunkReducedToRelevantSentences(t *testing.T) {
	long := "The premises must be kept in good repair at all times. " +
		"Payment of rent is due on the first day of each month without demand. " +
		"The landlord maintains all common areas including hallways and elevators. " +
		"Insurance certificates must be renewed annually by the tenant. " +
		"Any payment received after the fifth day incurs a late fee of five percent. " +
		"Pets are not permitted without the prior written consent of the landlord."
	require.Greater(t, len(long), sentenceExtractionThreshold)

	results := resultsFrom([]string{long}, []int{1})
	text, _ := extract(core.QuestionFactual, "When is the rent payment due?", results)

	assert.Less(t, len(text), len(long))
	assert.Contains(t, text, "due on the first day")
}

func TestTrimToLength(t *testing.T) {
	assert.Equal(t, "short", trimToLength("short", 20))

	got := trimToLength("a sentence that runs well past the cutoff point", 20)
	assert.LessOrEqual(t, len(got), 24)
	assert.True(t, strings.HasSuffix(got, "..."))
}
