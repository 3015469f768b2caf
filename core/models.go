package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Chunk is an ordered unit of document text. Chunks are created once during
// document ingestion and are immutable thereafter; re-processing a document
// replaces the full chunk set.
type Chunk struct {
	Id         ID
	DocumentID string
	Text       string
	Index      int // 0-based position within the document
	PageNumber int
	WordCount  int
	CreatedAt  time.Time
}

// NewChunk creates a chunk with a content-based ID and derived word count.
func NewChunk(documentID, text string, index, pageNumber int) *Chunk {
	return &Chunk{
		Id:         IDFromContent(documentID + ":" + text),
		DocumentID: documentID,
		Text:       text,
		Index:      index,
		PageNumber: pageNumber,
		WordCount:  len(strings.Fields(text)),
		CreatedAt:  time.Now().UTC(),
	}
}

// ChunkMeta is the index-side projection of a chunk, stored in the same
// order as the indexed vectors so a vector-space match can be resolved back
// to its chunk.
type ChunkMeta struct {
	Id         ID
	Index      int
	PageNumber int
	WordCount  int
}

// Meta returns the index metadata for the chunk.
func (c *Chunk) Meta() ChunkMeta {
	return ChunkMeta{
		Id:         c.Id,
		Index:      c.Index,
		PageNumber: c.PageNumber,
		WordCount:  c.WordCount,
	}
}

// SearchMethod identifies which cascade stage produced a result's final score.
type SearchMethod string

const (
	MethodDense    SearchMethod = "dense"
	MethodHybrid   SearchMethod = "hybrid"
	MethodReranked SearchMethod = "reranked"
)

// RelevanceIndicators are secondary lexical and semantic signals computed
// per result during enrichment.
type RelevanceIndicators struct {
	WordOverlap        int     // number of query terms present in the chunk
	OverlapRatio       float64 // overlap / query term count
	ExactMatches       int     // total occurrences of query terms in the chunk
	SemanticSimilarity float64 // embedding similarity between query and chunk
	QueryLength        int
	TextLength         int
}

// ContextWindow holds bounded excerpts of the chunks adjacent to a result,
// for citation display.
type ContextWindow struct {
	Current  string
	Previous string
	Next     string
	Size     int
}

// ResultFactors is the per-result confidence blend computed at enrichment.
type ResultFactors struct {
	Similarity        float64
	TextQuality       float64
	QuerySpecificity  float64
	ResultDiversity   float64
	SemanticAlignment float64
	Overall           float64
}

// SearchResult is the per-query, per-chunk record produced by the retrieval
// cascade. Score fields are overwritten and Method updated as each stage
// runs; enrichment annotates the remaining fields and freezes the result.
type SearchResult struct {
	Chunk       *Chunk
	DenseScore  float64
	SparseScore float64
	RerankScore float64
	Score       float64
	Method      SearchMethod

	Indicators RelevanceIndicators
	KeyPhrases []string
	Coherence  float64
	Context    ContextWindow
	Factors    ResultFactors
	Quality    float64
}

// QuestionType classifies a question for type-specific answer synthesis.
type QuestionType string

const (
	QuestionYesNo          QuestionType = "yes_no"
	QuestionComparison     QuestionType = "comparison"
	QuestionProcedural     QuestionType = "procedural"
	QuestionInterpretation QuestionType = "interpretation"
	QuestionFactual        QuestionType = "factual"
)

// Complexity classifies question complexity by length.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// AnswerType identifies how an answer was produced.
type AnswerType string

const (
	AnswerYesNo          AnswerType = "yes_no"
	AnswerComparison     AnswerType = "comparison"
	AnswerProcedural     AnswerType = "procedural"
	AnswerInterpretation AnswerType = "interpretation"
	AnswerFactual        AnswerType = "factual"
	AnswerGenerated      AnswerType = "generated"
	AnswerNotFound       AnswerType = "not_found"
	AnswerError          AnswerType = "error"
)

// ConfidenceLevel is the qualitative band for a confidence score.
type ConfidenceLevel string

const (
	LevelVeryLow  ConfidenceLevel = "very_low"
	LevelLow      ConfidenceLevel = "low"
	LevelMedium   ConfidenceLevel = "medium"
	LevelHigh     ConfidenceLevel = "high"
	LevelVeryHigh ConfidenceLevel = "very_high"
)

// ConfidenceFactors bundle the retrieval-quality and answer-shape signals
// reduced to a single score by the confidence engine.
type ConfidenceFactors struct {
	SimilarityScore    float64
	ResultCount        int
	QuestionComplexity Complexity
	HasLegalTerms      bool
	AnswerLength       int // words
	CitationQuality    float64
	SourceDiversity    float64
	SemanticCoherence  float64
	KeywordOverlap     float64
}

// Citation is a bounded excerpt of a source chunk attached to an answer.
type Citation struct {
	Text           string  `json:"text"`
	PageNumber     int     `json:"page_number"`
	RelevanceScore float64 `json:"relevance_score"`
	Confidence     float64 `json:"confidence"`
}

// Answer is the structured payload returned to callers. It is always
// well-formed; degraded quality is communicated through ConfidenceScore and
// Grounded, never through errors or missing fields.
type Answer struct {
	ID              string          `json:"id"`
	DocumentID      string          `json:"document_id"`
	Question        string          `json:"question"`
	Text            string          `json:"answer"`
	Type            AnswerType      `json:"answer_type"`
	ConfidenceScore float64         `json:"confidence_score"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`
	Recommendation  string          `json:"recommendation"`
	ShouldShow      bool            `json:"should_show"`
	Grounded        bool            `json:"grounded"`
	Citations       []Citation      `json:"citations"`
	SourcePages     []int           `json:"source_pages"`
	ProcessingTime  time.Duration   `json:"processing_time"`
}
