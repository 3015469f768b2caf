// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package answer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/confidence"
	"github.com/poiesic/docquery/core"
)

// State names the stages of assembling one answer.
type State string

const (
	StateStart    State = "start"
	StateSearched State = "searched"
	StateAnswered State = "answered"
	StateNotFound State = "not_found"
	StateCited    State = "cited"
	StateDone     State = "done"
)

// validTransitions encodes the assembly state machine. Search either finds
// evidence or it does not; both branches converge on citation and scoring.
var validTransitions = map[State][]State{
	StateStart:    {StateSearched},
	StateSearched: {StateAnswered, StateNotFound},
	StateAnswered: {StateCited},
	StateNotFound: {StateCited},
	StateCited:    {StateDone},
}

// Assembler turns ranked search results into a structured answer.
type Assembler struct {
	analyzer  *confidence.Analyzer
	generator ai.Generator
	logger    *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithGenerator enables model-based answer synthesis. Without it the
// assembler answers extractively.
func WithGenerator(generator ai.Generator) Option {
	return func(a *Assembler) {
		a.generator = generator
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// NewAssembler builds an assembler. The confidence analyzer is required.
func NewAssembler(analyzer *confidence.Analyzer, opts ...Option) (*Assembler, error) {
	if analyzer == nil {
		return nil, ErrAnalyzerRequired
	}
	a := &Assembler{
		analyzer: analyzer,
		logger:   slog.Default().With("component", "answer"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// assembly is the per-call state, so one Assembler can serve concurrent
// questions.
type assembly struct {
	state  State
	logger *slog.Logger
}

func (s *assembly) advance(to State) {
	for _, allowed := range validTransitions[s.state] {
		if allowed == to {
			s.state = to
			return
		}
	}
	s.logger.Warn("illegal assembly transition", "from", s.state, "to", to)
	s.state = to
}

// Assemble produces an answer from the enriched, quality-filtered results.
// It never returns an error: missing evidence yields a not-found answer and
// a synthesis failure yields an apology, both well-formed.
func (a *Assembler) Assemble(ctx context.Context, documentID, question string, results []*core.SearchResult) *core.Answer {
	start := time.Now()
	flow := &assembly{state: StateStart, logger: a.logger}

	qtype := Classify(question)
	complexity := ComplexityOf(question)
	flow.advance(StateSearched)

	if len(results) == 0 {
		flow.advance(StateNotFound)
		flow.advance(StateCited)
		flow.advance(StateDone)
		return &core.Answer{
			ID:              uuid.NewString(),
			DocumentID:      documentID,
			Question:        question,
			Text:            notFoundText(question),
			Type:            core.AnswerNotFound,
			ConfidenceScore: 0,
			ConfidenceLevel: core.LevelVeryLow,
			Recommendation:  "No relevant content was found. Try rephrasing the question.",
			ShouldShow:      false,
			Grounded:        false,
			Citations:       []core.Citation{},
			SourcePages:     []int{},
			ProcessingTime:  time.Since(start),
		}
	}

	text, atype, grounded := a.composeText(ctx, qtype, question, results)
	flow.advance(StateAnswered)

	citations := buildCitations(results)
	pages := sourcePages(results)
	flow.advance(StateCited)

	analysis := a.analyzer.Analyze(buildFactors(question, complexity, text, results, citations))
	if !grounded {
		analysis = &confidence.Analysis{
			Score:          0,
			Level:          core.LevelVeryLow,
			Recommendation: "Answer generation failed. Retry the question or consult the cited sections directly.",
			ShouldShow:     false,
		}
	}

	flow.advance(StateDone)
	a.logger.Debug("answer assembled",
		"document_id", documentID,
		"question_type", qtype,
		"answer_type", atype,
		"confidence", analysis.Score)

	return &core.Answer{
		ID:              uuid.NewString(),
		DocumentID:      documentID,
		Question:        question,
		Text:            text,
		Type:            atype,
		ConfidenceScore: analysis.Score,
		ConfidenceLevel: analysis.Level,
		Recommendation:  analysis.Recommendation,
		ShouldShow:      analysis.ShouldShow,
		Grounded:        grounded,
		Citations:       citations,
		SourcePages:     pages,
		ProcessingTime:  time.Since(start),
	}
}

// composeText answers with the generation model when one is configured,
// falling back to an apology if synthesis fails twice. Without a generator
// the answer is extracted from the passages directly.
func (a *Assembler) composeText(ctx context.Context, qtype core.QuestionType, question string, results []*core.SearchResult) (string, core.AnswerType, bool) {
	if a.generator == nil {
		text, atype := extract(qtype, question, results)
		return text, atype, true
	}

	prompt := buildSynthesisPrompt(question, results)
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		text, err := a.generator.Generate(ctx, synthesisSystemPrompt, prompt)
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text), core.AnswerGenerated, true
		}
		lastErr = err
	}

	a.logger.Warn("answer synthesis failed", "error", lastErr)
	return "I was unable to generate an answer for this question. Please try again, or consult the cited sections directly.",
		core.AnswerError, false
}

// buildFactors reduces the answer and its evidence to confidence inputs.
func buildFactors(question string, complexity core.Complexity, text string, results []*core.SearchResult, citations []core.Citation) core.ConfidenceFactors {
	var simSum, cohSum float64
	for _, result := range results {
		simSum += clampUnit(result.Score)
		cohSum += clampUnit(result.Coherence)
	}
	n := float64(len(results))

	var citSum float64
	for _, c := range citations {
		citSum += c.RelevanceScore
	}
	citQuality := 0.0
	if len(citations) > 0 {
		citQuality = citSum / float64(len(citations))
	}

	diversity := float64(len(sourcePages(results))) / n

	terms := KeyTerms(question)
	overlap := 0.0
	if len(terms) > 0 {
		lower := strings.ToLower(text)
		hits := 0
		for _, term := range terms {
			if strings.Contains(lower, term) {
				hits++
			}
		}
		overlap = float64(hits) / float64(len(terms))
	}

	return core.ConfidenceFactors{
		SimilarityScore:    simSum / n,
		ResultCount:        len(results),
		QuestionComplexity: complexity,
		HasLegalTerms:      HasLegalTerms(question),
		AnswerLength:       len(strings.Fields(text)),
		CitationQuality:    citQuality,
		SourceDiversity:    clampUnit(diversity),
		SemanticCoherence:  cohSum / n,
		KeywordOverlap:     overlap,
	}
}
