package mock

import (
	"context"
	"strings"
)

// MockReranker is a test double for ai.Reranker.
// It allows custom behavior injection via function fields.
type MockReranker struct {
	// RerankFunc is called by Rerank if set.
	// If nil, uses default token-overlap scoring.
	RerankFunc func(ctx context.Context, query string, passages []string) ([]float64, error)

	callCount int
}

// NewMockReranker creates a mock reranker with default deterministic behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockReranker() *MockReranker {
	return &MockReranker{}
}

// Rerank scores passages by word overlap with the query.
// The default behavior is deterministic and keeps scores in [0, 1].
func (m *MockReranker) Rerank(ctx context.Context, query string, passages []string) ([]float64, error) {
	m.callCount++

	if m.RerankFunc != nil {
		return m.RerankFunc(ctx, query, passages)
	}

	queryTokens := tokenSet(query)
	scores := make([]float64, len(passages))
	for i, p := range passages {
		scores[i] = overlapScore(queryTokens, tokenSet(p))
	}
	return scores, nil
}

// CallCount returns the number of times Rerank was called.
func (m *MockReranker) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockReranker) Reset() {
	m.callCount = 0
	m.RerankFunc = nil
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range strings.Fields(strings.ToLower(text)) {
		t = strings.Trim(t, ".,!?;:\"'()")
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

// overlapScore is the fraction of query tokens present in the passage.
func overlapScore(query, passage map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	matched := 0
	for t := range query {
		if _, ok := passage[t]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(query))
}
