package search

import (
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/index"
)

// Monitor provides hooks to observe the retrieval cascade.
// Implement this interface to track intermediate candidates at each stage.
type Monitor interface {
	Start(documentID, query string)
	AfterDenseRetrieval(hits []index.Hit)
	AfterHybridFusion(hits []index.Hit)
	RerankSkipped(reason string)
	AfterRerank(hits []index.Hit)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string)                    {}
func (n *noopMonitor) AfterDenseRetrieval(_ []index.Hit)    {}
func (n *noopMonitor) AfterHybridFusion(_ []index.Hit)      {}
func (n *noopMonitor) RerankSkipped(_ string)               {}
func (n *noopMonitor) AfterRerank(_ []index.Hit)            {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)        {}
