package retrieval

import (
	"github.com/poiesic/lorekeep/core"
	"github.com/poiesic/lorekeep/match"
)

// Monitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results.
type Monitor interface {
	Start(req *Request, matchText string)
	AfterLexicalMatch(outcome *match.Outcome)
	AfterVectorQuery(matches []core.VectorMatch)
	VectorHit(detail *core.ScoreDetail)
	VectorDuplicate(detail *core.ScoreDetail)
	Finish(result *Result)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ *Request, _ string)           {}
func (n *noopMonitor) AfterLexicalMatch(_ *match.Outcome)   {}
func (n *noopMonitor) AfterVectorQuery(_ []core.VectorMatch) {}
func (n *noopMonitor) VectorHit(_ *core.ScoreDetail)        {}
func (n *noopMonitor) VectorDuplicate(_ *core.ScoreDetail)  {}
func (n *noopMonitor) Finish(_ *Result)                     {}
