package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/lorekeep/core"
	"github.com/poiesic/lorekeep/match"
	"github.com/poiesic/lorekeep/vector"
)

// VectorPreview reports how vector matching treats one request.
type VectorPreview struct {
	// Query is the cleaned context sent to the index.
	Query     string
	Threshold float64
	// Candidates is the number of matches above the query threshold.
	Candidates int
	// Passed are the matches at or above the composite threshold, ranked.
	Passed []*core.ScoreDetail
	// Final are the top passed matches, duplicates included.
	Final []*core.ScoreDetail
}

// PreviewVector runs the vector path for req and waits up to timeout for
// the embedding. The pending query is abandoned on timeout.
func (r *Retriever) PreviewVector(ctx context.Context, req Request, timeout time.Duration) (*VectorPreview, error) {
	if r.index == nil || r.config.MaxVectorResults <= 0 {
		return nil, ErrVectorDisabled
	}

	lib, err := r.source.Library(ctx)
	if err != nil {
		return nil, err
	}

	preview := &VectorPreview{
		Query:     CleanContext(req.Context),
		Threshold: r.config.SemanticThreshold,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	pending := r.index.QueryAsync(ctx, preview.Query, r.config.MaxVectorResults*candidateFactor, r.config.QueryThreshold())

	// Lexical matching runs while the embedding is in flight.
	outcome := r.strategy.Match(&match.Input{
		Library:     lib,
		Context:     req.Context,
		MatchText:   MatchText(req.Context, req.Speaker, req.Listener),
		SpeakerID:   speakerID(req.Speaker),
		Descriptors: descriptors(req.Speaker, req.Listener),
		MaxEntries:  r.config.MaxVectorResults,
	})
	lexical := r.lexicalSet(outcome.Candidates)

	matches, err := vector.Await(pending, timeout)
	if err != nil {
		r.logger.Warn("vector preview failed", "err", err)
		return nil, err
	}

	preview.Candidates = len(matches)
	preview.Passed = r.scoreVectorMatches(lib, matches, speakerID(req.Speaker), lexical)
	preview.Final = preview.Passed[:min(len(preview.Passed), r.config.MaxVectorResults)]
	return preview, nil
}

// String renders the preview report.
func (p *VectorPreview) String() string {
	var sb strings.Builder
	sb.WriteString("Vector match preview\n")
	fmt.Fprintf(&sb, "Candidates: %d -> passed composite threshold: %d -> final: %d\n",
		p.Candidates, len(p.Passed), len(p.Final))
	fmt.Fprintf(&sb, "Threshold: %.2f (composite = similarity + importance x %.1f)\n\n", p.Threshold, ImportanceWeight)

	if len(p.Final) == 0 {
		sb.WriteString("No entries passed the composite threshold\n")
		sb.WriteString("Lower the threshold or raise entry importance\n")
		return sb.String()
	}
	for _, d := range p.Final {
		dup := ""
		if d.Duplicate {
			dup = " [already matched by keywords]"
		}
		fmt.Fprintf(&sb, "[sim:%.4f|composite:%.4f] [%s] %s%s\n", d.Similarity, d.TotalScore, d.Entry.Tag, d.Entry.Content, dup)
	}
	return sb.String()
}
