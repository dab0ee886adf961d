package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/lorekeep/core"
	"github.com/poiesic/lorekeep/match"
	"github.com/poiesic/lorekeep/scoring"
	"github.com/poiesic/lorekeep/vector"
)

// Reasons recorded for vector candidates.
const (
	ReasonVectorMatched   = "Vector matched"
	ReasonLexicalDup      = "Already matched lexically"
	ReasonOverVectorLimit = "Over vector limit"
)

// Request describes one retrieval call.
type Request struct {
	Context    string
	Speaker    *Actor
	Listener   *Actor
	MaxEntries int
}

// Result is the output of a retrieval call.
type Result struct {
	// Text is the rendered digest, empty when nothing fired.
	Text string
	// Fired are the accepted entries in rank order.
	Fired []core.KnowledgeScore
	// Trace holds every scored detail, ranked.
	Trace []*core.ScoreDetail
	// Keywords is the keyword set the strategy matched with.
	Keywords []string
	// ExpandedKeywords are the keywords found in matched entry content.
	ExpandedKeywords []string
}

// Retriever ranks knowledge entries for a conversational context.
type Retriever struct {
	source   Source
	strategy match.MatchStrategy
	scorer   *scoring.Scorer
	index    *vector.Index
	config   *Config
	logger   *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithIndex enables vector augmentation through index.
func WithIndex(index *vector.Index) Option {
	return func(r *Retriever) error {
		r.index = index
		return nil
	}
}

// WithConfig replaces the default configuration.
func WithConfig(config *Config) Option {
	return func(r *Retriever) error {
		if config == nil {
			return nil
		}
		if err := config.Validate(); err != nil {
			return err
		}
		r.config = config
		return nil
	}
}

// NewRetriever creates a new retriever.
func NewRetriever(source Source, strategy match.MatchStrategy, scorer *scoring.Scorer, opts ...Option) (*Retriever, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if strategy == nil {
		return nil, ErrStrategyRequired
	}
	if scorer == nil {
		return nil, ErrScorerRequired
	}

	r := &Retriever{
		source:   source,
		strategy: strategy,
		scorer:   scorer,
		config:   DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "retriever")
	return r, nil
}

// VectorEnabled reports whether retrieval consults the vector index.
func (r *Retriever) VectorEnabled() bool {
	return r.index != nil && r.config.VectorEnabled && r.config.MaxVectorResults > 0
}

// Retrieve returns the entries relevant to req.
func (r *Retriever) Retrieve(ctx context.Context, req Request) (*Result, error) {
	return r.RetrieveWithMonitor(ctx, req, nil)
}

// RetrieveWithMonitor is Retrieve with callbacks at each stage.
// Vector failures are logged and retrieval continues lexical-only.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, req Request, monitor Monitor) (*Result, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matchText := MatchText(req.Context, req.Speaker, req.Listener)
	monitor.Start(&req, matchText)

	result := &Result{Fired: []core.KnowledgeScore{}}
	if strings.TrimSpace(matchText) == "" {
		monitor.Finish(result)
		return result, nil
	}

	lib, err := r.source.Library(ctx)
	if err != nil {
		r.logger.Error("error loading library", "err", err)
		return nil, err
	}

	maxEntries := max(req.MaxEntries, 0)
	outcome := r.strategy.Match(&match.Input{
		Library:     lib,
		Context:     req.Context,
		MatchText:   matchText,
		SpeakerID:   speakerID(req.Speaker),
		Descriptors: descriptors(req.Speaker, req.Listener),
		MaxEntries:  maxEntries,
	})
	monitor.AfterLexicalMatch(outcome)

	pool := slices.Clone(outcome.Candidates)
	trace := slices.Clone(outcome.Trace)

	if r.VectorEnabled() {
		lexical := r.lexicalSet(outcome.Candidates)
		passed, err := r.vectorCandidates(ctx, lib, req, lexical, monitor)
		if err != nil {
			r.logger.Warn("vector matching failed, continuing lexical-only", "err", err)
		}
		merged := 0
		for _, detail := range passed {
			switch {
			case detail.Duplicate:
				monitor.VectorDuplicate(detail)
			case merged >= r.config.MaxVectorResults:
				detail.AddNote(ReasonOverVectorLimit)
			default:
				merged++
				pool = append(pool, detail)
				monitor.VectorHit(detail)
			}
			trace = append(trace, detail)
		}
	}

	fired, _ := r.scorer.Accept(dedupe(pool), maxEntries)
	scoring.Rank(trace)

	result.Text = Render(fired)
	result.Fired = fired
	result.Trace = trace
	result.Keywords = outcome.Keywords
	result.ExpandedKeywords = outcome.ExpandedKeywords

	r.logger.Debug("retrieval finished",
		"strategy", r.strategy.Kind().String(),
		"candidates", len(pool),
		"fired", len(fired))
	monitor.Finish(result)
	return result, nil
}

// lexicalSet holds the IDs that lexical matching would accept on score.
func (r *Retriever) lexicalSet(candidates []*core.ScoreDetail) map[string]bool {
	set := make(map[string]bool, len(candidates))
	for _, detail := range candidates {
		if detail.Enabled && detail.TotalScore >= r.scorer.Threshold() {
			set[detail.Entry.ID] = true
		}
	}
	return set
}

// vectorCandidates queries the index and returns the matches that pass the
// composite threshold, ranked by composite score.
func (r *Retriever) vectorCandidates(ctx context.Context, lib match.Library, req Request, lexical map[string]bool, monitor Monitor) ([]*core.ScoreDetail, error) {
	text := CleanContext(req.Context)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	k := r.config.MaxVectorResults * candidateFactor
	matches, err := r.index.Query(ctx, text, k, r.config.QueryThreshold())
	if err != nil {
		return nil, fmt.Errorf("querying vector index: %w", err)
	}
	monitor.AfterVectorQuery(matches)
	return r.scoreVectorMatches(lib, matches, speakerID(req.Speaker), lexical), nil
}

func (r *Retriever) scoreVectorMatches(lib match.Library, matches []core.VectorMatch, speaker string, lexical map[string]bool) []*core.ScoreDetail {
	byID := make(map[string]*core.Entry, len(lib.Entries))
	for _, entry := range lib.Entries {
		byID[entry.ID] = entry
	}

	passed := make([]*core.ScoreDetail, 0, len(matches))
	for _, m := range matches {
		entry, ok := byID[m.ID]
		if !ok {
			r.logger.Debug("vector match without entry", "id", m.ID)
			continue
		}
		if !entry.Enabled || (entry.TargetActorID != "" && entry.TargetActorID != speaker) {
			continue
		}
		composite := Composite(m.Similarity, entry.Importance)
		if composite < r.config.SemanticThreshold {
			continue
		}
		detail := &core.ScoreDetail{
			Entry:           entry,
			Enabled:         true,
			TotalScore:      composite,
			ImportanceScore: entry.Importance,
			Source:          core.SourceVector,
			Similarity:      m.Similarity,
			Duplicate:       lexical[m.ID],
			FailReason:      fmt.Sprintf("%s (similarity %.4f)", ReasonVectorMatched, m.Similarity),
		}
		if detail.Duplicate {
			detail.AddNote(ReasonLexicalDup)
		}
		passed = append(passed, detail)
	}
	scoring.Rank(passed)
	return passed
}

// dedupe keeps the highest scoring detail for each entry ID, earliest on ties.
func dedupe(details []*core.ScoreDetail) []*core.ScoreDetail {
	best := make(map[string]int, len(details))
	out := make([]*core.ScoreDetail, 0, len(details))
	for _, detail := range details {
		i, ok := best[detail.Entry.ID]
		switch {
		case !ok:
			best[detail.Entry.ID] = len(out)
			out = append(out, detail)
		case detail.TotalScore > out[i].TotalScore:
			out[i] = detail
		}
	}
	return out
}

func speakerID(a *Actor) string {
	if a == nil {
		return ""
	}
	return a.ID
}
