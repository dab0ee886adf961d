package match

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/lorekeep/core"
	"github.com/poiesic/lorekeep/keyword"
	"github.com/poiesic/lorekeep/scoring"
)

// Strategy names a MatchStrategy variant.
type Strategy int

const (
	// StrategyLexicalTags matches entry tags against the text with chaining.
	StrategyLexicalTags Strategy = iota
	// StrategyKeywordOverlap scores entries against extracted keywords and
	// expands the keyword set from matched content over several cycles.
	StrategyKeywordOverlap
)

func (s Strategy) String() string {
	switch s {
	case StrategyLexicalTags:
		return "lexical_tags"
	case StrategyKeywordOverlap:
		return "keyword_overlap"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy parses a strategy name. An empty name selects lexical tags.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "lexical", "lexical_tags", "tags":
		return StrategyLexicalTags, nil
	case "keyword", "keywords", "keyword_overlap":
		return StrategyKeywordOverlap, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Input is what a MatchStrategy works from.
type Input struct {
	Library Library
	// Context is the raw conversational text.
	Context string
	// MatchText is the context joined with the actor descriptors.
	MatchText   string
	SpeakerID   string
	Descriptors []string
	MaxEntries  int
}

// Outcome is the result of a MatchStrategy.
type Outcome struct {
	// Candidates are the scored entries offered to acceptance.
	Candidates []*core.ScoreDetail
	// Trace holds one detail per library entry; it shares pointers with Candidates.
	Trace []*core.ScoreDetail
	// Keywords is the final keyword set, when the strategy uses one.
	Keywords []string
	// ExpandedKeywords are the keywords found in entry content.
	ExpandedKeywords []string
	// Extracted lists the IDs that received the extraction bonus.
	Extracted []string
}

// MatchStrategy produces lexical candidates for retrieval.
type MatchStrategy interface {
	Kind() Strategy
	Match(in *Input) *Outcome
}

// NewMatchStrategy builds the strategy named by config.Strategy.
func NewMatchStrategy(config *Config, extractor *keyword.Extractor, scorer *scoring.Scorer, opts ...Option) (MatchStrategy, error) {
	if config == nil {
		config = DefaultConfig()
	}
	kind, err := ParseStrategy(config.Strategy)
	if err != nil {
		return nil, err
	}
	switch kind {
	case StrategyKeywordOverlap:
		return NewKeywordOverlap(config, extractor, scorer, opts...)
	default:
		return NewLexicalTags(config, scorer, opts...)
	}
}

// LexicalTags runs tag chaining and scores the selection with TagMatched.
type LexicalTags struct {
	matcher *TagMatcher
	scorer  *scoring.Scorer
}

var _ MatchStrategy = (*LexicalTags)(nil)

// NewLexicalTags creates the tag-matching strategy.
func NewLexicalTags(config *Config, scorer *scoring.Scorer, opts ...Option) (*LexicalTags, error) {
	if scorer == nil {
		return nil, ErrScorerRequired
	}
	matcher, err := NewTagMatcher(config, opts...)
	if err != nil {
		return nil, err
	}
	return &LexicalTags{matcher: matcher, scorer: scorer}, nil
}

func (s *LexicalTags) Kind() Strategy { return StrategyLexicalTags }

// Matcher returns the underlying TagMatcher.
func (s *LexicalTags) Matcher() *TagMatcher { return s.matcher }

func (s *LexicalTags) Match(in *Input) *Outcome {
	lib := in.Library
	chain := s.matcher.Chain(lib, ChainRequest{
		Text:       in.MatchText,
		SpeakerID:  in.SpeakerID,
		MaxEntries: in.MaxEntries,
	})

	selected := make(map[string]*core.ScoreDetail, len(chain.Selected))
	out := &Outcome{Extracted: chain.Extracted}
	for _, entry := range chain.Selected {
		detail := s.scorer.TagMatched(entry)
		selected[entry.ID] = detail
		out.Candidates = append(out.Candidates, detail)
	}
	s.scorer.ApplyExtractionBonus(out.Candidates, chain.ExtractedSet())

	overflow := make(map[string]bool, len(chain.Overflow))
	for _, entry := range chain.Overflow {
		overflow[entry.ID] = true
	}
	first := Round{Text: in.MatchText, SpeakerID: in.SpeakerID}
	for _, entry := range lib.Entries {
		if detail, ok := selected[entry.ID]; ok {
			out.Trace = append(out.Trace, detail)
			continue
		}
		if overflow[entry.ID] {
			detail := s.scorer.TagMatched(entry)
			detail.AddNote(scoring.ReasonOverLimit)
			out.Trace = append(out.Trace, detail)
			continue
		}
		reason := s.matcher.Explain(lib, entry, first)
		if reason == "" {
			reason = ReasonNoTagMatched
		}
		out.Trace = append(out.Trace, s.scorer.Unmatched(entry, reason))
	}
	return out
}

// KeywordOverlap scores entries against context keywords and grows the
// keyword set from the content of the best matches.
type KeywordOverlap struct {
	config    *Config
	extractor *keyword.Extractor
	scorer    *scoring.Scorer
	logger    *slog.Logger
}

var _ MatchStrategy = (*KeywordOverlap)(nil)

// NewKeywordOverlap creates the keyword-cycle strategy.
func NewKeywordOverlap(config *Config, extractor *keyword.Extractor, scorer *scoring.Scorer, opts ...Option) (*KeywordOverlap, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if scorer == nil {
		return nil, ErrScorerRequired
	}
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &KeywordOverlap{
		config:    config,
		extractor: extractor,
		scorer:    scorer,
		logger:    o.logger.With("component", "keyword-overlap"),
	}, nil
}

func (s *KeywordOverlap) Kind() Strategy { return StrategyKeywordOverlap }

// cycleState tracks keyword expansion across cycles.
type cycleState struct {
	combined  []string
	known     map[string]bool
	expanded  []string
	processed map[string]bool
	extracted map[string]*core.ScoreDetail
	order     []string
}

func (s *KeywordOverlap) Match(in *Input) *Outcome {
	lib := in.Library
	threshold := s.scorer.Threshold()
	descriptors := distinctFold(in.Descriptors)
	original := distinctFold(append(s.extractor.Extract(in.Context, s.config.ContextKeywordLimit, descriptors...), descriptors...))

	st := &cycleState{
		combined:  slices.Clone(original),
		known:     make(map[string]bool, len(original)),
		processed: make(map[string]bool),
		extracted: make(map[string]*core.ScoreDetail),
	}
	for _, kw := range original {
		st.known[keyword.Fold(kw)] = true
	}

	var eligible []*core.Entry
	for _, entry := range lib.Entries {
		if entry.Enabled && !entry.RestrictedFrom(in.SpeakerID) {
			eligible = append(eligible, entry)
		}
	}
	relevance := func(entry *core.Entry, keywords []string) *core.ScoreDetail {
		return s.scorer.Relevance(entry, keywords, flagsOf(lib.Flags, entry.ID))
	}

	// The first cycle starts from the entries the context alone would fire.
	var initial []*core.ScoreDetail
	for _, entry := range eligible {
		if detail := relevance(entry, original); detail.TotalScore >= threshold {
			initial = append(initial, detail)
		}
	}
	scoring.Rank(initial)
	initial = initial[:min(len(initial), max(in.MaxEntries, 0))]
	for _, detail := range initial {
		st.processed[detail.Entry.ID] = true
	}
	for _, detail := range initial[:min(len(initial), s.config.MaxExtractable)] {
		s.expand(lib, st, detail)
	}

	for cycle := 1; cycle < s.config.Cycles; cycle++ {
		room := s.config.MaxExtractable - len(st.processed)
		if room <= 0 {
			break
		}
		var found []*core.ScoreDetail
		for _, entry := range eligible {
			if st.processed[entry.ID] {
				continue
			}
			if detail := relevance(entry, st.combined); detail.TotalScore >= threshold {
				found = append(found, detail)
			}
		}
		if len(found) == 0 {
			s.logger.Debug("keyword cycle found no entries", "cycle", cycle)
			break
		}
		slices.SortStableFunc(found, byRelevance)
		found = found[:min(room, len(found))]

		grew := false
		for _, detail := range found {
			st.processed[detail.Entry.ID] = true
			if s.expand(lib, st, detail) {
				grew = true
			}
		}
		if !grew {
			s.logger.Debug("keyword cycle found no new keywords", "cycle", cycle)
			break
		}
	}

	out := &Outcome{
		Keywords:         st.combined,
		ExpandedKeywords: st.expanded,
		Extracted:        st.order,
	}
	for _, entry := range lib.Entries {
		var detail *core.ScoreDetail
		switch {
		case !entry.Enabled:
			detail = s.scorer.Unmatched(entry, ReasonDisabled)
			detail.Source = core.SourceKeyword
		case entry.RestrictedFrom(in.SpeakerID):
			detail = s.scorer.Unmatched(entry, ReasonRestricted)
			detail.Source = core.SourceKeyword
		case st.extracted[entry.ID] != nil:
			detail = st.extracted[entry.ID]
		case flagsOf(lib.Flags, entry.ID).CanBeMatched:
			detail = relevance(entry, st.combined)
		default:
			detail = relevance(entry, original)
		}
		out.Trace = append(out.Trace, detail)
		if detail.Enabled && detail.TotalScore > 0 {
			out.Candidates = append(out.Candidates, detail)
		}
	}

	extracted := make(map[string]bool, len(st.order))
	for _, id := range st.order {
		extracted[id] = true
	}
	s.scorer.ApplyExtractionBonus(out.Trace, extracted)

	s.logger.Debug("keyword overlap finished",
		"context_keywords", len(original),
		"expanded_keywords", len(st.expanded),
		"extracted", len(st.order))
	return out
}

// expand adds the unseen keywords of an extractable entry's content to the
// working set and reports whether any were added.
func (s *KeywordOverlap) expand(lib Library, st *cycleState, detail *core.ScoreDetail) bool {
	entry := detail.Entry
	if !flagsOf(lib.Flags, entry.ID).CanBeExtracted || strings.TrimSpace(entry.Content) == "" {
		return false
	}
	var fresh []string
	for _, kw := range s.extractor.Extract(entry.Content, s.config.ContentKeywordLimit) {
		folded := keyword.Fold(kw)
		if st.known[folded] {
			continue
		}
		st.known[folded] = true
		fresh = append(fresh, kw)
	}
	if len(fresh) == 0 {
		return false
	}
	st.combined = append(st.combined, fresh...)
	st.expanded = append(st.expanded, fresh...)
	if st.extracted[entry.ID] == nil {
		st.order = append(st.order, entry.ID)
	}
	st.extracted[entry.ID] = detail
	return true
}

// byRelevance orders by total score, then keyword count, both descending,
// then by ID.
func byRelevance(a, b *core.ScoreDetail) int {
	if c := cmp.Compare(b.TotalScore, a.TotalScore); c != 0 {
		return c
	}
	if c := cmp.Compare(b.KeywordMatchCount, a.KeywordMatchCount); c != 0 {
		return c
	}
	return cmp.Compare(a.Entry.ID, b.Entry.ID)
}

func distinctFold(words []string) []string {
	seen := make(map[string]bool, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		folded := keyword.Fold(w)
		if w == "" || seen[folded] {
			continue
		}
		seen[folded] = true
		out = append(out, w)
	}
	return out
}
