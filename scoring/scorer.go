package scoring

import (
	"cmp"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/poiesic/lorekeep/core"
	"github.com/poiesic/lorekeep/keyword"
)

// Reasons recorded in ScoreDetail.FailReason.
const (
	ReasonTagMatched     = "Tag matched"
	ReasonKeywordMatched = "Keyword matched"
	ReasonNoMatch        = "No keyword or tag matched"
	ReasonDisabled       = "Disabled"
	ReasonBelowThreshold = "Below threshold"
	ReasonOverLimit      = "Over entry limit"
)

// Scorer computes ScoreDetails and decides which entries fire.
// It holds no per-call state and is safe for concurrent use.
type Scorer struct {
	config *Config
	logger *slog.Logger
}

// Option configures a Scorer.
type Option func(*Scorer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scorer) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewScorer creates a Scorer. A nil config uses DefaultConfig.
func NewScorer(config *Config, opts ...Option) (*Scorer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Scorer{
		config: config,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "scorer")
	return s, nil
}

// Threshold returns the acceptance threshold.
func (s *Scorer) Threshold() float64 {
	return s.config.Threshold
}

// TagMatched scores an entry found by tag matching: the match bonus plus importance.
func (s *Scorer) TagMatched(entry *core.Entry) *core.ScoreDetail {
	return &core.ScoreDetail{
		Entry:           entry,
		Enabled:         entry.Enabled,
		TotalScore:      s.config.MatchBonus + entry.Importance,
		ImportanceScore: entry.Importance,
		MatchedTags:     nonBlank(entry.MatchTags()),
		Source:          core.SourceLexical,
		FailReason:      ReasonTagMatched,
	}
}

// Unmatched returns a zero-score detail carrying reason, for the trace.
func (s *Scorer) Unmatched(entry *core.Entry, reason string) *core.ScoreDetail {
	return &core.ScoreDetail{
		Entry:           entry,
		Enabled:         entry.Enabled,
		ImportanceScore: entry.Importance,
		Source:          core.SourceLexical,
		FailReason:      reason,
	}
}

// Relevance scores an entry against a keyword set.
//
// A tag matches when some keyword contains it. A keyword counts when the
// entry content contains it. In MatchAll mode the tag component is zero
// unless every tag matched. The Jaccard component compares the exact
// case-folded keyword and tag sets.
func (s *Scorer) Relevance(entry *core.Entry, keywords []string, flags core.ExtendedFlags) *core.ScoreDetail {
	detail := &core.ScoreDetail{
		Entry:           entry,
		Enabled:         entry.Enabled,
		ImportanceScore: entry.Importance,
		Source:          core.SourceKeyword,
	}
	if !entry.Enabled {
		detail.FailReason = ReasonDisabled
		return detail
	}

	tags := nonBlank(entry.MatchTags())
	foldedTags := make([]string, len(tags))
	for i, tag := range tags {
		foldedTags[i] = keyword.Fold(tag)
	}
	var kept, foldedKeywords []string
	seen := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		folded := keyword.Fold(kw)
		if strings.TrimSpace(folded) == "" || seen[folded] {
			continue
		}
		seen[folded] = true
		kept = append(kept, kw)
		foldedKeywords = append(foldedKeywords, folded)
	}

	for i, tag := range foldedTags {
		for _, kw := range foldedKeywords {
			if strings.Contains(kw, tag) {
				detail.MatchedTags = append(detail.MatchedTags, tags[i])
				break
			}
		}
	}

	content := keyword.Fold(entry.Content)
	for i, kw := range foldedKeywords {
		if strings.Contains(content, kw) {
			detail.MatchedKeywords = append(detail.MatchedKeywords, kept[i])
		}
	}
	detail.KeywordMatchCount = len(detail.MatchedKeywords)

	if len(tags) > 0 {
		ratio := float64(len(detail.MatchedTags)) / float64(len(tags))
		if flags.MatchMode == core.MatchAll && len(detail.MatchedTags) < len(tags) {
			ratio = 0
		}
		detail.TagScore = s.config.TagWeight * ratio
	}
	keywordScore := math.Min(s.config.KeywordWeight*float64(detail.KeywordMatchCount), s.config.KeywordCap)
	detail.JaccardScore = s.config.ExactMatchWeight * jaccard(foldedKeywords, foldedTags)

	if detail.TagScore == 0 && detail.KeywordMatchCount == 0 && detail.JaccardScore == 0 {
		detail.FailReason = ReasonNoMatch
		return detail
	}
	detail.TotalScore = entry.Importance + detail.TagScore + keywordScore + detail.JaccardScore
	detail.FailReason = ReasonKeywordMatched
	return detail
}

// ApplyExtractionBonus adds the extraction bonus to every detail whose entry
// is in extracted. Each entry receives the bonus at most once per call.
func (s *Scorer) ApplyExtractionBonus(details []*core.ScoreDetail, extracted map[string]bool) int {
	bonus := s.config.ExtractionBonus
	if bonus <= 0 || len(extracted) == 0 {
		return 0
	}

	applied := make(map[string]bool, len(extracted))
	for _, detail := range details {
		id := detail.Entry.ID
		if !extracted[id] || applied[id] {
			continue
		}
		detail.TotalScore += bonus
		detail.AppendReason(fmt.Sprintf(" (ExtractedBonus: +%.2f)", bonus))
		applied[id] = true
	}
	return len(applied)
}

// Accept ranks details by total score (ties by entry ID) and marks as fired
// the enabled ones at or above the threshold, up to maxEntries.
// The ranked slice is a new slice; the fired list keeps rank order.
func (s *Scorer) Accept(details []*core.ScoreDetail, maxEntries int) ([]core.KnowledgeScore, []*core.ScoreDetail) {
	maxEntries = max(maxEntries, 0)
	ranked := slices.Clone(details)
	Rank(ranked)

	fired := make([]core.KnowledgeScore, 0, min(maxEntries, len(ranked)))
	for _, detail := range ranked {
		detail.Fired = false
		switch {
		case !detail.Enabled:
			if detail.FailReason != ReasonDisabled {
				detail.AddNote(ReasonDisabled)
			}
		case detail.TotalScore < s.config.Threshold:
			detail.AddNote(ReasonBelowThreshold)
		case len(fired) >= maxEntries:
			detail.AddNote(ReasonOverLimit)
		default:
			detail.Fired = true
			fired = append(fired, core.KnowledgeScore{Entry: detail.Entry, Score: detail.TotalScore})
		}
	}
	return fired, ranked
}

// Rank sorts details by total score descending, then entry ID ascending.
func Rank(details []*core.ScoreDetail) {
	slices.SortStableFunc(details, func(a, b *core.ScoreDetail) int {
		if c := cmp.Compare(b.TotalScore, a.TotalScore); c != 0 {
			return c
		}
		return cmp.Compare(a.Entry.ID, b.Entry.ID)
	})
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]int, len(a)+len(b))
	for _, s := range a {
		set[s] |= 1
	}
	for _, s := range b {
		set[s] |= 2
	}
	both := 0
	for _, v := range set {
		if v == 3 {
			both++
		}
	}
	return float64(both) / float64(len(set))
}

func nonBlank(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if strings.TrimSpace(tag) != "" {
			out = append(out, tag)
		}
	}
	return out
}
