package match

import (
	"cmp"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/lorekeep/core"
	"github.com/poiesic/lorekeep/keyword"
)

// Explanations returned by Explain.
const (
	ReasonDisabled       = "Disabled"
	ReasonAlreadyMatched = "Already matched"
	ReasonNotChainable   = "Not matchable by chaining"
	ReasonRestricted     = "Restricted to another speaker"
	ReasonNoTags         = "No tags"
	ReasonNoTagMatched   = "No tag matched"
	ReasonMissingTags    = "Missing tags: "
)

// Library is the entry set seen by one matching call.
type Library struct {
	Entries []*core.Entry
	Flags   FlagSource
}

// Round describes a single matching pass.
type Round struct {
	Text      string
	SpeakerID string
	// Chaining is set for every round after the first.
	Chaining bool
	// Already holds the IDs matched by earlier rounds.
	Already map[string]bool
}

// ChainRequest is the input of Chain.
type ChainRequest struct {
	Text       string
	SpeakerID  string
	MaxEntries int
}

// ChainResult records what Chain matched and why.
type ChainResult struct {
	// Rounds lists the IDs matched in each round, in library order.
	Rounds [][]string
	// Matched holds every matched entry in discovery order.
	Matched []*core.Entry
	// Extracted lists the IDs whose content seeded a later round.
	Extracted []string
	// Selected is Matched ordered by importance then ID, truncated to MaxEntries.
	Selected []*core.Entry
	// Overflow holds the matched entries cut by MaxEntries.
	Overflow []*core.Entry
}

// ExtractedSet returns Extracted as a set.
func (r *ChainResult) ExtractedSet() map[string]bool {
	set := make(map[string]bool, len(r.Extracted))
	for _, id := range r.Extracted {
		set[id] = true
	}
	return set
}

// Option configures the types in this package.
type Option func(*options) error

type options struct {
	logger *slog.Logger
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

func applyOptions(opts []Option) (*options, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// TagMatcher matches entry tags against text, optionally over several
// chaining rounds. It is safe for concurrent use.
type TagMatcher struct {
	config *Config
	logger *slog.Logger
}

// NewTagMatcher creates a TagMatcher. A nil config uses DefaultConfig.
func NewTagMatcher(config *Config, opts ...Option) (*TagMatcher, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &TagMatcher{
		config: config,
		logger: o.logger.With("component", "tag-matcher"),
	}, nil
}

// IsMatched reports whether text satisfies the entry's tags under mode.
// Any needs one non-blank tag present, All needs every non-blank tag
// present, and an entry without tags never matches.
func IsMatched(text string, entry *core.Entry, mode core.MatchMode) bool {
	return len(missingTags(keyword.Fold(text), entry, mode)) == 0 && hasTags(entry)
}

// MatchRound returns the entries matched by one pass, in library order.
func (m *TagMatcher) MatchRound(lib Library, round Round) []*core.Entry {
	if strings.TrimSpace(round.Text) == "" {
		return nil
	}
	folded := keyword.Fold(round.Text)

	var matches []*core.Entry
	for _, entry := range lib.Entries {
		if m.skipReason(lib, entry, round) != "" {
			continue
		}
		mode := flagsOf(lib.Flags, entry.ID).MatchMode
		if hasTags(entry) && len(missingTags(folded, entry, mode)) == 0 {
			matches = append(matches, entry)
		}
	}
	return matches
}

// Explain returns why entry was not matched by round, or "" if it was.
func (m *TagMatcher) Explain(lib Library, entry *core.Entry, round Round) string {
	if reason := m.skipReason(lib, entry, round); reason != "" {
		return reason
	}
	if !hasTags(entry) {
		return ReasonNoTags
	}
	mode := flagsOf(lib.Flags, entry.ID).MatchMode
	missing := missingTags(keyword.Fold(round.Text), entry, mode)
	switch {
	case len(missing) == 0:
		return ""
	case mode == core.MatchAll:
		return ReasonMissingTags + strings.Join(missing, ", ")
	default:
		return ReasonNoTagMatched
	}
}

func (m *TagMatcher) skipReason(lib Library, entry *core.Entry, round Round) string {
	switch {
	case round.Already[entry.ID]:
		return ReasonAlreadyMatched
	case !entry.Enabled:
		return ReasonDisabled
	case round.Chaining && !flagsOf(lib.Flags, entry.ID).CanBeMatched:
		return ReasonNotChainable
	case entry.RestrictedFrom(round.SpeakerID):
		return ReasonRestricted
	}
	return ""
}

// Chain runs up to the configured number of rounds. Round 0 matches the
// request text; each later round matches the joined content of the
// extractable entries found by the previous round. Chaining stops early
// when a round finds nothing new or produces no text to continue with.
func (m *TagMatcher) Chain(lib Library, req ChainRequest) *ChainResult {
	result := &ChainResult{}
	already := make(map[string]bool)
	rounds := m.config.rounds()
	text := req.Text

	for r := 0; r < rounds; r++ {
		if strings.TrimSpace(text) == "" {
			break
		}
		matched := m.MatchRound(lib, Round{
			Text:      text,
			SpeakerID: req.SpeakerID,
			Chaining:  r > 0,
			Already:   already,
		})
		if len(matched) == 0 {
			break
		}

		ids := make([]string, 0, len(matched))
		for _, entry := range matched {
			already[entry.ID] = true
			ids = append(ids, entry.ID)
		}
		result.Rounds = append(result.Rounds, ids)
		result.Matched = append(result.Matched, matched...)

		if r >= rounds-1 {
			break
		}
		var seeds []string
		text, seeds = chainText(lib, matched)
		result.Extracted = append(result.Extracted, seeds...)
	}

	m.logger.Debug("chaining finished",
		"rounds", len(result.Rounds),
		"matched", len(result.Matched),
		"extracted", len(result.Extracted))

	ordered := slices.Clone(result.Matched)
	slices.SortStableFunc(ordered, byImportance)
	limit := min(max(req.MaxEntries, 0), len(ordered))
	result.Selected = ordered[:limit]
	result.Overflow = ordered[limit:]
	return result
}

// chainText joins the content of extractable entries and returns the IDs used.
func chainText(lib Library, entries []*core.Entry) (string, []string) {
	var sb strings.Builder
	var ids []string
	for _, entry := range entries {
		if !flagsOf(lib.Flags, entry.ID).CanBeExtracted || entry.Content == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(entry.Content)
		ids = append(ids, entry.ID)
	}
	return sb.String(), ids
}

// byImportance orders entries by importance descending, then ID ascending.
func byImportance(a, b *core.Entry) int {
	if c := cmp.Compare(b.Importance, a.Importance); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func hasTags(entry *core.Entry) bool {
	for _, tag := range entry.MatchTags() {
		if strings.TrimSpace(tag) != "" {
			return true
		}
	}
	return false
}

// missingTags returns the tags that keep entry from matching folded text.
// Under MatchAny it returns every tag when none is present and nil otherwise.
func missingTags(folded string, entry *core.Entry, mode core.MatchMode) []string {
	var missing []string
	found := false
	for _, tag := range entry.MatchTags() {
		if strings.TrimSpace(tag) == "" {
			continue
		}
		if strings.Contains(folded, keyword.Fold(tag)) {
			found = true
		} else {
			missing = append(missing, tag)
		}
	}
	if mode == core.MatchAny && found {
		return nil
	}
	return missing
}
