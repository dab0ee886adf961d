package keyword

import (
	"cmp"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/poiesic/lorekeep/core"
)

// Extractor turns free text into ranked keywords.
// It is immutable after construction and safe for concurrent use.
type Extractor struct {
	config *Config
	stops  *stopList
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewExtractor creates an Extractor. A nil config uses DefaultConfig.
func NewExtractor(config *Config, opts ...Option) (*Extractor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &Extractor{
		config: config,
		stops:  newStopList(config),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "keyword-extractor")
	return e, nil
}

// Extract returns at most maxKeywords terms from text, highest score first.
// Any term contained in one of exclude (case-insensitive) is removed.
func (e *Extractor) Extract(text string, maxKeywords int, exclude ...string) []string {
	candidates := e.Candidates(text, maxKeywords, exclude...)
	words := make([]string, len(candidates))
	for i, c := range candidates {
		words[i] = c.Word
	}
	return words
}

// Candidates is Extract with the scores kept.
func (e *Extractor) Candidates(text string, maxKeywords int, exclude ...string) []core.KeywordCandidate {
	if maxKeywords <= 0 || strings.TrimSpace(text) == "" {
		return []core.KeywordCandidate{}
	}

	raw := Segment(text, e.config.MaxCandidates)
	excluded := foldAll(exclude)

	survivors := raw[:0:0]
	for _, c := range raw {
		folded := Fold(c.Word)
		if isExcluded(folded, excluded) || e.stops.drops(folded) {
			continue
		}
		survivors = append(survivors, c)
	}

	freq := make(map[string]float64, len(survivors))
	for _, c := range survivors {
		freq[Fold(c.Word)] += c.Weight
	}

	best := make(map[string]core.KeywordCandidate, len(survivors))
	for _, c := range survivors {
		c.Score = e.lengthWeight(c.Word) * e.cohesionFactor(c.Word, freq) * math.Sqrt(c.Weight+0.1)
		key := Fold(c.Word)
		if prev, ok := best[key]; !ok || c.Score > prev.Score {
			best[key] = c
		}
	}

	out := make([]core.KeywordCandidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b core.KeywordCandidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Word, b.Word)
	})
	if len(out) > maxKeywords {
		out = out[:maxKeywords]
	}

	e.logger.Debug("extracted keywords", "raw", len(raw), "kept", len(out))
	return out
}

// lengthWeight scores a term by script and rune length.
func (e *Extractor) lengthWeight(word string) float64 {
	n := len([]rune(word))
	if ContainsHan(word) {
		return e.config.CJKLengthWeights[n]
	}
	w := e.config.LatinBase + float64(n-1)*e.config.LatinIncrement
	return math.Min(w, e.config.LatinMax)
}

// cohesionFactor rewards terms whose short substrings are also candidates.
// Terms of two runes or fewer always get 1.
func (e *Extractor) cohesionFactor(word string, freq map[string]float64) float64 {
	runes := []rune(Fold(word))
	if len(runes) <= 2 {
		return 1
	}
	bonus := 0.0
	for size := 2; size <= 3 && size < len(runes); size++ {
		for i := 0; i+size <= len(runes); i++ {
			if _, ok := freq[string(runes[i:i+size])]; ok {
				bonus += e.config.CohesionBonus
			}
		}
	}
	return 1 + math.Min(bonus, e.config.CohesionMaxBonus)
}

func isExcluded(folded string, excluded []string) bool {
	for _, ex := range excluded {
		if strings.Contains(ex, folded) {
			return true
		}
	}
	return false
}
