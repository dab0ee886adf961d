package scoring

import (
	"fmt"
	"math"
)

// Config holds the weights used to score entries.
type Config struct {
	// MatchBonus is the flat score of a tag-matched entry before importance.
	MatchBonus float64 `yaml:"match_bonus"`
	// TagWeight scales the matched-tag ratio in relevance scoring.
	TagWeight float64 `yaml:"tag_weight"`
	// KeywordWeight is added per matched keyword, up to KeywordCap.
	KeywordWeight float64 `yaml:"keyword_weight"`
	KeywordCap    float64 `yaml:"keyword_cap"`
	// ExactMatchWeight scales the Jaccard overlap of keywords and tags.
	ExactMatchWeight float64 `yaml:"exact_match_weight"`
	// ExtractionBonus is added once to entries whose content seeded expansion.
	ExtractionBonus float64 `yaml:"extraction_bonus"`
	// Threshold is the minimum total score for an entry to fire.
	Threshold float64 `yaml:"threshold"`
}

// DefaultConfig returns the default scoring weights.
func DefaultConfig() *Config {
	return &Config{
		MatchBonus:       0.5,
		TagWeight:        1.0,
		KeywordWeight:    0.1,
		KeywordCap:       0.5,
		ExactMatchWeight: 0.5,
		ExtractionBonus:  0.2,
		Threshold:        0.1,
	}
}

// Validate checks that every weight is finite and non-negative.
func (c *Config) Validate() error {
	weights := []struct {
		name  string
		value float64
	}{
		{"match_bonus", c.MatchBonus},
		{"tag_weight", c.TagWeight},
		{"keyword_weight", c.KeywordWeight},
		{"keyword_cap", c.KeywordCap},
		{"exact_match_weight", c.ExactMatchWeight},
		{"extraction_bonus", c.ExtractionBonus},
		{"threshold", c.Threshold},
	}
	for _, w := range weights {
		if math.IsNaN(w.value) || math.IsInf(w.value, 0) || w.value < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidConfig, w.name)
		}
	}
	return nil
}
