package keyword

import (
	"fmt"
	"math"
)

// Config holds the tunable weights and stop-word lists used by the Extractor.
type Config struct {
	// MaxCandidates caps the number of raw terms kept by the segmenter.
	// Default: 100
	MaxCandidates int `yaml:"max_candidates"`

	// CJKLengthWeights maps a Han term's rune length to its length weight.
	// Lengths missing from the table score zero.
	// Default: {2: 3, 3: 5, 4: 6, 5: 4, 6: 3}
	CJKLengthWeights map[int]float64 `yaml:"cjk_length_weights"`

	// LatinBase, LatinIncrement and LatinMax define the Latin length weight
	// base + (len-1)*increment, capped at max.
	LatinBase      float64 `yaml:"latin_base"`
	LatinIncrement float64 `yaml:"latin_increment"`
	LatinMax       float64 `yaml:"latin_max"`

	// CohesionBonus is added for every 2..3 rune substring of a term that is
	// itself a candidate. The total is capped at CohesionMaxBonus.
	CohesionBonus    float64 `yaml:"cohesion_bonus"`
	CohesionMaxBonus float64 `yaml:"cohesion_max_bonus"`

	// StopWords are added to the built-in list.
	StopWords []string `yaml:"stop_words"`

	// StartStopWords drop any term beginning with one of them.
	StartStopWords []string `yaml:"start_stop_words"`

	// EndStopWords drop any term ending with one of them.
	EndStopWords []string `yaml:"end_stop_words"`
}

// DefaultConfig returns the weights used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		MaxCandidates:    100,
		CJKLengthWeights: map[int]float64{2: 3, 3: 5, 4: 6, 5: 4, 6: 3},
		LatinBase:        2,
		LatinIncrement:   0.5,
		LatinMax:         8,
		CohesionBonus:    0.2,
		CohesionMaxBonus: 1.0,
	}
}

// Validate checks that every weight is finite and non-negative.
func (c *Config) Validate() error {
	if c.MaxCandidates < 1 {
		return fmt.Errorf("%w: MaxCandidates must be at least 1", ErrInvalidConfig)
	}
	weights := map[string]float64{
		"LatinBase":        c.LatinBase,
		"LatinIncrement":   c.LatinIncrement,
		"LatinMax":         c.LatinMax,
		"CohesionBonus":    c.CohesionBonus,
		"CohesionMaxBonus": c.CohesionMaxBonus,
	}
	for name, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidConfig, name)
		}
	}
	for length, w := range c.CJKLengthWeights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: CJK weight for length %d must be a non-negative number", ErrInvalidConfig, length)
		}
	}
	return nil
}
