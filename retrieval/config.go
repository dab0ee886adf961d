package retrieval

import (
	"fmt"
	"math"
)

const (
	// ImportanceWeight scales entry importance in the vector composite score.
	ImportanceWeight = 0.2

	// lowThresholdMargin widens the vector query so that important entries
	// with modest similarity can still reach the composite threshold.
	lowThresholdMargin = 0.2
	lowThresholdFloor  = 0.5

	// candidateFactor is how many vector candidates are fetched per slot.
	candidateFactor = 3
)

// Config controls vector augmentation.
type Config struct {
	// VectorEnabled turns on semantic matching when an index is present.
	VectorEnabled bool `yaml:"vector_enabled"`
	// SemanticThreshold is the minimum composite score of a vector match.
	SemanticThreshold float64 `yaml:"semantic_threshold"`
	// MaxVectorResults caps the vector matches merged into one retrieval.
	MaxVectorResults int `yaml:"max_vector_results"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		VectorEnabled:     true,
		SemanticThreshold: 0.75,
		MaxVectorResults:  5,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if math.IsNaN(c.SemanticThreshold) || math.IsInf(c.SemanticThreshold, 0) {
		return fmt.Errorf("%w: semantic_threshold must be finite", ErrInvalidConfig)
	}
	if c.MaxVectorResults < 0 {
		return fmt.Errorf("%w: max_vector_results must not be negative", ErrInvalidConfig)
	}
	return nil
}

// QueryThreshold is the similarity floor used for the vector query.
func (c *Config) QueryThreshold() float64 {
	return max(lowThresholdFloor, c.SemanticThreshold-lowThresholdMargin)
}

// Composite combines a similarity with an entry importance.
func Composite(similarity, importance float64) float64 {
	return similarity + importance*ImportanceWeight
}
