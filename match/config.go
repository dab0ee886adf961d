package match

import "fmt"

// Config controls lexical matching and keyword-cycle expansion.
type Config struct {
	// Strategy selects the MatchStrategy used by retrieval.
	Strategy string `yaml:"strategy"`

	// ChainingEnabled allows matched entries' content to seed further rounds.
	ChainingEnabled bool `yaml:"chaining_enabled"`
	// MaxRounds caps the number of tag-matching rounds when chaining.
	MaxRounds int `yaml:"max_rounds"`

	// Cycles is the number of keyword extraction cycles, including the first.
	Cycles int `yaml:"cycles"`
	// MaxExtractable caps how many entries may contribute keywords.
	MaxExtractable int `yaml:"max_extractable"`
	// ContextKeywordLimit caps keywords taken from the context.
	ContextKeywordLimit int `yaml:"context_keyword_limit"`
	// ContentKeywordLimit caps keywords taken from each extracted entry.
	ContentKeywordLimit int `yaml:"content_keyword_limit"`
}

// DefaultConfig returns the default matching configuration.
func DefaultConfig() *Config {
	return &Config{
		Strategy:            StrategyLexicalTags.String(),
		ChainingEnabled:     true,
		MaxRounds:           2,
		Cycles:              2,
		MaxExtractable:      5,
		ContextKeywordLimit: 20,
		ContentKeywordLimit: 10,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if _, err := ParseStrategy(c.Strategy); err != nil {
		return err
	}
	if c.MaxRounds < 1 {
		return fmt.Errorf("%w: max_rounds must be at least 1", ErrInvalidConfig)
	}
	if c.Cycles < 1 {
		return fmt.Errorf("%w: cycles must be at least 1", ErrInvalidConfig)
	}
	if c.MaxExtractable < 0 || c.ContextKeywordLimit < 0 || c.ContentKeywordLimit < 0 {
		return fmt.Errorf("%w: limits must not be negative", ErrInvalidConfig)
	}
	return nil
}

// rounds returns the effective round cap.
func (c *Config) rounds() int {
	if !c.ChainingEnabled {
		return 1
	}
	return c.MaxRounds
}
