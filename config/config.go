// Package config loads lorekeep settings from a YAML file.
//
// Values are resolved in this order, later sources winning:
//  1. Defaults from each package
//  2. The YAML file
//  3. Environment variables (LORE_EMBEDDING_*)
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/poiesic/lorekeep/ai"
	"github.com/poiesic/lorekeep/keyword"
	"github.com/poiesic/lorekeep/match"
	"github.com/poiesic/lorekeep/retrieval"
	"github.com/poiesic/lorekeep/scoring"
	"github.com/poiesic/lorekeep/vector"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the embedding section.
const (
	EnvEmbeddingAPIKey = "LORE_EMBEDDING_API_KEY"
	EnvEmbeddingURL    = "LORE_EMBEDDING_URL"
	EnvEmbeddingModel  = "LORE_EMBEDDING_MODEL"
)

// ErrInvalidConfig is returned for a file that cannot be decoded or holds
// values no component accepts.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the whole lorekeep configuration.
type Config struct {
	Keywords  keyword.Config   `yaml:"keywords"`
	Matching  match.Config     `yaml:"matching"`
	Scoring   scoring.Config   `yaml:"scoring"`
	Vector    vector.Config    `yaml:"vector"`
	Retrieval retrieval.Config `yaml:"retrieval"`
	Storage   StorageConfig    `yaml:"storage"`
	Embedding EmbeddingConfig  `yaml:"embedding"`
	Profile   ProfileConfig    `yaml:"profile"`
	Schedule  ScheduleConfig   `yaml:"schedule"`
}

// StorageConfig locates the badger database.
type StorageConfig struct {
	// Path is the database directory.
	// Default: lorekeep.db
	Path string `yaml:"path"`
	// InMemory keeps everything in memory; Path is ignored.
	InMemory bool `yaml:"in_memory"`
}

// EmbeddingConfig describes the OpenAI-compatible embedding service.
type EmbeddingConfig struct {
	URL        string        `yaml:"url"`
	Model      string        `yaml:"model"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// ProfileConfig tunes actor descriptors.
type ProfileConfig struct {
	// NegativeKeywords are never used as descriptors.
	NegativeKeywords []string `yaml:"negative_keywords"`
}

// ScheduleConfig controls periodic maintenance.
type ScheduleConfig struct {
	// Resync is a cron expression or descriptor for the watch command.
	// Default: @every 10m
	Resync string `yaml:"resync"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	aiCfg := ai.DefaultConfig()
	return &Config{
		Keywords:  *keyword.DefaultConfig(),
		Matching:  *match.DefaultConfig(),
		Scoring:   *scoring.DefaultConfig(),
		Vector:    *vector.DefaultConfig(),
		Retrieval: *retrieval.DefaultConfig(),
		Storage:   StorageConfig{Path: "lorekeep.db"},
		Embedding: EmbeddingConfig{
			URL:        aiCfg.EmbeddingHost,
			Model:      aiCfg.EmbeddingModel,
			Timeout:    aiCfg.Timeout,
			MaxRetries: aiCfg.MaxRetries,
			RetryDelay: aiCfg.RetryDelay,
		},
		Schedule: ScheduleConfig{Resync: "@every 10m"},
	}
}

// Load reads the file at path over the defaults, applies the environment
// and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening config: %w", err)
		}
		defer f.Close()
		if err := cfg.decode(f); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads YAML from r over the defaults and validates the result.
// The environment is not consulted.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(r); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvEmbeddingAPIKey); ok {
		c.Embedding.APIKey = v
	}
	if v, ok := lookup(EnvEmbeddingURL); ok && strings.TrimSpace(v) != "" {
		c.Embedding.URL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvEmbeddingModel); ok && strings.TrimSpace(v) != "" {
		c.Embedding.Model = strings.TrimSpace(v)
	}
}

// Limits applied by Validate.
const (
	maxRounds         = 5
	maxCycles         = 5
	maxExtractable    = 50
	maxKeywordLimit   = 200
	maxVectorResults  = 20
	maxCandidateTerms = 1000
)

// Validate clamps limits into their supported ranges and checks every
// section with its package's own validation.
func (c *Config) Validate() error {
	c.Matching.MaxRounds = clamp(c.Matching.MaxRounds, 1, maxRounds)
	c.Matching.Cycles = clamp(c.Matching.Cycles, 1, maxCycles)
	c.Matching.MaxExtractable = clamp(c.Matching.MaxExtractable, 0, maxExtractable)
	c.Matching.ContextKeywordLimit = clamp(c.Matching.ContextKeywordLimit, 0, maxKeywordLimit)
	c.Matching.ContentKeywordLimit = clamp(c.Matching.ContentKeywordLimit, 0, maxKeywordLimit)
	c.Keywords.MaxCandidates = clamp(c.Keywords.MaxCandidates, 1, maxCandidateTerms)
	c.Retrieval.MaxVectorResults = clamp(c.Retrieval.MaxVectorResults, 0, maxVectorResults)
	c.Retrieval.SemanticThreshold = clamp(c.Retrieval.SemanticThreshold, 0, 1)

	validators := []struct {
		section string
		check   func() error
	}{
		{"keywords", c.Keywords.Validate},
		{"matching", c.Matching.Validate},
		{"scoring", c.Scoring.Validate},
		{"vector", c.Vector.Validate},
		{"retrieval", c.Retrieval.Validate},
		{"embedding", func() error { return c.AI().Validate() }},
	}
	for _, v := range validators {
		if err := v.check(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, v.section, err)
		}
	}
	if !c.Storage.InMemory && strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("%w: storage: path is required", ErrInvalidConfig)
	}
	return nil
}

func clamp[T int | float64](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

// KeywordConfig returns a copy of the keywords section.
func (c *Config) KeywordConfig() *keyword.Config {
	cfg := c.Keywords
	return &cfg
}

// MatchConfig returns a copy of the matching section.
func (c *Config) MatchConfig() *match.Config {
	cfg := c.Matching
	return &cfg
}

// ScoringConfig returns a copy of the scoring section.
func (c *Config) ScoringConfig() *scoring.Config {
	cfg := c.Scoring
	return &cfg
}

// VectorConfig returns a copy of the vector section.
func (c *Config) VectorConfig() *vector.Config {
	cfg := c.Vector
	return &cfg
}

// RetrievalConfig returns a copy of the retrieval section.
func (c *Config) RetrievalConfig() *retrieval.Config {
	cfg := c.Retrieval
	return &cfg
}

// AI converts the embedding section into an ai.Config.
func (c *Config) AI() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.Embedding.URL),
		ai.WithEmbeddingModel(c.Embedding.Model),
		ai.WithAPIKey(c.Embedding.APIKey),
		ai.WithTimeout(c.Embedding.Timeout),
		ai.WithRetries(c.Embedding.MaxRetries, c.Embedding.RetryDelay),
	)
}
