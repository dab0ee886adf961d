package vector

import (
	"fmt"
	"runtime"
	"time"
)

// Config controls embedding requests made by the index.
type Config struct {
	// BatchSize is the number of texts sent per embedding request during resync.
	BatchSize int `yaml:"batch_size"`
	// PoolSize is the number of resync batches embedded concurrently.
	PoolSize int `yaml:"pool_size"`
	// RequestTimeout bounds each embedding attempt.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// MaxRetries is the number of attempts per embedding request.
	MaxRetries int `yaml:"max_retries"`
	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      32,
		PoolSize:       max(runtime.NumCPU()/2, 1),
		RequestTimeout: 30 * time.Second,
		MaxRetries:     3,
		RetryDelay:     500 * time.Millisecond,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch_size must be at least 1", ErrInvalidConfig)
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("%w: pool_size must be at least 1", ErrInvalidConfig)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request_timeout must be positive", ErrInvalidConfig)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("%w: max_retries must be at least 1", ErrInvalidConfig)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry_delay must not be negative", ErrInvalidConfig)
	}
	return nil
}
