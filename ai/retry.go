// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Backoff describes an exponential retry schedule.
type Backoff struct {
	Attempts  int           // Total attempts, must be > 0
	BaseDelay time.Duration // Delay before the second attempt, doubled after each failure
	MaxDelay  time.Duration // Upper bound on a single delay, zero means unbounded
}

// BackoffFromConfig builds the retry schedule configured for embedding requests.
func BackoffFromConfig(c *Config) Backoff {
	return Backoff{Attempts: c.MaxRetries, BaseDelay: c.RetryDelay}
}

// Delay returns the wait before the given attempt (1-based).
// Attempt 1 never waits.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	delay := b.BaseDelay
	for i := 2; i < attempt; i++ {
		delay *= 2
		if b.MaxDelay > 0 && delay >= b.MaxDelay {
			return b.MaxDelay
		}
	}
	if b.MaxDelay > 0 && delay > b.MaxDelay {
		return b.MaxDelay
	}
	return delay
}

// Retry runs operation until it succeeds, the attempts are exhausted,
// or ctx is done. ErrEmbeddingDisabled is never retried.
// Returns the error from the last attempt if all attempts fail.
func (b Backoff) Retry(ctx context.Context, operation func() error) error {
	if b.Attempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= b.Attempts; attempt++ {
		if delay := b.Delay(attempt); delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if errors.Is(lastErr, ErrEmbeddingDisabled) {
			return lastErr
		}

		slog.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", b.Attempts, "error", lastErr)
	}

	return lastErr
}

// RetryWithBackoff retries an operation with exponential backoff.
// maxAttempts: maximum number of attempts (must be > 0)
// baseDelay: base delay between retries (doubles on each retry)
func RetryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	return Backoff{Attempts: maxAttempts, BaseDelay: baseDelay}.Retry(ctx, operation)
}
