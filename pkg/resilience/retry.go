// Package resilience retries calls to remote backends (PostgreSQL, Redis,
// Kafka) with jittered exponential backoff.
package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/errors"
)

type Backoff struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	JitterFraction float64
}

// DefaultBackoff suits interactive commands: three attempts within a few
// hundred milliseconds.
var DefaultBackoff = Backoff{
	MaxAttempts:    3,
	InitialDelay:   100 * time.Millisecond,
	MaxDelay:       2 * time.Second,
	Multiplier:     2.0,
	JitterFraction: 0.1,
}

func (b Backoff) withDefaults() Backoff {
	if b.MaxAttempts <= 0 {
		b.MaxAttempts = DefaultBackoff.MaxAttempts
	}
	if b.InitialDelay <= 0 {
		b.InitialDelay = DefaultBackoff.InitialDelay
	}
	if b.MaxDelay <= 0 {
		b.MaxDelay = DefaultBackoff.MaxDelay
	}
	if b.Multiplier <= 0 {
		b.Multiplier = DefaultBackoff.Multiplier
	}
	if b.JitterFraction < 0 {
		b.JitterFraction = 0
	}
	return b
}

// Retryable reports whether err may succeed on a second attempt. Errors
// produced by the codecs and by segment validation are deterministic and
// never retried.
func Retryable(err error) bool {
	return err != nil && apperrors.Kind(err) == "internal"
}

// Do calls fn until it succeeds, returns a non-retryable error, ctx ends or
// the attempts run out.
func (b Backoff) Do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	b = b.withDefaults()
	logger := slog.Default().With("component", "retry", "operation", name)
	var lastErr error
	for attempt := 1; attempt <= b.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			if attempt > 1 {
				logger.Info("succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if !Retryable(lastErr) {
			return lastErr
		}
		if attempt == b.MaxAttempts {
			break
		}
		delay := b.delay(attempt)
		logger.Warn("operation failed, retrying",
			"attempt", attempt,
			"max_attempts", b.MaxAttempts,
			"error", lastErr,
			"next_delay", delay,
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s: retry aborted: %w", name, ctx.Err())
		}
	}
	return fmt.Errorf("all %d attempts failed for %s: %w", b.MaxAttempts, name, lastErr)
}

func (b Backoff) delay(attempt int) time.Duration {
	backoff := float64(b.InitialDelay) * math.Pow(b.Multiplier, float64(attempt-1))
	backoff += backoff * b.JitterFraction * (2*rand.Float64() - 1)
	if backoff > float64(b.MaxDelay) {
		backoff = float64(b.MaxDelay)
	}
	if backoff < 0 {
		backoff = float64(b.InitialDelay)
	}
	return time.Duration(backoff)
}
