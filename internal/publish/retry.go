package publish

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"gazette/internal/logging"
)

// RateLimiter is implemented by errors carrying an explicit server-provided
// rate-limit reset time. The retry loop sleeps until reset and tries again
// without consuming an attempt.
type RateLimiter interface {
	error
	ResetAt() time.Time
}

// RateLimitError is a ready-made RateLimiter for adapters to return.
type RateLimitError struct {
	Reset time.Time
}

func (e *RateLimitError) Error() string { return "rate limited until " + e.Reset.Format(time.RFC3339) }

func (e *RateLimitError) ResetAt() time.Time { return e.Reset }

// Policy is the shared retry primitive: a fixed attempt cap with a base delay
// doubling per attempt and optional jitter.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      bool
}

// DefaultPolicy mirrors the per-destination retry behavior of the upstream
// scripts: three attempts with delays of 1s and 2s between them.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Second}
}

// Do runs op until it succeeds, the attempt cap is exhausted, or ctx is
// cancelled. Rate-limit errors trigger a blocking sleep until the advertised
// reset and do not count against the cap.
func (p Policy) Do(ctx context.Context, logger *slog.Logger, operation string, op func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := p.BaseDelay

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}

		var limited RateLimiter
		if errors.As(lastErr, &limited) {
			wait := time.Until(limited.ResetAt())
			if wait < 0 {
				wait = 0
			}
			if logger != nil {
				logger.Warn("rate limited; waiting for reset",
					logging.String("operation", operation),
					logging.Duration("wait", wait),
				)
			}
			if err := sleep(ctx, wait); err != nil {
				return err
			}
			attempt--
			continue
		}

		if attempt == attempts-1 {
			break
		}
		if logger != nil {
			logger.Warn("operation failed; retrying",
				logging.String("operation", operation),
				logging.Int("attempt", attempt+1),
				logging.Error(lastErr),
			)
		}
		if err := sleep(ctx, p.backoff(delay)); err != nil {
			return err
		}
		delay *= 2
	}
	return lastErr
}

func (p Policy) backoff(delay time.Duration) time.Duration {
	if !p.Jitter || delay <= 0 {
		return delay
	}
	return delay/2 + time.Duration(rand.Int63n(int64(delay)))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
