package connector

import (
	"context"
	"fmt"
	"time"
)

const (
	defaultBaseDelay = 500 * time.Millisecond
	defaultBackoff   = 2.0
)

// retry runs fn once plus up to MaxRetries more times, sleeping with exponential
// backoff in between. A nil config means a single attempt.
func retry(ctx context.Context, cfg *RetryConfig, fn func(context.Context) error) error {
	if cfg == nil || cfg.MaxRetries <= 0 {
		return fn(ctx)
	}
	delay := cfg.BaseDelay
	if delay <= 0 {
		delay = defaultBaseDelay
	}
	backoff := cfg.Backoff
	if backoff < 1 {
		backoff = defaultBackoff
	}

	var err error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == cfg.MaxRetries {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-timer.C:
		}
		delay = time.Duration(float64(delay) * backoff)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return fmt.Errorf("failed to connect after %d retries: %w", cfg.MaxRetries, err)
}
