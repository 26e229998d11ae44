package messaging

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig holds configuration for retry logic.
type RetryConfig struct {
	MaxRetries  int
	RetryDelays []time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		RetryDelays: []time.Duration{
			500 * time.Millisecond,
			2 * time.Second,
		},
	}
}

// NoRetry sends exactly once.
func NoRetry() RetryConfig {
	return RetryConfig{}
}

func (c RetryConfig) delay(attempt int) time.Duration {
	if len(c.RetryDelays) == 0 {
		return 0
	}
	if attempt < len(c.RetryDelays) {
		return c.RetryDelays[attempt]
	}
	return c.RetryDelays[len(c.RetryDelays)-1]
}

// retryable reports whether another attempt could succeed.
func retryable(err error) bool {
	if httpErr, ok := IsHTTPError(err); ok {
		return httpErr.Code == http.StatusTooManyRequests || httpErr.Code >= 500
	}
	return true
}

// sendWithRetry runs send until it succeeds, fails permanently, or the
// attempts are exhausted. send always runs at least once; a negative
// MaxRetries counts as zero.
func sendWithRetry(ctx context.Context, cfg RetryConfig, logger *zerolog.Logger, send func(context.Context) error) error {
	retries := max(cfg.MaxRetries, 0)
	for attempt := 0; ; attempt++ {
		err := send(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !retryable(err) || attempt >= retries {
			return err
		}

		delay := cfg.delay(attempt)
		if logger != nil {
			logger.Warn().Err(err).
				Int("attempt", attempt+1).
				Int("max_retries", retries).
				Dur("delay", delay).
				Msg("retrying message send")
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return err
		}
	}
}
