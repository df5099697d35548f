package indexer

import (
	"context"
	"time"

	"github.com/dshills/forensicq/pkg/types"
)

// Batch write retry defaults
const (
	DefaultWriteAttempts = 3
	initialBackoff       = 50 * time.Millisecond
	maxBackoff           = 1 * time.Second
	backoffMultiplier    = 2.0
)

// RetryConfig configures exponential backoff for durable batch writes
type RetryConfig struct {
	MaxAttempts int           // Total attempts including the first
	BaseDelay   time.Duration // Delay before the second attempt
	MaxDelay    time.Duration // Upper bound on any single delay
	Multiplier  float64       // Growth factor between delays
}

// DefaultRetryConfig returns the batch write retry policy
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: DefaultWriteAttempts,
		BaseDelay:   initialBackoff,
		MaxDelay:    maxBackoff,
		Multiplier:  backoffMultiplier,
	}
}

// retryWithBackoff runs fn until it succeeds, returns a non-retryable error,
// or runs out of attempts. Only errors accepted by types.IsRetryable are
// retried; the last error is returned.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, fn func() error) (attempts int, err error) {
	backoff := cfg.BaseDelay
	for attempts = 1; ; attempts++ {
		err = fn()
		if err == nil || !types.IsRetryable(err) || attempts >= cfg.MaxAttempts {
			return attempts, err
		}
		if ctx.Err() != nil {
			return attempts, err
		}

		select {
		case <-ctx.Done():
			return attempts, err
		case <-time.After(backoff):
		}
		backoff = time.Duration(float64(backoff) * cfg.Multiplier)
		if backoff > cfg.MaxDelay {
			backoff = cfg.MaxDelay
		}
	}
}
