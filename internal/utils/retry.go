package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/stellar/go-stellar-sdk/support/log"
)

// RetryConfig holds configuration for retry operations. MaxRetries counts the attempts made
// after the first one, so the zero value runs fn exactly once.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// RetryWithConfig executes fn and retries it while isRetryable reports true, backing off
// exponentially between attempts.
func RetryWithConfig(ctx context.Context, config RetryConfig, isRetryable func(error) bool, fn func() error) error {
	if config.MaxRetries < 0 {
		return fmt.Errorf("invalid retry config: negative MaxRetries %d", config.MaxRetries)
	}
	opts := []retry.Option{
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.Attempts(uint(config.MaxRetries) + 1),
		retry.Delay(config.BaseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warnf("Retryable error (attempt %d/%d): %v", n+1, config.MaxRetries+1, err)
		}),
	}
	if config.MaxDelay > 0 {
		opts = append(opts, retry.MaxDelay(config.MaxDelay))
	}
	return retry.Do(fn, opts...)
}
