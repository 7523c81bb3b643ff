package process

import (
	"context"
	"time"

	"github.com/kbukum/edgeshim/resilience"
)

// RunWithRetry runs cmd until it exits 0 or the retry policy gives up.
// Each attempt is bounded by timeout when it is positive; an attempt that
// times out is retried as long as ctx itself is still live.
func RunWithRetry(ctx context.Context, cmd Command, timeout time.Duration, policy resilience.RetryConfig) (*Result, error) {
	if policy.RetryIf == nil {
		policy.RetryIf = func(error) bool { return ctx.Err() == nil }
	}
	return resilience.Retry(ctx, policy, func() (*Result, error) {
		attemptCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return Run(attemptCtx, cmd)
	})
}
