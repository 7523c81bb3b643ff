// Package resilience retries operations with fixed or exponential backoff.
//
//	err := resilience.RetryFunc(ctx, resilience.FixedDelay(5, 2*time.Second), func() error {
//	    return probe(ctx)
//	})
package resilience
