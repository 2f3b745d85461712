// Package retry provides exponential backoff and retry logic for transient
// failures, in particular pool exhaustion: workers waiting for an account
// back off here instead of blocking inside the pool.
//
// Basic usage:
//
//	// Simple retry with defaults
//	err := retry.Do(func() error {
//		_, err := svc.Run(ctx, req)
//		return err
//	}, nil)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff: &retry.ExponentialBackoff{
//			BaseDelay:    500 * time.Millisecond,
//			MaxDelay:     30 * time.Second,
//			Multiplier:   2.0,
//			JitterFactor: 0.2,
//		},
//		RetryIf: retry.DefaultRetryIf,
//		Logger:  logger.GetLogger(),
//	}
//	err := retry.Do(operation, cfg)
//
// DefaultRetryIf retries pool exhaustion, network, rate limit, and server
// errors. Auth failures, challenges, invalid transitions, and context
// cancellation are never retried.
package retry
