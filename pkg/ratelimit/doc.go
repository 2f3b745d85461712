// Package ratelimit provides request pacing for the account pool.
//
// Two mechanisms are implemented:
//
// Token Bucket:
//   - Pool-wide ceiling on platform requests per refill period
//   - Fixed capacity bucket that refills after the period elapses
//   - Used by the collection layer to cap aggregate request volume
//
// Pacer:
//   - Per-account randomized delay between consecutive uses
//   - Gap drawn uniformly from a configured [min, max] window
//   - Stateless: measured against the account's last-use timestamp
//   - Context-aware and bounded; it delays but never retries
//
// Usage:
//
//	// Pool ceiling: 60 requests per minute
//	limiter := ratelimit.NewTokenBucket(60, time.Minute)
//	if err := limiter.Wait(ctx); err != nil {
//	    // context cancelled while waiting
//	}
//
//	// Account pacing: 1-3s randomized gap
//	pacer := ratelimit.NewPacer(time.Second, 3*time.Second)
//	if err := pacer.Await(ctx, account.LastUsedAt); err != nil {
//	    // context cancelled while waiting
//	}
package ratelimit
