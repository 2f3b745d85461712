// Package pool implements the account pool manager: selection, locking,
// cooldown and health tracking for a shared set of platform accounts under
// concurrent collection tasks.
//
// Lifecycle per account:
//
//	Available -> InUse -> {Available | Cooldown | Quarantined}
//	Cooldown  -> Available   (time-triggered, evaluated lazily at selection)
//	Quarantined -> Available (explicit Reset, or the optional slow
//	                          health-recovery rule)
//
// Acquire picks the least-recently-used eligible account, transitions it to
// InUse atomically, and returns a Lease. When no account is eligible it
// fails fast with a pool_exhausted error instead of blocking; retry and
// backoff policy belong to callers. Release must run on every exit path,
// including task cancellation, and reports the task's Outcome so the
// Tracker can move health and decide the next state.
//
// Snapshot produces a consistent, read-only view for observability; its
// per-state counts always sum to the number of registered accounts.
package pool
