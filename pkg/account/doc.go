// Package account holds the pool's account records and their stores.
//
// An Account tracks one platform account's lifecycle state, health score,
// usage counters and timestamps. Credentials are referenced by an opaque
// key and never stored or logged here.
//
// Stores implement the Store interface. MemoryStore is the mutex-guarded
// in-memory implementation; FileStore layers JSON persistence on top of it
// so the pool survives restarts. Cooldown expiry is evaluated lazily inside
// ListEligible rather than by background timers.
package account
