// Package collector runs collection tasks against the account pool.
//
// The Service is the bridge between tasks and accounts: it leases an account
// from the pool, resolves its credentials, runs the configured Collector
// implementation, and releases the lease with an outcome classified from the
// collector's typed error. Accounts always come back to the pool, whatever
// path the task exits on.
package collector
