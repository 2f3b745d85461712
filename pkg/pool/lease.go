package pool

import (
	"time"
)

// Lease represents one task's exclusive hold on one account. It is created
// only by Pool.Acquire and must be returned exactly once via Release, on
// every exit path.
type Lease struct {
	accountID      string
	credentialsRef string
	proxy          string
	acquiredAt     time.Time
	pool           *Pool
}

// AccountID returns the id of the leased account
func (l *Lease) AccountID() string {
	return l.accountID
}

// CredentialsRef returns the opaque credential reference for the leased
// account. The secret material itself lives in the credential store.
func (l *Lease) CredentialsRef() string {
	return l.credentialsRef
}

// Proxy returns the leased account's proxy address, if any
func (l *Lease) Proxy() string {
	return l.proxy
}

// AcquiredAt returns when the lease was granted
func (l *Lease) AcquiredAt() time.Time {
	return l.acquiredAt
}

// Release returns the account to the pool with the given outcome. Releasing
// a lease twice is an InvalidTransition error.
func (l *Lease) Release(outcome Outcome) error {
	return l.pool.Release(l, outcome)
}
