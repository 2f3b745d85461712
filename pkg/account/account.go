package account

import (
	"fmt"
	"time"
)

// State represents the lifecycle state of a pool account
type State string

const (
	StateAvailable   State = "available"
	StateInUse       State = "in_use"
	StateCooldown    State = "cooldown"
	StateQuarantined State = "quarantined"
	StateDisabled    State = "disabled"
)

// Valid reports whether s is a known state
func (s State) Valid() bool {
	switch s {
	case StateAvailable, StateInUse, StateCooldown, StateQuarantined, StateDisabled:
		return true
	}
	return false
}

// Account is the pool's record of one platform account. CredentialsRef is an
// opaque key into the credential store; the pool never sees or logs secrets.
type Account struct {
	ID             string    `json:"id"`
	CredentialsRef string    `json:"credentials_ref"`
	Proxy          string    `json:"proxy,omitempty"`
	State          State     `json:"state"`
	Health         float64   `json:"health"`
	LastUsedAt     time.Time `json:"last_used_at"`
	CooldownUntil  time.Time `json:"cooldown_until"`
	UsageCount     int       `json:"usage_count"`
	FailureCount   int       `json:"failure_count"`
	TotalUses      int       `json:"total_uses"`
	TotalFailures  int       `json:"total_failures"`
	CreatedAt      time.Time `json:"created_at"`
}

// MaxHealth is the ceiling of the health score
const MaxHealth = 100.0

// New creates a fresh account record in the Available state with full health
func New(id, credentialsRef string) *Account {
	return &Account{
		ID:             id,
		CredentialsRef: credentialsRef,
		State:          StateAvailable,
		Health:         MaxHealth,
		CreatedAt:      time.Now(),
	}
}

// Eligible reports whether the account may be selected for a task right now.
// Cooldown expiry is evaluated lazily by the store, so only Available counts.
func (a *Account) Eligible() bool {
	return a.State == StateAvailable
}

// CooldownExpired reports whether a cooling account's timer has passed
func (a *Account) CooldownExpired(now time.Time) bool {
	return a.State == StateCooldown && !a.CooldownUntil.After(now)
}

// EnterCooldown moves the account into Cooldown until the given time
func (a *Account) EnterCooldown(until time.Time) {
	a.State = StateCooldown
	a.CooldownUntil = until
}

// LeaveCooldown returns a cooled-down account to rotation. The per-window
// counters reset so the account starts its next window clean.
func (a *Account) LeaveCooldown() {
	a.State = StateAvailable
	a.CooldownUntil = time.Time{}
	a.UsageCount = 0
	a.FailureCount = 0
}

// Clone returns a deep copy of the account
func (a *Account) Clone() *Account {
	dup := *a
	return &dup
}

// Validate checks the record's internal invariants
func (a *Account) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("account id is required")
	}
	if a.CredentialsRef == "" {
		return fmt.Errorf("account %s: credentials reference is required", a.ID)
	}
	if !a.State.Valid() {
		return fmt.Errorf("account %s: unknown state %q", a.ID, a.State)
	}
	if a.Health < 0 || a.Health > MaxHealth {
		return fmt.Errorf("account %s: health %.1f out of range", a.ID, a.Health)
	}
	if !a.CooldownUntil.IsZero() && a.State != StateCooldown {
		return fmt.Errorf("account %s: cooldown timer set in state %q", a.ID, a.State)
	}
	if a.UsageCount < 0 || a.FailureCount < 0 {
		return fmt.Errorf("account %s: negative counters", a.ID)
	}
	return nil
}
