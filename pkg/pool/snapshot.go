package pool

import (
	"time"

	"igcollector/pkg/account"
)

// Snapshot is a derived, read-only view of the pool at one instant. It is
// regenerated on demand and never persisted as authoritative state.
type Snapshot struct {
	TakenAt time.Time `json:"taken_at"`

	Total       int `json:"total"`
	Available   int `json:"available"`
	InUse       int `json:"in_use"`
	Cooldown    int `json:"cooldown"`
	Quarantined int `json:"quarantined"`
	Disabled    int `json:"disabled"`

	// EligibleNow counts accounts selectable at TakenAt, including cooling
	// accounts whose timer has already passed
	EligibleNow int `json:"eligible_now"`

	AverageHealth  float64   `json:"average_health"`
	OldestUse      time.Time `json:"oldest_use,omitempty"`
	MostRecentUse  time.Time `json:"most_recent_use,omitempty"`
	UsesThisWindow int       `json:"uses_this_window"`
}

// CountFor returns the snapshot's count for one state
func (s Snapshot) CountFor(st account.State) int {
	switch st {
	case account.StateAvailable:
		return s.Available
	case account.StateInUse:
		return s.InUse
	case account.StateCooldown:
		return s.Cooldown
	case account.StateQuarantined:
		return s.Quarantined
	case account.StateDisabled:
		return s.Disabled
	}
	return 0
}

// buildSnapshot aggregates account records into a snapshot
func buildSnapshot(accounts []*account.Account, now time.Time) Snapshot {
	snap := Snapshot{
		TakenAt: now,
		Total:   len(accounts),
	}

	var healthSum float64
	for _, acc := range accounts {
		switch acc.State {
		case account.StateAvailable:
			snap.Available++
			snap.EligibleNow++
		case account.StateInUse:
			snap.InUse++
		case account.StateCooldown:
			snap.Cooldown++
			if acc.CooldownExpired(now) {
				snap.EligibleNow++
			}
		case account.StateQuarantined:
			snap.Quarantined++
		case account.StateDisabled:
			snap.Disabled++
		}

		healthSum += acc.Health
		snap.UsesThisWindow += acc.UsageCount

		if !acc.LastUsedAt.IsZero() {
			if snap.OldestUse.IsZero() || acc.LastUsedAt.Before(snap.OldestUse) {
				snap.OldestUse = acc.LastUsedAt
			}
			if acc.LastUsedAt.After(snap.MostRecentUse) {
				snap.MostRecentUse = acc.LastUsedAt
			}
		}
	}

	if len(accounts) > 0 {
		snap.AverageHealth = healthSum / float64(len(accounts))
	}

	return snap
}
