package pool

import (
	"time"

	"igcollector/pkg/account"
	"igcollector/pkg/config"
	"igcollector/pkg/logger"
)

// Tracker centralizes all health mutation. Transition rules live here and
// nowhere else: the scheduler reports outcomes, the tracker decides what the
// account's next state is.
type Tracker struct {
	cfg    *config.PoolConfig
	logger logger.Logger
}

// NewTracker creates a health tracker with the given policy
func NewTracker(cfg *config.PoolConfig, log logger.Logger) *Tracker {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Tracker{cfg: cfg, logger: log}
}

// RecordSuccess nudges health upward and clears the consecutive-failure
// streak. The daily operation ceiling still applies: an account that hits it
// goes into cooldown even on a success.
func (t *Tracker) RecordSuccess(acc *account.Account, now time.Time) {
	acc.UsageCount++
	acc.TotalUses++
	acc.FailureCount = 0

	acc.Health += t.cfg.RecoveryStep
	if acc.Health > account.MaxHealth {
		acc.Health = account.MaxHealth
	}

	if acc.UsageCount >= t.cfg.DailyOperationLimit {
		acc.EnterCooldown(now.Add(t.cfg.CooldownDuration))
		t.logger.InfoWithFields("account entered cooldown, operation limit reached", map[string]interface{}{
			"account_id":  acc.ID,
			"usage_count": acc.UsageCount,
		})
	}
}

// RecordFailure applies a severity-weighted health penalty and decides the
// account's next state. Hard failures isolate the account in quarantine;
// soft throttling sends it into a self-clearing cooldown.
func (t *Tracker) RecordFailure(acc *account.Account, kind OutcomeKind, now time.Time) {
	acc.UsageCount++
	acc.TotalUses++
	acc.FailureCount++
	acc.TotalFailures++

	acc.Health -= t.penalty(kind)
	if acc.Health < 0 {
		acc.Health = 0
	}

	switch {
	case acc.Health < t.cfg.QuarantineThreshold:
		t.quarantine(acc, "health below threshold")
	case acc.FailureCount > t.cfg.ConsecutiveFailureLimit:
		t.quarantine(acc, "consecutive failure limit exceeded")
	case kind.Throttled():
		acc.EnterCooldown(now.Add(t.cfg.CooldownDuration))
		t.logger.WarnWithFields("account entered cooldown after throttling", map[string]interface{}{
			"account_id":     acc.ID,
			"cooldown_until": acc.CooldownUntil,
			"health":         acc.Health,
		})
	case acc.UsageCount >= t.cfg.DailyOperationLimit:
		// The operation ceiling counts failures too
		acc.EnterCooldown(now.Add(t.cfg.CooldownDuration))
		t.logger.InfoWithFields("account entered cooldown, operation limit reached", map[string]interface{}{
			"account_id":  acc.ID,
			"usage_count": acc.UsageCount,
		})
	}
}

// RecoverQuarantined returns a quarantined account to rotation when the slow
// recovery rule is enabled and its health has climbed back far enough.
// Returns true if the account was recovered.
func (t *Tracker) RecoverQuarantined(acc *account.Account) bool {
	if !t.cfg.HealthRecoveryEnabled {
		return false
	}
	if acc.State != account.StateQuarantined {
		return false
	}
	if acc.Health < t.cfg.RecoveryThreshold {
		return false
	}

	acc.State = account.StateAvailable
	acc.FailureCount = 0
	t.logger.InfoWithFields("quarantined account recovered", map[string]interface{}{
		"account_id": acc.ID,
		"health":     acc.Health,
	})
	return true
}

func (t *Tracker) quarantine(acc *account.Account, reason string) {
	acc.State = account.StateQuarantined
	acc.CooldownUntil = time.Time{}
	t.logger.WarnWithFields("account quarantined", map[string]interface{}{
		"account_id":    acc.ID,
		"health":        acc.Health,
		"failure_count": acc.FailureCount,
		"reason":        reason,
	})
}

// penalty returns the health cost of a failure kind. Soft rate limiting is
// the cheapest; authentication failures cost the most.
func (t *Tracker) penalty(kind OutcomeKind) float64 {
	switch kind {
	case OutcomeRateLimited:
		return t.cfg.PenaltyRateLimited
	case OutcomeNetworkError:
		return t.cfg.PenaltyNetwork
	case OutcomeChallenge:
		return t.cfg.PenaltyChallenge
	case OutcomeAuthFailed:
		return t.cfg.PenaltyAuth
	default:
		return t.cfg.PenaltyNetwork
	}
}
