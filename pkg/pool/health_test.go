package pool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igcollector/pkg/account"
	"igcollector/pkg/config"
	"igcollector/pkg/logger"
)

// testPoolConfig returns a policy with easy-to-reason-about numbers. Tests
// treat thresholds and penalties as parameters, never as fixed constants.
func testPoolConfig() *config.PoolConfig {
	return &config.PoolConfig{
		MaxAccounts:             10,
		CooldownDuration:        30 * time.Minute,
		DailyOperationLimit:     100,
		QuarantineThreshold:     20.0,
		ConsecutiveFailureLimit: 3,
		RecoveryStep:            1.0,
		PenaltyRateLimited:      5.0,
		PenaltyNetwork:          10.0,
		PenaltyChallenge:        15.0,
		PenaltyAuth:             25.0,
		HealthRecoveryEnabled:   false,
		RecoveryThreshold:       50.0,
	}
}

func TestRecordSuccess(t *testing.T) {
	cfg := testPoolConfig()
	tracker := NewTracker(cfg, logger.NewTestLogger())
	now := time.Now()

	acc := account.New("acc-1", "cred-1")
	acc.Health = 80
	acc.FailureCount = 2

	tracker.RecordSuccess(acc, now)

	assert.Equal(t, 81.0, acc.Health, "health nudges up by the recovery step")
	assert.Equal(t, 0, acc.FailureCount, "success clears the failure streak")
	assert.Equal(t, 1, acc.UsageCount)
	assert.Equal(t, 1, acc.TotalUses)
	assert.Equal(t, account.StateAvailable, acc.State)
}

func TestRecordSuccessHealthCapped(t *testing.T) {
	tracker := NewTracker(testPoolConfig(), logger.NewTestLogger())

	acc := account.New("acc-1", "cred-1")
	acc.Health = account.MaxHealth

	tracker.RecordSuccess(acc, time.Now())
	assert.Equal(t, account.MaxHealth, acc.Health, "health never exceeds the cap")
}

func TestRecordSuccessDailyLimit(t *testing.T) {
	cfg := testPoolConfig()
	cfg.DailyOperationLimit = 3
	tracker := NewTracker(cfg, logger.NewTestLogger())
	now := time.Now()

	acc := account.New("acc-1", "cred-1")
	tracker.RecordSuccess(acc, now)
	tracker.RecordSuccess(acc, now)
	assert.Equal(t, account.StateAvailable, acc.State)

	tracker.RecordSuccess(acc, now)
	assert.Equal(t, account.StateCooldown, acc.State, "hitting the operation limit cools the account down")
	assert.Equal(t, now.Add(cfg.CooldownDuration).Unix(), acc.CooldownUntil.Unix())
}

func TestRecordFailurePenaltiesAreWeighted(t *testing.T) {
	cfg := testPoolConfig()
	tracker := NewTracker(cfg, logger.NewTestLogger())
	now := time.Now()

	kinds := map[OutcomeKind]float64{
		OutcomeRateLimited:  cfg.PenaltyRateLimited,
		OutcomeNetworkError: cfg.PenaltyNetwork,
		OutcomeChallenge:    cfg.PenaltyChallenge,
		OutcomeAuthFailed:   cfg.PenaltyAuth,
	}

	for kind, penalty := range kinds {
		acc := account.New("acc-1", "cred-1")
		tracker.RecordFailure(acc, kind, now)
		assert.Equal(t, account.MaxHealth-penalty, acc.Health,
			"kind %s should cost %.1f", kind, penalty)
	}
}

func TestRecordFailureThrottledGoesToCooldown(t *testing.T) {
	cfg := testPoolConfig()
	tracker := NewTracker(cfg, logger.NewTestLogger())
	now := time.Now()

	acc := account.New("acc-1", "cred-1")
	tracker.RecordFailure(acc, OutcomeRateLimited, now)

	assert.Equal(t, account.StateCooldown, acc.State)
	assert.Equal(t, now.Add(cfg.CooldownDuration).Unix(), acc.CooldownUntil.Unix())
	assert.Equal(t, 1, acc.FailureCount)
	assert.Equal(t, 1, acc.TotalFailures)
}

func TestRecordFailureHardFailureStaysAvailable(t *testing.T) {
	tracker := NewTracker(testPoolConfig(), logger.NewTestLogger())

	acc := account.New("acc-1", "cred-1")
	acc.State = account.StateInUse
	tracker.RecordFailure(acc, OutcomeNetworkError, time.Now())

	assert.Equal(t, account.StateInUse, acc.State, "tracker leaves non-throttled state decisions alone below the limits")
}

func TestRecordFailureDailyLimit(t *testing.T) {
	cfg := testPoolConfig()
	cfg.DailyOperationLimit = 2
	tracker := NewTracker(cfg, logger.NewTestLogger())
	now := time.Now()

	acc := account.New("acc-1", "cred-1")
	acc.State = account.StateInUse
	tracker.RecordFailure(acc, OutcomeNetworkError, now)
	assert.Equal(t, account.StateInUse, acc.State)

	tracker.RecordFailure(acc, OutcomeNetworkError, now)
	assert.Equal(t, account.StateCooldown, acc.State, "the operation limit counts failed uses too")
	assert.Equal(t, now.Add(cfg.CooldownDuration).Unix(), acc.CooldownUntil.Unix())
	assert.Equal(t, 2, acc.UsageCount)
}

func TestRecordFailureQuarantineOnHealthThreshold(t *testing.T) {
	cfg := testPoolConfig()
	tracker := NewTracker(cfg, logger.NewTestLogger())

	acc := account.New("acc-1", "cred-1")
	acc.Health = cfg.QuarantineThreshold + cfg.PenaltyAuth - 1

	tracker.RecordFailure(acc, OutcomeAuthFailed, time.Now())

	assert.Equal(t, account.StateQuarantined, acc.State,
		"dropping below the health threshold forces quarantine")
	assert.True(t, acc.CooldownUntil.IsZero())
}

func TestRecordFailureQuarantineOnConsecutiveLimit(t *testing.T) {
	cfg := testPoolConfig()
	cfg.ConsecutiveFailureLimit = 2
	tracker := NewTracker(cfg, logger.NewTestLogger())
	now := time.Now()

	acc := account.New("acc-1", "cred-1")

	tracker.RecordFailure(acc, OutcomeNetworkError, now)
	tracker.RecordFailure(acc, OutcomeNetworkError, now)
	require.NotEqual(t, account.StateQuarantined, acc.State)

	tracker.RecordFailure(acc, OutcomeNetworkError, now)
	assert.Equal(t, account.StateQuarantined, acc.State,
		"exceeding the consecutive failure limit deterministically quarantines")
}

func TestRecordFailureThrottledBelowThresholdQuarantines(t *testing.T) {
	cfg := testPoolConfig()
	tracker := NewTracker(cfg, logger.NewTestLogger())

	acc := account.New("acc-1", "cred-1")
	acc.Health = cfg.QuarantineThreshold + 1

	tracker.RecordFailure(acc, OutcomeRateLimited, time.Now())

	assert.Equal(t, account.StateQuarantined, acc.State,
		"the health floor wins over the soft cooldown path")
}

func TestHealthNeverNegative(t *testing.T) {
	tracker := NewTracker(testPoolConfig(), logger.NewTestLogger())

	acc := account.New("acc-1", "cred-1")
	acc.Health = 3

	tracker.RecordFailure(acc, OutcomeAuthFailed, time.Now())
	assert.Equal(t, 0.0, acc.Health)
}

func TestRecoverQuarantined(t *testing.T) {
	cfg := testPoolConfig()
	cfg.HealthRecoveryEnabled = true
	tracker := NewTracker(cfg, logger.NewTestLogger())

	acc := account.New("acc-1", "cred-1")
	acc.State = account.StateQuarantined
	acc.Health = cfg.RecoveryThreshold

	assert.True(t, tracker.RecoverQuarantined(acc))
	assert.Equal(t, account.StateAvailable, acc.State)
	assert.Equal(t, 0, acc.FailureCount)
}

func TestRecoverQuarantinedDisabledOrUnhealthy(t *testing.T) {
	cfg := testPoolConfig()
	tracker := NewTracker(cfg, logger.NewTestLogger())

	acc := account.New("acc-1", "cred-1")
	acc.State = account.StateQuarantined
	acc.Health = 90

	assert.False(t, tracker.RecoverQuarantined(acc), "recovery rule off by default")

	cfg.HealthRecoveryEnabled = true
	acc.Health = cfg.RecoveryThreshold - 1
	assert.False(t, tracker.RecoverQuarantined(acc), "not healed enough")
	assert.Equal(t, account.StateQuarantined, acc.State)
}
