package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igcollector/pkg/account"
	"igcollector/pkg/auth"
	"igcollector/pkg/config"
	errs "igcollector/pkg/errors"
	"igcollector/pkg/logger"
	"igcollector/pkg/pool"
)

// stubCollector returns canned results or errors per call
type stubCollector struct {
	result *Result
	err    error
	calls  int

	// gotCreds records the credentials passed to Collect
	gotCreds *auth.Credentials
}

func (s *stubCollector) Collect(ctx context.Context, creds *auth.Credentials, req Request) (*Result, error) {
	s.calls++
	s.gotCreds = creds
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &Result{Username: req.Username}, nil
}

func testServiceConfig() *config.Config {
	return &config.Config{
		Pool: config.PoolConfig{
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
		},
		RateLimit: config.RateLimitConfig{
			RequestsPerMinute: 600,
		},
	}
}

func newTestService(t *testing.T, c Collector) (*Service, *pool.Pool, account.Store, *auth.MockStore) {
	t.Helper()

	cfg := testServiceConfig()
	store := account.NewMemoryStore()
	p := pool.New(store, cfg, logger.NewTestLogger())

	manager, mock := auth.NewMockManager()

	require.NoError(t, mock.Store(&auth.Credentials{
		Ref:      "cred-acc-1",
		Username: "worker1",
		Password: "pass1",
	}))
	require.NoError(t, p.AddAccount(account.New("acc-1", "cred-acc-1")))

	return NewService(p, manager, c, cfg, logger.NewTestLogger()), p, store, mock
}

func TestRunSuccess(t *testing.T) {
	stub := &stubCollector{}
	svc, _, store, _ := newTestService(t, stub)

	result, err := svc.Run(context.Background(), Request{Username: "target"})
	require.NoError(t, err)
	assert.Equal(t, "target", result.Username)
	assert.Equal(t, "acc-1", result.AccountID)
	assert.False(t, result.CollectedAt.IsZero())
	assert.Equal(t, 1, stub.calls)

	require.NotNil(t, stub.gotCreds)
	assert.Equal(t, "worker1", stub.gotCreds.Username, "the lease's ref resolves to the stored credentials")

	acc, err := store.Get("acc-1")
	require.NoError(t, err)
	assert.Equal(t, account.StateAvailable, acc.State, "the account returns to the pool")
	assert.Equal(t, 1, acc.UsageCount)
}

func TestRunRateLimitedOutcome(t *testing.T) {
	stub := &stubCollector{err: errs.New(errs.ErrorTypeRateLimit, "429")}
	svc, _, store, _ := newTestService(t, stub)

	_, err := svc.Run(context.Background(), Request{Username: "target"})
	require.Error(t, err)

	acc, getErr := store.Get("acc-1")
	require.NoError(t, getErr)
	assert.Equal(t, account.StateCooldown, acc.State, "a throttled collection cools the account down")
}

func TestRunAuthFailureOutcome(t *testing.T) {
	stub := &stubCollector{err: errs.New(errs.ErrorTypeAuth, "login rejected")}
	svc, _, store, _ := newTestService(t, stub)

	_, err := svc.Run(context.Background(), Request{Username: "target"})
	require.Error(t, err)

	acc, getErr := store.Get("acc-1")
	require.NoError(t, getErr)
	assert.Equal(t, 1, acc.FailureCount)
	assert.Less(t, acc.Health, account.MaxHealth)
	assert.NotEqual(t, account.StateInUse, acc.State, "the lease always comes back")
}

func TestRunMissingCredentials(t *testing.T) {
	stub := &stubCollector{}
	svc, _, store, mock := newTestService(t, stub)
	mock.Clear()

	_, err := svc.Run(context.Background(), Request{Username: "target"})
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeAuth, errs.TypeOf(err))
	assert.Equal(t, 0, stub.calls, "no collection without credentials")

	acc, getErr := store.Get("acc-1")
	require.NoError(t, getErr)
	assert.NotEqual(t, account.StateInUse, acc.State)
	assert.Equal(t, 1, acc.TotalFailures, "the failed resolution is charged to the account")
}

func TestRunPoolExhaustedPassesThrough(t *testing.T) {
	stub := &stubCollector{}
	svc, p, _, _ := newTestService(t, stub)

	lease, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer func() { _ = lease.Release(pool.Success()) }()

	_, err = svc.Run(context.Background(), Request{Username: "target"})
	require.Error(t, err)
	assert.True(t, errs.IsPoolExhausted(err), "exhaustion surfaces untouched for the caller's retry")
	assert.Equal(t, 0, stub.calls)
}

func TestRunContextCancelled(t *testing.T) {
	stub := &stubCollector{}
	svc, _, _, _ := newTestService(t, stub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Run(ctx, Request{Username: "target"})
	require.Error(t, err)
	assert.Equal(t, 0, stub.calls)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want pool.OutcomeKind
	}{
		{"rate limit", errs.New(errs.ErrorTypeRateLimit, ""), pool.OutcomeRateLimited},
		{"auth", errs.New(errs.ErrorTypeAuth, ""), pool.OutcomeAuthFailed},
		{"challenge", errs.New(errs.ErrorTypeChallenge, ""), pool.OutcomeChallenge},
		{"network", errs.New(errs.ErrorTypeNetwork, ""), pool.OutcomeNetworkError},
		{"server error", errs.New(errs.ErrorTypeServerError, ""), pool.OutcomeNetworkError},
		{"context canceled", context.Canceled, pool.OutcomeNetworkError},
		{"deadline exceeded", context.DeadlineExceeded, pool.OutcomeNetworkError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err).Kind)
		})
	}
}

func TestSimulatedCollector(t *testing.T) {
	sim := NewSimulated(0, 0)

	result, err := sim.Collect(context.Background(), nil, Request{
		Username:       "target",
		IncludeStories: true,
		IncludeFeed:    true,
		MaxFeedPosts:   2,
	})
	require.NoError(t, err)
	assert.Len(t, result.Stories, 3)
	assert.Len(t, result.FeedPosts, 2)
	assert.Equal(t, 5, result.ItemCount())
}

func TestSimulatedCollectorAlwaysFails(t *testing.T) {
	sim := NewSimulated(1.0, 0)
	sim.FailureKinds = []errs.ErrorType{errs.ErrorTypeChallenge}

	_, err := sim.Collect(context.Background(), nil, Request{Username: "target"})
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeChallenge, errs.TypeOf(err))
}
