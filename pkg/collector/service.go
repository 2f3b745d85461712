package collector

import (
	"context"
	"errors"
	"time"

	"igcollector/pkg/auth"
	"igcollector/pkg/config"
	errs "igcollector/pkg/errors"
	"igcollector/pkg/logger"
	"igcollector/pkg/pool"
	"igcollector/pkg/ratelimit"
)

// CredentialResolver resolves an opaque credentials ref to secret material
type CredentialResolver interface {
	Retrieve(ref string) (*auth.Credentials, error)
}

// Service runs collection tasks against the account pool. For each task it
// leases an account, resolves its credentials, runs the collector, and
// returns the lease with the task's outcome. The lease comes back on every
// exit path, including panics unwinding through the collector.
type Service struct {
	pool      *pool.Pool
	creds     CredentialResolver
	collector Collector
	limiter   ratelimit.Limiter
	cfg       *config.Config
	logger    logger.Logger
}

// NewService creates a collection service
func NewService(p *pool.Pool, creds CredentialResolver, c Collector, cfg *config.Config, log logger.Logger) *Service {
	if log == nil {
		log = logger.GetLogger()
	}

	rpm := cfg.RateLimit.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	return &Service{
		pool:      p,
		creds:     creds,
		collector: c,
		limiter:   ratelimit.NewTokenBucket(rpm, time.Minute),
		cfg:       cfg,
		logger:    log,
	}
}

// WithLimiter replaces the service-wide request limiter
func (s *Service) WithLimiter(l ratelimit.Limiter) *Service {
	s.limiter = l
	return s
}

// Run executes one collection task. Errors from Acquire pass through
// unchanged so callers can retry on pool exhaustion.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	lease, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	outcome := pool.Failure(pool.OutcomeNetworkError, nil)
	defer func() {
		if err := lease.Release(outcome); err != nil {
			s.logger.WithError(err).WithField("account_id", lease.AccountID()).
				Error("failed to release account")
		}
	}()

	creds, err := s.creds.Retrieve(lease.CredentialsRef())
	if err != nil {
		// Missing secret material counts as an auth failure
		outcome = pool.Failure(pool.OutcomeAuthFailed, err)
		return nil, errs.Wrap(errs.ErrorTypeAuth, "failed to resolve credentials", err)
	}

	runCtx := ctx
	if s.cfg != nil && s.cfg.Collector.CollectTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.Collector.CollectTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := s.collector.Collect(runCtx, creds, req)
	if err != nil {
		outcome = classify(err)
		s.logger.WarnWithFields("collection failed", map[string]interface{}{
			"target":     req.Username,
			"account_id": lease.AccountID(),
			"outcome":    string(outcome.Kind),
			"error":      err.Error(),
		})
		return nil, err
	}

	outcome = pool.Success()
	result.AccountID = lease.AccountID()
	result.Elapsed = time.Since(start)
	if result.CollectedAt.IsZero() {
		result.CollectedAt = time.Now()
	}

	s.logger.InfoWithFields("collection completed", map[string]interface{}{
		"target":     req.Username,
		"account_id": lease.AccountID(),
		"items":      result.ItemCount(),
		"elapsed_ms": result.Elapsed.Milliseconds(),
	})

	return result, nil
}

// classify maps a collector error to the outcome reported to the pool
func classify(err error) pool.Outcome {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return pool.Failure(pool.OutcomeNetworkError, err)
	}

	switch errs.TypeOf(err) {
	case errs.ErrorTypeRateLimit:
		return pool.Failure(pool.OutcomeRateLimited, err)
	case errs.ErrorTypeAuth:
		return pool.Failure(pool.OutcomeAuthFailed, err)
	case errs.ErrorTypeChallenge:
		return pool.Failure(pool.OutcomeChallenge, err)
	default:
		return pool.Failure(pool.OutcomeNetworkError, err)
	}
}
