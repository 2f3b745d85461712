package pool

import (
	"context"
	"errors"
	"sync"
	"time"

	"igcollector/pkg/account"
	"igcollector/pkg/config"
	errs "igcollector/pkg/errors"
	"igcollector/pkg/logger"
	"igcollector/pkg/ratelimit"
)

// Pool coordinates exclusive, paced access to a shared set of accounts.
// Selection and state transitions are serialized under one mutex; the
// randomized pacing wait happens outside it so acquiring one account never
// blocks acquisition of another.
type Pool struct {
	mu      sync.Mutex
	store   account.Store
	tracker *Tracker
	pacer   *ratelimit.Pacer
	cfg     *config.Config
	logger  logger.Logger

	// inflight caps concurrent leases pool-wide; nil means no ceiling
	inflight chan struct{}

	// leases maps account id to its currently live lease
	leases map[string]*Lease
}

// New creates a pool over the given account store
func New(store account.Store, cfg *config.Config, log logger.Logger) *Pool {
	if log == nil {
		log = logger.GetLogger()
	}

	p := &Pool{
		store:   store,
		tracker: NewTracker(&cfg.Pool, log),
		pacer:   ratelimit.NewPacer(cfg.RateLimit.DelayMin, cfg.RateLimit.DelayMax),
		cfg:     cfg,
		logger:  log,
		leases:  make(map[string]*Lease),
	}

	if cfg.RateLimit.MaxConcurrent > 0 {
		p.inflight = make(chan struct{}, cfg.RateLimit.MaxConcurrent)
	}

	return p
}

// Acquire leases an eligible account for exclusive use. It fails fast with a
// pool_exhausted error when no account is eligible; callers own the retry
// policy. The only wait inside Acquire is the bounded pacing delay, which
// respects ctx cancellation.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if p.inflight != nil {
		select {
		case p.inflight <- struct{}{}:
		default:
			return nil, errs.New(errs.ErrorTypePoolExhausted, "concurrent lease ceiling reached")
		}
	}

	lease, prevUsed, err := p.selectAccount(time.Now())
	if err != nil {
		p.releaseSlot()
		return nil, err
	}

	// Pace against the account's previous use, outside the pool lock
	if err := p.pacer.Await(ctx, prevUsed); err != nil {
		revertErr := p.unlease(lease, prevUsed)
		p.releaseSlot()
		return nil, errors.Join(err, revertErr)
	}

	p.logger.DebugWithFields("account leased", map[string]interface{}{
		"account_id": lease.accountID,
	})

	return lease, nil
}

// selectAccount runs the atomic pick-and-transition step
func (p *Pool) selectAccount(now time.Time) (*Lease, time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	eligible := p.store.ListEligible(now)
	if len(eligible) == 0 {
		return nil, time.Time{}, errs.New(errs.ErrorTypePoolExhausted, "no eligible accounts in pool")
	}

	pick := eligible[0]
	prevUsed := pick.LastUsedAt

	pick.State = account.StateInUse
	pick.LastUsedAt = now
	if err := p.store.Save(pick); err != nil {
		return nil, time.Time{}, err
	}

	lease := &Lease{
		accountID:      pick.ID,
		credentialsRef: pick.CredentialsRef,
		proxy:          pick.Proxy,
		acquiredAt:     now,
		pool:           p,
	}
	p.leases[pick.ID] = lease

	return lease, prevUsed, nil
}

// unlease reverts a lease whose pacing wait was cancelled before the task
// ever used the account. A failed revert leaves the account stuck in InUse
// until the leaked-lease cleanup on the next open, so the error goes back to
// the caller instead of being swallowed.
func (p *Pool) unlease(lease *Lease, prevUsed time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.leases, lease.accountID)

	acc, err := p.store.Get(lease.accountID)
	if err != nil {
		p.logger.WithError(err).Error("failed to revert cancelled lease")
		return err
	}

	acc.State = account.StateAvailable
	acc.LastUsedAt = prevUsed
	if err := p.store.Save(acc); err != nil {
		p.logger.WithError(err).Error("failed to revert cancelled lease")
		return err
	}

	return nil
}

// Release returns a leased account to the pool with the task's outcome. The
// tracker decides the next state; unless it moved the account into cooldown
// or quarantine, the account becomes Available again. Store write failures
// are surfaced rather than swallowed: losing the update could leave the
// account stuck or double-leased.
func (p *Pool) Release(lease *Lease, outcome Outcome) error {
	if lease == nil {
		return errs.New(errs.ErrorTypeInvalidTransition, "nil lease")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	held, ok := p.leases[lease.accountID]
	if !ok || held != lease {
		// A rejected release must not free a slot another lease holds
		return errs.Newf(errs.ErrorTypeInvalidTransition,
			"lease for account %q is not currently held", lease.accountID)
	}
	delete(p.leases, lease.accountID)
	defer p.releaseSlot()

	acc, err := p.store.Get(lease.accountID)
	if err != nil {
		return err
	}
	if acc.State != account.StateInUse {
		return errs.Newf(errs.ErrorTypeInvalidTransition,
			"account %q is %s, not in_use", acc.ID, acc.State)
	}

	now := time.Now()
	if outcome.Kind == OutcomeSuccess {
		p.tracker.RecordSuccess(acc, now)
	} else {
		p.tracker.RecordFailure(acc, outcome.Kind, now)
	}

	if acc.State == account.StateInUse {
		acc.State = account.StateAvailable
	}

	if err := p.store.Save(acc); err != nil {
		return err
	}

	p.logger.DebugWithFields("account released", map[string]interface{}{
		"account_id": acc.ID,
		"outcome":    string(outcome.Kind),
		"state":      string(acc.State),
		"health":     acc.Health,
	})

	return nil
}

// releaseSlot frees one slot of the concurrency ceiling
func (p *Pool) releaseSlot() {
	if p.inflight != nil {
		select {
		case <-p.inflight:
		default:
		}
	}
}

// Reset is the administrative exit from quarantine (or cooldown): the
// account returns to rotation with cleared window counters. Health is
// floored at the quarantine threshold so the reset is not undone by the
// very next failure.
func (p *Pool) Reset(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	acc, err := p.store.Get(id)
	if err != nil {
		return err
	}
	if acc.State == account.StateInUse {
		return errs.Newf(errs.ErrorTypeInvalidTransition,
			"account %q is leased and cannot be reset", id)
	}

	acc.State = account.StateAvailable
	acc.CooldownUntil = time.Time{}
	acc.UsageCount = 0
	acc.FailureCount = 0
	acc.LastUsedAt = time.Time{}
	if acc.Health < p.cfg.Pool.QuarantineThreshold {
		acc.Health = p.cfg.Pool.QuarantineThreshold
	}

	if err := p.store.Save(acc); err != nil {
		return err
	}

	p.logger.InfoWithFields("account reset", map[string]interface{}{
		"account_id": id,
	})

	return nil
}

// Disable takes an account out of rotation until an explicit Reset
func (p *Pool) Disable(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	acc, err := p.store.Get(id)
	if err != nil {
		return err
	}
	if acc.State == account.StateInUse {
		return errs.Newf(errs.ErrorTypeInvalidTransition,
			"account %q is leased and cannot be disabled", id)
	}

	acc.State = account.StateDisabled
	acc.CooldownUntil = time.Time{}

	return p.store.Save(acc)
}

// AddAccount registers a new account with the pool
func (p *Pool) AddAccount(acc *account.Account) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.store.Len() >= p.cfg.Pool.MaxAccounts {
		return errs.Newf(errs.ErrorTypeInvalidTransition,
			"pool is full (%d accounts)", p.cfg.Pool.MaxAccounts)
	}

	return p.store.Add(acc)
}

// RemoveAccount deletes an account from the pool. Leased accounts cannot be
// removed; disable them first and remove after the lease returns.
func (p *Pool) RemoveAccount(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, leased := p.leases[id]; leased {
		return errs.Newf(errs.ErrorTypeInvalidTransition,
			"account %q is leased and cannot be removed", id)
	}

	return p.store.Remove(id)
}

// Recover runs a maintenance sweep: expired cooldowns return to rotation and,
// when the slow recovery rule is enabled, quarantined accounts that healed
// past the recovery threshold come back too. Returns the number of accounts
// returned to rotation.
func (p *Pool) Recover(now time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	recovered := 0
	for _, acc := range p.store.All() {
		switch {
		case acc.CooldownExpired(now):
			acc.LeaveCooldown()
		case acc.State == account.StateQuarantined && p.tracker.RecoverQuarantined(acc):
			// tracker already mutated the record
		default:
			continue
		}

		if err := p.store.Save(acc); err != nil {
			p.logger.WithError(err).WithField("account_id", acc.ID).
				Error("failed to persist recovery")
			continue
		}
		recovered++
	}

	return recovered
}

// Snapshot returns a point-in-time, read-only view of the pool. It reads a
// consistent state under the pool lock and has no side effects.
func (p *Pool) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	return buildSnapshot(p.store.All(), time.Now())
}
