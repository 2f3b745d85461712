package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Pacer enforces a randomized minimum gap between consecutive uses of the
// same account. The gap is drawn uniformly from [min, max] and measured
// against the account's last-use timestamp, so the pacer itself holds no
// per-account state. It only delays; it never retries.
type Pacer struct {
	min time.Duration
	max time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPacer creates a pacer with the given delay window. The window is
// normalized so max is never below min.
func NewPacer(min, max time.Duration) *Pacer {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	return &Pacer{
		min: min,
		max: max,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Delay returns how long a task must wait before reusing an account that was
// last used at lastUsed. A zero lastUsed means the account has never acted
// and may proceed immediately.
func (p *Pacer) Delay(lastUsed, now time.Time) time.Duration {
	if lastUsed.IsZero() {
		return 0
	}

	gap := p.randomGap()
	wait := lastUsed.Add(gap).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

// Await blocks until the account may act again or ctx is done. The wait is
// bounded by the configured delay window.
func (p *Pacer) Await(ctx context.Context, lastUsed time.Time) error {
	wait := p.Delay(lastUsed, time.Now())
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Window returns the configured [min, max] delay interval
func (p *Pacer) Window() (time.Duration, time.Duration) {
	return p.min, p.max
}

func (p *Pacer) randomGap() time.Duration {
	if p.max == p.min {
		return p.min
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.min + time.Duration(p.rng.Int63n(int64(p.max-p.min)+1))
}
