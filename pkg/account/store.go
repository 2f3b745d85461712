package account

import (
	"sort"
	"sync"
	"time"

	errs "igcollector/pkg/errors"
)

// Store holds account records. Implementations must make Save an atomic
// replace by id and must evaluate cooldown expiry lazily inside ListEligible.
type Store interface {
	// Get returns a copy of the account with the given id
	Get(id string) (*Account, error)

	// ListEligible returns copies of all accounts currently eligible for
	// selection, ordered by ascending LastUsedAt then ascending UsageCount.
	// Accounts whose cooldown has expired are returned to rotation first.
	ListEligible(now time.Time) []*Account

	// Save atomically replaces the stored record with the same id
	Save(acc *Account) error

	// All returns copies of every account in the store
	All() []*Account

	// Add registers a new account; fails if the id already exists
	Add(acc *Account) error

	// Remove deletes the account with the given id
	Remove(id string) error

	// Len returns the number of registered accounts
	Len() int
}

// MemoryStore is an in-memory Store implementation guarded by a mutex
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]*Account
}

// NewMemoryStore creates an empty in-memory account store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*Account),
	}
}

// Get returns a copy of the account with the given id
func (s *MemoryStore) Get(id string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, errs.Newf(errs.ErrorTypeNotFound, "account %q not registered", id)
	}
	return acc.Clone(), nil
}

// ListEligible returns eligible accounts in least-recently-used order
func (s *MemoryStore) ListEligible(now time.Time) []*Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	var eligible []*Account
	for _, acc := range s.accounts {
		if acc.CooldownExpired(now) {
			acc.LeaveCooldown()
		}
		if acc.Eligible() {
			eligible = append(eligible, acc.Clone())
		}
	}

	sortEligible(eligible)
	return eligible
}

// Save atomically replaces the stored record with the same id
func (s *MemoryStore) Save(acc *Account) error {
	if err := acc.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[acc.ID]; !ok {
		return errs.Newf(errs.ErrorTypeNotFound, "account %q not registered", acc.ID)
	}
	s.accounts[acc.ID] = acc.Clone()
	return nil
}

// All returns copies of every account, ordered by id for determinism
func (s *MemoryStore) All() []*Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, acc.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Add registers a new account
func (s *MemoryStore) Add(acc *Account) error {
	if err := acc.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[acc.ID]; ok {
		return errs.Newf(errs.ErrorTypeInvalidTransition, "account %q already registered", acc.ID)
	}
	s.accounts[acc.ID] = acc.Clone()
	return nil
}

// Remove deletes the account with the given id
func (s *MemoryStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return errs.Newf(errs.ErrorTypeNotFound, "account %q not registered", id)
	}
	delete(s.accounts, id)
	return nil
}

// Len returns the number of registered accounts
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

// sortEligible orders accounts by ascending LastUsedAt (never-used first),
// breaking ties by lowest UsageCount, then by id for determinism.
func sortEligible(accounts []*Account) {
	sort.Slice(accounts, func(i, j int) bool {
		a, b := accounts[i], accounts[j]
		if !a.LastUsedAt.Equal(b.LastUsedAt) {
			return a.LastUsedAt.Before(b.LastUsedAt)
		}
		if a.UsageCount != b.UsageCount {
			return a.UsageCount < b.UsageCount
		}
		return a.ID < b.ID
	})
}
