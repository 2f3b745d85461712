package account

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"igcollector/pkg/logger"
)

// FileStore is a Store that persists every mutation to a JSON file, so the
// pool survives process restarts. Reads are served from memory; writes go
// through an atomic temp-file-then-rename replace.
type FileStore struct {
	mu     sync.Mutex
	path   string
	mem    *MemoryStore
	logger logger.Logger
}

// OpenFileStore opens (or creates) a file-backed account store at path
func OpenFileStore(path string, log logger.Logger) (*FileStore, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create pool directory: %w", err)
	}

	fs := &FileStore{
		path:   path,
		mem:    NewMemoryStore(),
		logger: log,
	}

	if err := fs.load(); err != nil {
		return nil, err
	}

	return fs, nil
}

// load reads the pool file into memory. A missing file is an empty pool.
func (f *FileStore) load() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read pool file: %w", err)
	}

	var accounts []*Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return fmt.Errorf("failed to parse pool file: %w", err)
	}

	for _, acc := range accounts {
		// A crash while a lease was held must not leak InUse across restarts
		if acc.State == StateInUse {
			acc.State = StateAvailable
		}
		if err := f.mem.Add(acc); err != nil {
			return fmt.Errorf("failed to load account %q: %w", acc.ID, err)
		}
	}

	f.logger.InfoWithFields("account pool loaded", map[string]interface{}{
		"path":     f.path,
		"accounts": f.mem.Len(),
	})

	return nil
}

// flush writes the current pool to disk atomically
func (f *FileStore) flush() error {
	accounts := f.mem.All()

	tempPath := f.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary pool file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(accounts); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode pool: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync pool file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close pool file: %w", err)
	}

	if err := os.Rename(tempPath, f.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace pool file: %w", err)
	}

	return nil
}

// Get returns a copy of the account with the given id
func (f *FileStore) Get(id string) (*Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mem.Get(id)
}

// ListEligible returns eligible accounts in least-recently-used order.
// Lazy cooldown-expiry transitions are persisted.
func (f *FileStore) ListEligible(now time.Time) []*Account {
	f.mu.Lock()
	defer f.mu.Unlock()

	before := f.coolingCount()
	eligible := f.mem.ListEligible(now)

	if f.coolingCount() != before {
		if err := f.flush(); err != nil {
			f.logger.WithError(err).Warn("failed to persist cooldown expiry")
		}
	}

	return eligible
}

// coolingCount counts accounts currently in cooldown; caller holds f.mu
func (f *FileStore) coolingCount() int {
	n := 0
	for _, acc := range f.mem.All() {
		if acc.State == StateCooldown {
			n++
		}
	}
	return n
}

// Save atomically replaces the stored record and persists the pool
func (f *FileStore) Save(acc *Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.mem.Save(acc); err != nil {
		return err
	}
	return f.flush()
}

// All returns copies of every account
func (f *FileStore) All() []*Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mem.All()
}

// Add registers a new account and persists the pool
func (f *FileStore) Add(acc *Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.mem.Add(acc); err != nil {
		return err
	}
	return f.flush()
}

// Remove deletes an account and persists the pool
func (f *FileStore) Remove(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.mem.Remove(id); err != nil {
		return err
	}
	return f.flush()
}

// Len returns the number of registered accounts
func (f *FileStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mem.Len()
}
