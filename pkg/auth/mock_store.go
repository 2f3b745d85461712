package auth

import (
	"sync"
)

// MockStore implements CredentialStore for testing purposes
type MockStore struct {
	entries map[string]*Credentials
	mu      sync.RWMutex

	// Error injection for testing
	StoreError    error
	RetrieveError error
	ListError     error
	DeleteError   error
}

// NewMockStore creates a new mock credential store
func NewMockStore() *MockStore {
	return &MockStore{
		entries: make(map[string]*Credentials),
	}
}

// Store saves credentials to the mock store
func (m *MockStore) Store(creds *Credentials) error {
	if m.StoreError != nil {
		return m.StoreError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if creds == nil || creds.Ref == "" {
		return ErrInvalidCredentials
	}

	cp := *creds
	m.entries[creds.Ref] = &cp

	return nil
}

// Retrieve gets credentials from the mock store
func (m *MockStore) Retrieve(ref string) (*Credentials, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if ref == "" {
		return nil, ErrInvalidCredentials
	}

	creds, exists := m.entries[ref]
	if !exists {
		return nil, ErrCredentialsNotFound
	}

	cp := *creds
	return &cp, nil
}

// List returns all stored credentials from the mock store
func (m *MockStore) List() ([]*Credentials, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Credentials
	for _, creds := range m.entries {
		cp := *creds
		result = append(result, &cp)
	}

	return result, nil
}

// Delete removes credentials from the mock store
func (m *MockStore) Delete(ref string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if ref == "" {
		return ErrInvalidCredentials
	}

	if _, exists := m.entries[ref]; !exists {
		return ErrCredentialsNotFound
	}

	delete(m.entries, ref)
	return nil
}

// Exists checks if credentials exist in the mock store
func (m *MockStore) Exists(ref string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.entries[ref]
	return exists
}

// Clear removes all credentials from the mock store
func (m *MockStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*Credentials)
}

// Count returns the number of entries in the mock store
func (m *MockStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// NewMockManager creates a Manager with a single mock store for testing
func NewMockManager() (*Manager, *MockStore) {
	mockStore := NewMockStore()
	return &Manager{stores: []CredentialStore{mockStore}}, mockStore
}

// NewMockManagerWithStores creates a Manager over the given stores for testing
func NewMockManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}
