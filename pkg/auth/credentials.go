package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Credentials holds the secret material behind one pool account. Pool records
// carry only an opaque reference; the plaintext lives here and is resolved at
// collection time.
type Credentials struct {
	// Ref is the opaque key pool accounts point at
	Ref          string    `json:"ref"`
	Username     string    `json:"username"`
	Password     string    `json:"password"`
	UserAgent    string    `json:"user_agent,omitempty"`
	Proxy        string    `json:"proxy,omitempty"`
	SessionFile  string    `json:"session_file,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves credentials under their ref
	Store(creds *Credentials) error

	// Retrieve gets the credentials for a ref
	Retrieve(ref string) (*Credentials, error)

	// List returns all stored credentials
	List() ([]*Credentials, error)

	// Delete removes the credentials for a ref
	Delete(ref string) error

	// Exists checks if credentials exist for a ref
	Exists(ref string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager with the available storage
// backends: the system keychain when reachable, an encrypted file always,
// and environment variables as the last resort.
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// Store saves credentials using the first store that accepts them
func (m *Manager) Store(creds *Credentials) error {
	if creds == nil || creds.Ref == "" {
		return errors.New("credentials ref is required")
	}
	if creds.Username == "" {
		return errors.New("username is required")
	}
	if creds.Password == "" {
		return errors.New("password is required")
	}

	creds.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(creds); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(ref string) (*Credentials, error) {
	for _, store := range m.stores {
		if creds, err := store.Retrieve(ref); err == nil && creds != nil {
			return creds, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, ref)
}

// List returns all stored credentials across stores, deduplicated by ref with
// the most recently modified version winning
func (m *Manager) List() ([]*Credentials, error) {
	byRef := make(map[string]*Credentials)

	for _, store := range m.stores {
		entries, err := store.List()
		if err != nil {
			continue
		}
		for _, creds := range entries {
			if existing, ok := byRef[creds.Ref]; !ok || creds.LastModified.After(existing.LastModified) {
				byRef[creds.Ref] = creds
			}
		}
	}

	var result []*Credentials
	for _, creds := range byRef {
		result = append(result, creds)
	}

	return result, nil
}

// Delete removes the credentials for a ref from all stores
func (m *Manager) Delete(ref string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(ref); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrCredentialsNotFound, ref)
	}

	return nil
}

// Exists checks whether any store holds credentials for the ref
func (m *Manager) Exists(ref string) bool {
	for _, store := range m.stores {
		if store.Exists(ref) {
			return true
		}
	}
	return false
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "igcollector")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "igcollector")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "igcollector")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "igcollector")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// Sanitize creates a copy with the secret material masked, safe for display
func Sanitize(creds *Credentials) *Credentials {
	if creds == nil {
		return nil
	}

	return &Credentials{
		Ref:          creds.Ref,
		Username:     creds.Username,
		Password:     maskString(creds.Password),
		UserAgent:    creds.UserAgent,
		Proxy:        creds.Proxy,
		SessionFile:  creds.SessionFile,
		LastModified: creds.LastModified,
	}
}

// maskString masks all but the first and last character of a string
func maskString(s string) string {
	if len(s) <= 4 {
		return "********"
	}
	return s[:1] + "******" + s[len(s)-1:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
