package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment variables.
// It serves single-account setups and CI, where a keychain is unavailable.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(creds *Credentials) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables. The environment holds
// at most one account, returned for any ref that matches its username (or an
// empty ref).
func (e *EnvironmentStore) Retrieve(ref string) (*Credentials, error) {
	username := os.Getenv("IGCOLLECTOR_USERNAME")
	password := os.Getenv("IGCOLLECTOR_PASSWORD")

	if username == "" || password == "" {
		return nil, ErrCredentialsNotFound
	}
	if ref != "" && ref != username {
		return nil, ErrCredentialsNotFound
	}

	return &Credentials{
		Ref:          username,
		Username:     username,
		Password:     password,
		UserAgent:    os.Getenv("IGCOLLECTOR_USER_AGENT"),
		Proxy:        os.Getenv("IGCOLLECTOR_PROXY"),
		LastModified: time.Now(),
	}, nil
}

// List returns the single environment account if set
func (e *EnvironmentStore) List() ([]*Credentials, error) {
	creds, err := e.Retrieve("")
	if err != nil {
		return []*Credentials{}, nil
	}
	return []*Credentials{creds}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(ref string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist for the ref
func (e *EnvironmentStore) Exists(ref string) bool {
	_, err := e.Retrieve(ref)
	return err == nil
}
