package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCredentials(ref string) *Credentials {
	return &Credentials{
		Ref:      ref,
		Username: ref,
		Password: "s3cretpass",
	}
}

func TestManagerStoreValidation(t *testing.T) {
	manager, _ := NewMockManager()

	tests := []struct {
		name  string
		creds *Credentials
	}{
		{"nil credentials", nil},
		{"missing ref", &Credentials{Username: "user", Password: "pass"}},
		{"missing username", &Credentials{Ref: "user", Password: "pass"}},
		{"missing password", &Credentials{Ref: "user", Username: "user"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, manager.Store(tt.creds))
		})
	}
}

func TestManagerRoundTrip(t *testing.T) {
	manager, mock := NewMockManager()

	creds := testCredentials("alice")
	require.NoError(t, manager.Store(creds))
	assert.Equal(t, 1, mock.Count())
	assert.False(t, creds.LastModified.IsZero(), "store stamps the modification time")

	got, err := manager.Retrieve("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "s3cretpass", got.Password)

	assert.True(t, manager.Exists("alice"))
	assert.False(t, manager.Exists("bob"))

	require.NoError(t, manager.Delete("alice"))
	_, err = manager.Retrieve("alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestManagerFallbackOnStoreFailure(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = ErrStoreUnavailable
	working := NewMockStore()

	manager := NewMockManagerWithStores(broken, working)

	require.NoError(t, manager.Store(testCredentials("alice")))
	assert.Equal(t, 0, broken.Count())
	assert.Equal(t, 1, working.Count(), "the next store catches what the first rejects")
}

func TestManagerRetrieveFallsThrough(t *testing.T) {
	first := NewMockStore()
	second := NewMockStore()
	require.NoError(t, second.Store(testCredentials("alice")))

	manager := NewMockManagerWithStores(first, second)

	got, err := manager.Retrieve("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}

func TestManagerListPrefersNewest(t *testing.T) {
	first := NewMockStore()
	second := NewMockStore()

	older := testCredentials("alice")
	older.Password = "old"
	older.LastModified = time.Now().Add(-time.Hour)
	require.NoError(t, first.Store(older))

	newer := testCredentials("alice")
	newer.Password = "new"
	newer.LastModified = time.Now()
	require.NoError(t, second.Store(newer))

	manager := NewMockManagerWithStores(first, second)

	list, err := manager.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "new", list[0].Password)
}

func TestManagerDeleteNotFound(t *testing.T) {
	manager, _ := NewMockManager()

	err := manager.Delete("ghost")
	require.Error(t, err)
}

func TestSanitizeMasksSecrets(t *testing.T) {
	creds := &Credentials{
		Ref:      "alice",
		Username: "alice",
		Password: "supersecretpassword",
		Proxy:    "http://proxy:8080",
	}

	safe := Sanitize(creds)
	assert.Equal(t, "alice", safe.Username)
	assert.NotContains(t, safe.Password, "supersecret")
	assert.Equal(t, "http://proxy:8080", safe.Proxy)

	// Original untouched
	assert.Equal(t, "supersecretpassword", creds.Password)

	assert.Nil(t, Sanitize(nil))
}

func TestSanitizeShortPassword(t *testing.T) {
	safe := Sanitize(&Credentials{Ref: "a", Username: "a", Password: "abc"})
	assert.Equal(t, "********", safe.Password)
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv("IGCOLLECTOR_USERNAME", "envuser")
	t.Setenv("IGCOLLECTOR_PASSWORD", "envpass")

	store := NewEnvironmentStore()

	creds, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "envuser", creds.Username)
	assert.Equal(t, "envpass", creds.Password)

	creds, err = store.Retrieve("envuser")
	require.NoError(t, err)
	assert.Equal(t, "envuser", creds.Ref)

	_, err = store.Retrieve("someone-else")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	assert.True(t, store.Exists("envuser"))
	assert.ErrorIs(t, store.Store(creds), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("envuser"), ErrStoreUnavailable)
}

func TestEnvironmentStoreMissing(t *testing.T) {
	t.Setenv("IGCOLLECTOR_USERNAME", "")
	t.Setenv("IGCOLLECTOR_PASSWORD", "")

	store := NewEnvironmentStore()
	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	list, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEncryptedFileStore(t *testing.T) {
	t.Setenv("IGCOLLECTOR_PASSPHRASE", "test-passphrase")

	path := t.TempDir() + "/credentials.enc"
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	creds := testCredentials("alice")
	require.NoError(t, store.Store(creds))

	// Reopen to prove the data survives on disk
	reopened, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	got, err := reopened.Retrieve("alice")
	require.NoError(t, err)
	assert.Equal(t, "s3cretpass", got.Password)

	list, err := reopened.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, reopened.Delete("alice"))
	_, err = reopened.Retrieve("alice")
	assert.Error(t, err)
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	path := t.TempDir() + "/credentials.enc"

	t.Setenv("IGCOLLECTOR_PASSPHRASE", "right")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(testCredentials("alice")))

	t.Setenv("IGCOLLECTOR_PASSPHRASE", "wrong")
	badStore, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	_, err = badStore.Retrieve("alice")
	require.Error(t, err, "a wrong passphrase must not decrypt")
}

func TestEncryptRoundTrip(t *testing.T) {
	key := make([]byte, keySize)
	plaintext := []byte("attack at dawn")

	ciphertext, err := encrypt(plaintext, key)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)

	decrypted, err := decrypt(ciphertext, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)

	_, err = decrypt([]byte("short"), key)
	assert.Error(t, err)
}

func TestMockStoreErrorInjection(t *testing.T) {
	mock := NewMockStore()
	mock.RetrieveError = errors.New("boom")

	manager := NewMockManagerWithStores(mock)
	_, err := manager.Retrieve("alice")
	require.Error(t, err)
}
