package reader

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gotd/td/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.keys")
	ks := newKeyStore(path)
	require.NoError(t, ks.load())

	_, ok := ks.get(2)
	assert.False(t, ok)

	ks.set(2, []byte{0xAA, 0xBB})
	require.NoError(t, ks.save())

	reloaded := newKeyStore(path)
	require.NoError(t, reloaded.load())

	blob, ok := reloaded.get(2)
	require.True(t, ok)
	assert.Equal(t, []byte{0xAA, 0xBB}, blob)
}

func TestDCSessionStorageLoadsFromKeyStore(t *testing.T) {
	ks := newKeyStore(filepath.Join(t.TempDir(), "session.keys"))
	ks.set(4, []byte{1, 2, 3})

	storage := &dcSessionStorage{store: ks, dcID: 4}
	blob, err := storage.LoadSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, blob)

	other := &dcSessionStorage{store: ks, dcID: 5}
	blob, err = other.LoadSession(context.Background())
	require.ErrorIs(t, err, session.ErrNotFound)
	assert.Nil(t, blob)
}

func TestDCSessionStorageStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.keys")
	ks := newKeyStore(path)
	storage := &dcSessionStorage{store: ks, dcID: 1}

	require.NoError(t, storage.StoreSession(context.Background(), []byte{9, 9}))

	reloaded := newKeyStore(path)
	require.NoError(t, reloaded.load())
	blob, ok := reloaded.get(1)
	require.True(t, ok)
	assert.Equal(t, []byte{9, 9}, blob)
}
