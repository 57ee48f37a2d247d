package reader

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"sync"

	"github.com/gotd/td/session"
)

// keyStore persists the multi-DC session blobs described in spec §3 ("a
// mapping {dc_id → auth_key_bytes}") and §6 ("${session_name}.keys"). A
// single flat gob file stands in for the original's pickle.dump/pickle.load
// — both are a process restart's entire durability story for a local,
// single-tenant file.
type keyStore struct {
	mu   sync.Mutex
	path string
	data map[int][]byte
}

func newKeyStore(path string) *keyStore {
	return &keyStore{path: path, data: make(map[int][]byte)}
}

// load reads the persisted keymap if the file exists; a missing file is not
// an error, it simply means every DC starts Unknown.
func (k *keyStore) load() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	f, err := os.Open(k.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reader: keystore open %s: %w", k.path, err)
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(&k.data); err != nil {
		return fmt.Errorf("reader: keystore decode %s: %w", k.path, err)
	}
	return nil
}

// save persists the full keymap. Called from dcSessionStorage.StoreSession
// each time a DC's client stores its session data.
func (k *keyStore) save() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(k.data); err != nil {
		return fmt.Errorf("reader: keystore encode: %w", err)
	}
	return os.WriteFile(k.path, buf.Bytes(), 0o600)
}

func (k *keyStore) get(dcID int) ([]byte, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	b, ok := k.data[dcID]
	return b, ok
}

func (k *keyStore) set(dcID int, blob []byte) {
	k.mu.Lock()
	k.data[dcID] = blob
	k.mu.Unlock()
}

// dcSessionStorage adapts a single DC's slot in keyStore to gotd/td's
// session.Storage interface, so each per-DC telegram.Client persists
// through the same flat file instead of one file per DC.
type dcSessionStorage struct {
	store *keyStore
	dcID  int
}

func (s *dcSessionStorage) LoadSession(ctx context.Context) ([]byte, error) {
	if b, ok := s.store.get(s.dcID); ok {
		return b, nil
	}
	return nil, session.ErrNotFound
}

func (s *dcSessionStorage) StoreSession(ctx context.Context, data []byte) error {
	s.store.set(s.dcID, data)
	return s.store.save()
}
