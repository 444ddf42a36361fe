package credential

import "sync"

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps the credential in process memory. It does not survive a
// restart and is meant for tests and one-shot invocations.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.token == "" {
		return "", ErrNoCredential
	}
	return m.token, nil
}

func (m *MemoryStore) Set(token string) error {
	if token == "" {
		return ErrEmptyCredential
	}

	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }
