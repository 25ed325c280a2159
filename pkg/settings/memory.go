package settings

import "sync"

// MemoryStore keeps settings for the lifetime of the process.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Load() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Defaults()
	if v, ok := m.values[TokenKey]; ok {
		s.Token = v
	}
	if v, ok := m.values[UserKey]; ok && v != "" {
		s.UserID = v
	}
	return s
}

func (m *MemoryStore) Save(s Settings) error {
	s = s.normalize()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[TokenKey] = s.Token
	m.values[UserKey] = s.UserID
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
