package storage

import "sync"

// MemoryStore is a Slot that lives only for the process lifetime. It backs
// tests and the ":memory:" config value.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
	// SetErr, when non-nil, is returned by every Set call without storing.
	SetErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Init() error  { return nil }
func (s *MemoryStore) Load() error  { return nil }
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetErr != nil {
		return s.SetErr
	}
	s.values[key] = value
	return nil
}

func (s *MemoryStore) GetConfigPath() string {
	return ":memory:"
}
