package kvstore

import (
	"context"
	"sync"
)

// MemoryStore implements Store with an in-process map. Used for tests and
// for running without any durable backend.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[Namespace]map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{data: make(map[Namespace]map[string][]byte)}
}

// Get retrieves the value stored under (ns, key).
func (s *MemoryStore) Get(_ context.Context, ns Namespace, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[ns][key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores value under (ns, key).
func (s *MemoryStore) Set(_ context.Context, ns Namespace, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data[ns] == nil {
		s.data[ns] = make(map[string][]byte)
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	s.data[ns][key] = stored
	return nil
}

// Delete removes (ns, key).
func (s *MemoryStore) Delete(_ context.Context, ns Namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data[ns], key)
	return nil
}

// List returns all key/value pairs in a namespace.
func (s *MemoryStore) List(_ context.Context, ns Namespace) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string][]byte, len(s.data[ns]))
	for key, value := range s.data[ns] {
		out := make([]byte, len(value))
		copy(out, value)
		result[key] = out
	}
	return result, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
