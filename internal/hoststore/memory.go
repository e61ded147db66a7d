package hoststore

import "sync"

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store with an optional capacity. It is the
// host store for tests and for the memory host_store config.
type MemoryStore struct {
	mu       sync.RWMutex
	data     map[string]string
	used     int64
	capacity int64
}

// NewMemoryStore creates an empty store. capacity is in bytes; 0 means unlimited.
func NewMemoryStore(capacity int64) *MemoryStore {
	return &MemoryStore{data: make(map[string]string), capacity: capacity}
}

// Get implements Store.
func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

// Set implements Store.
func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	used := s.used + entrySize(key, value)
	if old, ok := s.data[key]; ok {
		used -= entrySize(key, old)
	}
	if s.capacity > 0 && used > s.capacity {
		return ErrQuotaExceeded
	}
	s.data[key] = value
	s.used = used
	return nil
}

// Remove implements Store.
func (s *MemoryStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.data[key]; ok {
		s.used -= entrySize(key, old)
		delete(s.data, key)
	}
	return nil
}

// Size implements Store.
func (s *MemoryStore) Size(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return 0
	}
	return int(entrySize(key, v))
}

// Used returns the total bytes held.
func (s *MemoryStore) Used() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.used
}

// Len returns the number of keys held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
