package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Store. FailWrites makes every Set and Remove
// fail, for exercising persistence error paths.
type MemoryStore struct {
	mu         sync.RWMutex
	values     map[string][]byte
	FailWrites error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return fmt.Errorf("failed to set %s: %w", key, s.FailWrites)
	}
	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return fmt.Errorf("failed to remove %s: %w", key, s.FailWrites)
	}
	delete(s.values, key)
	return nil
}

// SetFailWrites toggles write failures under the store's lock.
func (s *MemoryStore) SetFailWrites(err error) {
	s.mu.Lock()
	s.FailWrites = err
	s.mu.Unlock()
}

func (s *MemoryStore) Close() error {
	return nil
}
