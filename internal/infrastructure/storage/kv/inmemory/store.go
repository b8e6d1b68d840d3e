package inmemory

import (
	"context"
	"sync"

	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/ports"
)

// Store is a ports.Store backed by a map.
type Store struct {
	lock   sync.RWMutex
	values map[string][]byte
}

// NewStore ...
func NewStore() *Store {
	return &Store{values: make(map[string][]byte)}
}

var _ ports.Store = (*Store)(nil)

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, nil
	}
	return append([]byte{}, value...), nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.values[key] = append([]byte{}, value...)
	return nil
}

// Keys returns the stored keys.
func (s *Store) Keys() []string {
	s.lock.RLock()
	defer s.lock.RUnlock()

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

// Close ...
func (s *Store) Close() {}
