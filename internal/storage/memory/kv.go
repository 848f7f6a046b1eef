// Package memory provides in-process implementations of the persistence
// port and history log.
package memory

import (
	"context"
	"sync"
)

// KVStore is an in-memory implementation of service.KV.
type KVStore struct {
	data map[string]map[string][]byte // user -> key -> value
	mu   sync.RWMutex
}

// NewKVStore creates an empty store.
func NewKVStore() *KVStore {
	return &KVStore{
		data: make(map[string]map[string][]byte),
	}
}

// Get returns a copy of the stored value.
func (s *KVStore) Get(_ context.Context, userKey, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[userKey][key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set stores a copy of value.
func (s *KVStore) Set(_ context.Context, userKey, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.data[userKey]
	if !ok {
		bucket = make(map[string][]byte)
		s.data[userKey] = bucket
	}
	bucket[key] = append([]byte(nil), value...)
	return nil
}

// Remove deletes the value. Removing a missing key is not an error.
func (s *KVStore) Remove(_ context.Context, userKey, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[userKey], key)
	return nil
}
