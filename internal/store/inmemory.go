package store

import (
	"context"
	"sync"
)

// InMemoryStore keeps one record per identity for the life of the process.
// Identities are never evicted.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]Record)}
}

func (s *InMemoryStore) Save(_ context.Context, record Record) (Record, error) {
	record, err := prepare(record)
	if err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	s.records[record.Identity] = record
	s.mu.Unlock()
	return record, nil
}

func (s *InMemoryStore) Latest(_ context.Context, identity string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[identity]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}

func (s *InMemoryStore) Mode() string { return "memory" }

func (s *InMemoryStore) Close() error { return nil }
