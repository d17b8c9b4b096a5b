package memory

import (
	"context"
	"sync"
)

// SequenceStore implements store.SequenceStore using in-memory counters.
// This implementation is for testing only - counters are lost on restart.
type SequenceStore struct {
	mu       sync.Mutex
	counters map[sequenceKey]int64
}

type sequenceKey struct {
	partitionKey string
	prefix       string
}

// NewSequenceStore creates a new in-memory sequence store.
func NewSequenceStore() *SequenceStore {
	return &SequenceStore{
		counters: make(map[sequenceKey]int64),
	}
}

// Next issues the next number for (partitionKey, prefix). A first call for
// an unseen key returns 1; unrelated keys never contend beyond the store's
// single mutex.
func (s *SequenceStore) Next(ctx context.Context, partitionKey, prefix string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sequenceKey{partitionKey: partitionKey, prefix: prefix}
	s.counters[key]++
	return s.counters[key], nil
}
