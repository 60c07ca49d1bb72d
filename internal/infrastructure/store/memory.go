package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/groceryscout/backend/internal/domain"
)

// MemoryStore is a thread-safe in-memory document store.
// Documents are kept as JSON so readers never share memory with writers,
// the same way a networked store would behave.
type MemoryStore struct {
	data  map[string][]byte
	mutex sync.RWMutex
}

// NewMemoryStore creates a new in-memory document store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
	}
}

// Get returns the account's snapshot, or nil when nothing has been stored yet
func (s *MemoryStore) Get(ctx context.Context, accountID string) (*domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	raw, exists := s.data[accountID]
	s.mutex.RUnlock()

	if !exists {
		return nil, nil
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, err
	}
	return snapshot.Normalize(), nil
}

// Put replaces the account's snapshot
func (s *MemoryStore) Put(ctx context.Context, accountID string, snapshot *domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.data[accountID] = raw
	return nil
}

// Size returns the number of stored accounts (for debugging/monitoring)
func (s *MemoryStore) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}

// Clear removes every stored document
func (s *MemoryStore) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.data = make(map[string][]byte)
}
