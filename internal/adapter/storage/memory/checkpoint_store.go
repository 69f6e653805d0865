package memory

import (
	"context"
	"sync"
)

// CheckpointStore keeps reader positions in memory.
type CheckpointStore struct {
	mu        sync.Mutex
	positions map[string]int64
}

func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{positions: make(map[string]int64)}
}

func (s *CheckpointStore) Get(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positions[name], nil
}

func (s *CheckpointStore) Save(_ context.Context, name string, position int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[name] = position
	return nil
}
