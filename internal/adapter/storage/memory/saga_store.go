package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/pye-wu/axon-demo/internal/core/domain"
)

// SagaStore is an in-memory correlation table.
type SagaStore struct {
	mu    sync.RWMutex
	sagas map[domain.TransactionID]domain.TransferSaga
}

func NewSagaStore() *SagaStore {
	return &SagaStore{sagas: make(map[domain.TransactionID]domain.TransferSaga)}
}

func (s *SagaStore) Get(_ context.Context, txID domain.TransactionID) (*domain.TransferSaga, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	saga, ok := s.sagas[txID]
	if !ok {
		return nil, nil
	}
	return &saga, nil
}

func (s *SagaStore) Create(_ context.Context, saga *domain.TransferSaga) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sagas[saga.TransactionID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrSagaExists, saga.TransactionID)
	}
	saga.Version = 1
	s.sagas[saga.TransactionID] = *saga
	return nil
}

func (s *SagaStore) Update(_ context.Context, saga *domain.TransferSaga) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sagas[saga.TransactionID]
	if !ok || stored.Version != saga.Version {
		return fmt.Errorf("%w: saga %s at version %d", domain.ErrConcurrencyConflict, saga.TransactionID, saga.Version)
	}
	saga.Version++
	s.sagas[saga.TransactionID] = *saga
	return nil
}
