// Package memory holds in-process implementations of the storage ports, used
// by the memory storage driver and by tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/pye-wu/axon-demo/internal/core/domain"
)

// EventStore keeps the event log in memory. Positions are dense, starting at 1.
type EventStore struct {
	mu      sync.RWMutex
	streams map[string][]domain.RecordedEvent
	all     []domain.RecordedEvent
}

// NewEventStore creates an empty EventStore.
func NewEventStore() *EventStore {
	return &EventStore{streams: make(map[string][]domain.RecordedEvent)}
}

// Load returns a copy of the stream in version order.
func (s *EventStore) Load(_ context.Context, streamID string) ([]domain.RecordedEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stream := s.streams[streamID]
	out := make([]domain.RecordedEvent, len(stream))
	copy(out, stream)
	return out, nil
}

// Append writes records if the stream is still at expectedVersion.
func (s *EventStore) Append(_ context.Context, streamID string, expectedVersion int64, records []domain.RecordedEvent) ([]domain.RecordedEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := int64(len(s.streams[streamID]))
	if current != expectedVersion {
		return nil, fmt.Errorf("%w: %s at version %d, expected %d", domain.ErrConcurrencyConflict, streamID, current, expectedVersion)
	}
	for i, rec := range records {
		if rec.StreamID != streamID || rec.Version != expectedVersion+int64(i)+1 {
			return nil, fmt.Errorf("%w: record %s v%d does not follow %s v%d",
				domain.ErrStreamCorrupted, rec.StreamID, rec.Version, streamID, expectedVersion+int64(i))
		}
	}

	out := make([]domain.RecordedEvent, len(records))
	for i, rec := range records {
		rec.Position = int64(len(s.all)) + 1
		s.all = append(s.all, rec)
		s.streams[streamID] = append(s.streams[streamID], rec)
		out[i] = rec
	}
	return out, nil
}

// ReadAll returns up to limit records after the given position.
func (s *EventStore) ReadAll(_ context.Context, after int64, limit int) ([]domain.RecordedEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if after < 0 {
		after = 0
	}
	if after >= int64(len(s.all)) || limit <= 0 {
		return nil, nil
	}
	end := after + int64(limit)
	if end > int64(len(s.all)) {
		end = int64(len(s.all))
	}
	out := make([]domain.RecordedEvent, end-after)
	copy(out, s.all[after:end])
	return out, nil
}
