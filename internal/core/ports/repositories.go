package ports

import (
	"context"
	"time"

	"github.com/pye-wu/axon-demo/internal/core/domain"
)

// EventStore is the append-only event log. Streams are ordered by version,
// the whole log by position.
type EventStore interface {
	// Load returns the stream in version order. An unknown stream is empty, not an error.
	Load(ctx context.Context, streamID string) ([]domain.RecordedEvent, error)
	// Append writes records after expectedVersion and returns them with their
	// positions assigned. It fails with domain.ErrConcurrencyConflict when the
	// stream is no longer at expectedVersion.
	Append(ctx context.Context, streamID string, expectedVersion int64, records []domain.RecordedEvent) ([]domain.RecordedEvent, error)
	// ReadAll returns up to limit records with a position greater than after.
	ReadAll(ctx context.Context, after int64, limit int) ([]domain.RecordedEvent, error)
}

// CheckpointStore remembers how far a named reader has consumed the log.
type CheckpointStore interface {
	Get(ctx context.Context, name string) (int64, error)
	Save(ctx context.Context, name string, position int64) error
}

// SagaStore is the correlation table: one row per transaction id.
type SagaStore interface {
	// Get returns nil, nil when no saga is correlated with txID.
	Get(ctx context.Context, txID domain.TransactionID) (*domain.TransferSaga, error)
	// Create fails with domain.ErrSagaExists for a known transaction id.
	Create(ctx context.Context, saga *domain.TransferSaga) error
	// Update persists saga if its Version still matches the stored one and
	// increments it. Fails with domain.ErrConcurrencyConflict otherwise.
	Update(ctx context.Context, saga *domain.TransferSaga) error
}

// DeliveryGuard records processed message ids so redeliveries can be dropped.
type DeliveryGuard interface {
	IsProcessed(ctx context.Context, scope, id string) (bool, error)
	MarkProcessed(ctx context.Context, scope, id string, ttl time.Duration) error
}

// Delivery guard scopes.
const (
	ScopeCommand = "command"
	ScopeSaga    = "saga"
)
