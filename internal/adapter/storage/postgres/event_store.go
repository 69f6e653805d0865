package postgres

import (
	"context"
	"fmt"

	"github.com/pye-wu/axon-demo/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// appendLockKey is the advisory lock taken by every append. Holding it until
// commit makes positions visible in order, so the relay never skips one.
const appendLockKey = 7_221_901

const eventColumns = `position, id, stream_id, version, type, revision, payload, recorded_at`

// EventStore implements ports.EventStore on the events table.
type EventStore struct {
	pool Pool
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Load returns a stream in version order.
func (s *EventStore) Load(ctx context.Context, streamID string) ([]domain.RecordedEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE stream_id = $1 ORDER BY version`

	rows, err := s.pool.Query(ctx, query, streamID)
	if err != nil {
		return nil, fmt.Errorf("load stream %s: %w", streamID, err)
	}
	return scanEvents(rows)
}

// ReadAll returns up to limit events with a position greater than after.
func (s *EventStore) ReadAll(ctx context.Context, after int64, limit int) ([]domain.RecordedEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE position > $1 ORDER BY position LIMIT $2`

	rows, err := s.pool.Query(ctx, query, after, limit)
	if err != nil {
		return nil, fmt.Errorf("read events after %d: %w", after, err)
	}
	return scanEvents(rows)
}

// Append writes records to a stream that must currently be at expectedVersion.
// It returns the records with their assigned positions.
func (s *EventStore) Append(ctx context.Context, streamID string, expectedVersion int64, records []domain.RecordedEvent) ([]domain.RecordedEvent, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, appendLockKey); err != nil {
		return nil, fmt.Errorf("lock event log: %w", err)
	}

	var current int64
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM events WHERE stream_id = $1`, streamID).Scan(&current); err != nil {
		return nil, fmt.Errorf("read version of %s: %w", streamID, err)
	}
	if current != expectedVersion {
		return nil, fmt.Errorf("%w: %s is at %d, expected %d", domain.ErrConcurrencyConflict, streamID, current, expectedVersion)
	}

	query := `INSERT INTO events (id, stream_id, version, type, revision, payload, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING position`

	out := make([]domain.RecordedEvent, len(records))
	for i, rec := range records {
		if rec.StreamID != streamID || rec.Version != expectedVersion+int64(i)+1 {
			return nil, fmt.Errorf("%w: record %s v%d does not follow %s v%d",
				domain.ErrStreamCorrupted, rec.StreamID, rec.Version, streamID, expectedVersion+int64(i))
		}
		err := tx.QueryRow(ctx, query,
			rec.ID, rec.StreamID, rec.Version, string(rec.Type), rec.Revision, []byte(rec.Payload), rec.RecordedAt,
		).Scan(&rec.Position)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("%w: %s v%d already written", domain.ErrConcurrencyConflict, streamID, rec.Version)
			}
			return nil, fmt.Errorf("insert event: %w", err)
		}
		out[i] = rec
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit append: %w", err)
	}
	return out, nil
}

func scanEvents(rows pgx.Rows) ([]domain.RecordedEvent, error) {
	defer rows.Close()

	var events []domain.RecordedEvent
	for rows.Next() {
		var (
			rec     domain.RecordedEvent
			typ     string
			payload []byte
		)
		if err := rows.Scan(
			&rec.Position, &rec.ID, &rec.StreamID, &rec.Version,
			&typ, &rec.Revision, &payload, &rec.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		rec.Type = domain.EventType(typ)
		rec.Payload = payload
		events = append(events, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
