package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/pye-wu/axon-demo/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// SagaRepo implements ports.SagaStore on the transfer_sagas correlation table.
type SagaRepo struct {
	pool Pool
}

// NewSagaRepo creates a new SagaRepo.
func NewSagaRepo(pool Pool) *SagaRepo {
	return &SagaRepo{pool: pool}
}

// Get fetches the saga for a transaction. Returns nil, nil if none exists.
func (r *SagaRepo) Get(ctx context.Context, txID domain.TransactionID) (*domain.TransferSaga, error) {
	query := `SELECT transaction_id, source_id, destination_id, amount, state, compensation_issued,
		version, created_at, updated_at
		FROM transfer_sagas WHERE transaction_id = $1`

	var (
		s                       domain.TransferSaga
		id, source, dest, state string
		amount                  int64
	)
	err := r.pool.QueryRow(ctx, query, string(txID)).Scan(
		&id, &source, &dest, &amount, &state, &s.CompensationIssued,
		&s.Version, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get saga %s: %w", txID, err)
	}
	s.TransactionID = domain.TransactionID(id)
	s.SourceID = domain.AccountID(source)
	s.DestinationID = domain.AccountID(dest)
	s.Amount = domain.Money(amount)
	s.State = domain.SagaState(state)
	return &s, nil
}

// Create inserts a new saga at version 1.
func (r *SagaRepo) Create(ctx context.Context, s *domain.TransferSaga) error {
	query := `INSERT INTO transfer_sagas (transaction_id, source_id, destination_id, amount, state,
		compensation_issued, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		string(s.TransactionID), string(s.SourceID), string(s.DestinationID), int64(s.Amount),
		string(s.State), s.CompensationIssued, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrSagaExists, s.TransactionID)
		}
		return fmt.Errorf("insert saga: %w", err)
	}
	s.Version = 1
	return nil
}

// Update saves the saga if nobody else did since it was loaded.
func (r *SagaRepo) Update(ctx context.Context, s *domain.TransferSaga) error {
	query := `UPDATE transfer_sagas
		SET state = $1, compensation_issued = $2, version = version + 1, updated_at = $3
		WHERE transaction_id = $4 AND version = $5`

	tag, err := r.pool.Exec(ctx, query,
		string(s.State), s.CompensationIssued, s.UpdatedAt, string(s.TransactionID), s.Version,
	)
	if err != nil {
		return fmt.Errorf("update saga: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: saga %s moved past version %d", domain.ErrConcurrencyConflict, s.TransactionID, s.Version)
	}
	s.Version++
	return nil
}
