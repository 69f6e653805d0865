package service

import (
	"context"
	"fmt"

	"github.com/pye-wu/axon-demo/internal/core/domain"
	"github.com/pye-wu/axon-demo/internal/core/ports"
	"github.com/pye-wu/axon-demo/pkg/apperror"

	"github.com/rs/zerolog"
)

// TransferServiceImpl implements ports.TransferService.
type TransferServiceImpl struct {
	runner *commandRunner
	store  ports.EventStore
	sagas  ports.SagaStore
	log    zerolog.Logger
}

// NewTransferService creates a new TransferServiceImpl.
func NewTransferService(store ports.EventStore, sagas ports.SagaStore, locker ports.Locker, log zerolog.Logger) *TransferServiceImpl {
	return &TransferServiceImpl{
		runner: newCommandRunner(store, locker, log),
		store:  store,
		sagas:  sagas,
		log:    log,
	}
}

// RequestTransfer records a transfer request between two existing accounts.
// The saga picks it up from the event transport.
func (s *TransferServiceImpl) RequestTransfer(ctx context.Context, cmd domain.RequestTransfer) (*ports.CommandResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	for _, id := range []domain.AccountID{cmd.SourceID, cmd.DestinationID} {
		records, err := s.store.Load(ctx, domain.AccountStream(id))
		if err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("load account %s: %w", id, err))
		}
		if len(records) == 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
		}
	}
	return s.Execute(ctx, cmd)
}

// Execute decides a transfer command against the transfer stream.
func (s *TransferServiceImpl) Execute(ctx context.Context, cmd domain.Command) (*ports.CommandResult, error) {
	switch cmd.(type) {
	case domain.RequestTransfer, domain.CompleteTransfer, domain.FailTransfer:
	case domain.CreateAccount, domain.Withdraw, domain.Deposit, domain.Refund, domain.CloseAccount:
		return nil, fmt.Errorf("%w: %s is not a transfer command", domain.ErrUnknownCommand, cmd.CommandType())
	default:
		return nil, fmt.Errorf("%w: %T", domain.ErrUnknownCommand, cmd)
	}

	result, err := s.runner.run(ctx, cmd, decideTransfer)
	if err != nil {
		return nil, err
	}
	logDecision(s.log, cmd, result)
	return result, nil
}

// GetTransfer replays the transfer stream and attaches its saga.
func (s *TransferServiceImpl) GetTransfer(ctx context.Context, txID domain.TransactionID) (*ports.TransferView, error) {
	records, err := s.store.Load(ctx, domain.TransferStream(txID))
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load transfer %s: %w", txID, err))
	}
	history, err := domain.DecodeHistory(records)
	if err != nil {
		return nil, err
	}
	transfer, err := domain.FoldTransfer(history)
	if err != nil {
		return nil, err
	}
	if transfer == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrTransferNotFound, txID)
	}

	saga, err := s.sagas.Get(ctx, txID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load saga %s: %w", txID, err))
	}
	return &ports.TransferView{Transfer: *transfer, Saga: saga}, nil
}

func decideTransfer(history []domain.Event, cmd domain.Command) (domain.Event, error) {
	state, err := domain.FoldTransfer(history)
	if err != nil {
		return nil, err
	}
	return domain.DecideTransfer(state, cmd)
}
