package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pye-wu/axon-demo/internal/core/domain"
	"github.com/pye-wu/axon-demo/internal/core/ports"
	"github.com/pye-wu/axon-demo/pkg/apperror"

	"github.com/rs/zerolog"
)

// AccountServiceImpl implements ports.AccountService.
type AccountServiceImpl struct {
	runner *commandRunner
	store  ports.EventStore
	log    zerolog.Logger
}

// NewAccountService creates a new AccountServiceImpl.
func NewAccountService(store ports.EventStore, locker ports.Locker, log zerolog.Logger) *AccountServiceImpl {
	return &AccountServiceImpl{
		runner: newCommandRunner(store, locker, log),
		store:  store,
		log:    log,
	}
}

// Execute decides an account command and appends the resulting event.
// Commands for one account run one at a time.
func (s *AccountServiceImpl) Execute(ctx context.Context, cmd domain.Command) (*ports.CommandResult, error) {
	switch cmd.(type) {
	case domain.CreateAccount, domain.Withdraw, domain.Deposit, domain.Refund, domain.CloseAccount:
	case domain.RequestTransfer, domain.CompleteTransfer, domain.FailTransfer:
		return nil, fmt.Errorf("%w: %s is not an account command", domain.ErrUnknownCommand, cmd.CommandType())
	default:
		return nil, fmt.Errorf("%w: %T", domain.ErrUnknownCommand, cmd)
	}

	result, err := s.runner.run(ctx, cmd, decideAccount)
	if err != nil {
		if errors.Is(err, domain.ErrTechnicalFault) {
			s.log.Warn().Err(err).
				Str("command_type", string(cmd.CommandType())).
				Str("stream_id", cmd.TargetID()).
				Msg("technical fault, no event recorded")
		}
		return nil, err
	}
	logDecision(s.log, cmd, result)
	return result, nil
}

// GetAccount replays the account stream.
func (s *AccountServiceImpl) GetAccount(ctx context.Context, id domain.AccountID) (*ports.AccountView, error) {
	records, err := s.History(ctx, id)
	if err != nil {
		return nil, err
	}
	history, err := domain.DecodeHistory(records)
	if err != nil {
		return nil, err
	}
	state, err := domain.FoldAccount(history)
	if err != nil {
		s.log.Error().Err(err).Str("account_id", string(id)).Msg("account stream failed to replay")
		return nil, err
	}
	return &ports.AccountView{Account: *state, Version: int64(len(records))}, nil
}

// History returns the raw account stream.
func (s *AccountServiceImpl) History(ctx context.Context, id domain.AccountID) ([]domain.RecordedEvent, error) {
	records, err := s.store.Load(ctx, domain.AccountStream(id))
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load account %s: %w", id, err))
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
	}
	return records, nil
}

func decideAccount(history []domain.Event, cmd domain.Command) (domain.Event, error) {
	state, err := domain.FoldAccount(history)
	if err != nil {
		return nil, err
	}
	return domain.DecideAccount(state, cmd)
}
