package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pye-wu/axon-demo/internal/core/domain"
	"github.com/pye-wu/axon-demo/internal/core/ports"

	"github.com/rs/zerolog"
)

// CommandDispatcher implements ports.CommandHandler. It routes transport
// commands to the aggregate services and drops envelopes it already handled.
type CommandDispatcher struct {
	accounts  ports.AccountService
	transfers ports.TransferService
	guard     ports.DeliveryGuard
	ttl       time.Duration
	log       zerolog.Logger
}

// NewCommandDispatcher creates a new CommandDispatcher.
func NewCommandDispatcher(
	accounts ports.AccountService,
	transfers ports.TransferService,
	guard ports.DeliveryGuard,
	ttl time.Duration,
	log zerolog.Logger,
) *CommandDispatcher {
	return &CommandDispatcher{
		accounts:  accounts,
		transfers: transfers,
		guard:     guard,
		ttl:       ttl,
		log:       log,
	}
}

// HandleCommand executes one delivered command envelope.
func (d *CommandDispatcher) HandleCommand(ctx context.Context, env domain.CommandEnvelope) error {
	id := env.ID.String()
	log := d.log.With().Str("command_id", id).Str("command_type", string(env.Type)).Logger()

	done, err := d.guard.IsProcessed(ctx, ports.ScopeCommand, id)
	if err != nil {
		// Never execute unguarded: deposits are not idempotent.
		return fmt.Errorf("delivery guard: %w", err)
	}
	if done {
		log.Debug().Msg("duplicate command dropped")
		return nil
	}

	cmd, err := env.Decode()
	if err != nil {
		log.Error().Err(err).Msg("undecodable command")
		return err
	}

	if _, err := d.dispatch(ctx, cmd); err != nil {
		log.Error().Err(err).Str("stream_id", cmd.TargetID()).Msg("command failed")
		return err
	}

	if err := d.guard.MarkProcessed(ctx, ports.ScopeCommand, id, d.ttl); err != nil {
		log.Warn().Err(err).Msg("failed to mark command processed")
	}
	return nil
}

func (d *CommandDispatcher) dispatch(ctx context.Context, cmd domain.Command) (*ports.CommandResult, error) {
	switch c := cmd.(type) {
	case domain.CreateAccount, domain.Withdraw, domain.Deposit, domain.Refund, domain.CloseAccount:
		return d.accounts.Execute(ctx, c)
	case domain.RequestTransfer:
		return d.transfers.RequestTransfer(ctx, c)
	case domain.CompleteTransfer, domain.FailTransfer:
		return d.transfers.Execute(ctx, c)
	default:
		return nil, fmt.Errorf("%w: %T", domain.ErrUnknownCommand, cmd)
	}
}
