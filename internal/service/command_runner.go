package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pye-wu/axon-demo/internal/core/domain"
	"github.com/pye-wu/axon-demo/internal/core/ports"
	"github.com/pye-wu/axon-demo/pkg/apperror"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const maxConflictRetries = 5

// decideFunc folds a stream's history and decides cmd against it.
type decideFunc func(history []domain.Event, cmd domain.Command) (domain.Event, error)

// commandRunner runs load -> fold -> decide -> append(expectedVersion) for one
// stream at a time, retrying the whole cycle when another writer got there first.
type commandRunner struct {
	store      ports.EventStore
	locker     ports.Locker
	now        func() time.Time
	newBackOff func() backoff.BackOff
	log        zerolog.Logger
}

func newCommandRunner(store ports.EventStore, locker ports.Locker, log zerolog.Logger) *commandRunner {
	return &commandRunner{
		store:  store,
		locker: locker,
		now:    time.Now,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 10 * time.Millisecond
			b.MaxInterval = 200 * time.Millisecond
			return backoff.WithMaxRetries(b, maxConflictRetries)
		},
		log: log,
	}
}

func (r *commandRunner) run(ctx context.Context, cmd domain.Command, decide decideFunc) (*ports.CommandResult, error) {
	streamID := cmd.TargetID()

	unlock, err := r.locker.Lock(ctx, streamID)
	if err != nil {
		return nil, apperror.ErrTechnicalFault(fmt.Errorf("lock %s: %w", streamID, err))
	}
	defer unlock()

	var result *ports.CommandResult
	attempt := func() error {
		records, err := r.store.Load(ctx, streamID)
		if err != nil {
			return backoff.Permanent(apperror.ErrDatabaseError(fmt.Errorf("load %s: %w", streamID, err)))
		}
		history, err := domain.DecodeHistory(records)
		if err != nil {
			return backoff.Permanent(err)
		}

		evt, err := decide(history, cmd)
		if err != nil {
			return backoff.Permanent(err)
		}

		version := int64(len(records))
		result = &ports.CommandResult{
			StreamID:      streamID,
			TransactionID: transactionOf(cmd),
			Event:         evt,
			Version:       version,
		}
		if evt == nil {
			return nil
		}

		rec, err := domain.NewRecordedEvent(version+1, evt, r.now())
		if err != nil {
			return backoff.Permanent(err)
		}
		if _, err := r.store.Append(ctx, streamID, version, []domain.RecordedEvent{rec}); err != nil {
			if errors.Is(err, domain.ErrConcurrencyConflict) {
				r.log.Debug().Str("stream_id", streamID).Int64("version", version).Msg("stream moved, retrying command")
				return err
			}
			return backoff.Permanent(apperror.ErrDatabaseError(fmt.Errorf("append %s: %w", streamID, err)))
		}
		result.EventID = rec.ID
		result.Version = rec.Version
		return nil
	}

	if err := backoff.Retry(attempt, backoff.WithContext(r.newBackOff(), ctx)); err != nil {
		if errors.Is(err, domain.ErrConcurrencyConflict) {
			return nil, apperror.ErrConcurrencyConflict(err)
		}
		return nil, err
	}
	return result, nil
}

// transactionOf returns the transaction a command belongs to, if any.
func transactionOf(cmd domain.Command) domain.TransactionID {
	switch c := cmd.(type) {
	case domain.Withdraw:
		return c.TransactionID
	case domain.Deposit:
		return c.TransactionID
	case domain.Refund:
		return c.TransactionID
	case domain.RequestTransfer:
		return c.TransactionID
	case domain.CompleteTransfer:
		return c.TransactionID
	case domain.FailTransfer:
		return c.TransactionID
	case domain.CreateAccount, domain.CloseAccount:
		return ""
	default:
		return ""
	}
}

// logDecision records the outcome of a command. Rejections are business
// outcomes and only ever show up here.
func logDecision(log zerolog.Logger, cmd domain.Command, result *ports.CommandResult) {
	if result.Event == nil {
		log.Debug().
			Str("command_type", string(cmd.CommandType())).
			Str("stream_id", result.StreamID).
			Msg("command produced no event")
		return
	}

	entry := log.Info()
	msg := "command accepted"
	if result.Rejected() {
		msg = "command rejected"
	}
	entry.
		Str("command_type", string(cmd.CommandType())).
		Str("event_type", string(result.Event.EventType())).
		Str("stream_id", result.StreamID).
		Str("tx_id", string(result.TransactionID)).
		Int64("version", result.Version).
		Msg(msg)
}
