package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pye-wu/axon-demo/internal/core/domain"
	"github.com/pye-wu/axon-demo/internal/core/ports"

	"github.com/rs/zerolog"
)

// SagaManager implements ports.EventHandler. It routes correlated events to
// the transfer saga owning their transaction id and sends the commands the
// saga decides on.
type SagaManager struct {
	sagas    ports.SagaStore
	events   ports.EventStore
	commands ports.CommandGateway
	guard    ports.DeliveryGuard
	locker   ports.Locker
	ttl      time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewSagaManager creates a new SagaManager.
func NewSagaManager(
	sagas ports.SagaStore,
	events ports.EventStore,
	commands ports.CommandGateway,
	guard ports.DeliveryGuard,
	locker ports.Locker,
	ttl time.Duration,
	log zerolog.Logger,
) *SagaManager {
	return &SagaManager{
		sagas:    sagas,
		events:   events,
		commands: commands,
		guard:    guard,
		locker:   locker,
		ttl:      ttl,
		now:      time.Now,
		log:      log,
	}
}

// HandleEvent advances the saga correlated with rec, if any.
func (m *SagaManager) HandleEvent(ctx context.Context, rec domain.RecordedEvent) error {
	evt, err := rec.Decode()
	if err != nil {
		return fmt.Errorf("decode %s: %w", rec.ID, err)
	}
	correlated, ok := evt.(domain.Correlated)
	if !ok {
		return nil
	}
	txID := correlated.CorrelationID()

	unlock, err := m.locker.Lock(ctx, "saga-"+string(txID))
	if err != nil {
		return fmt.Errorf("lock saga %s: %w", txID, err)
	}
	defer unlock()

	eventID := rec.ID.String()
	done, err := m.guard.IsProcessed(ctx, ports.ScopeSaga, eventID)
	if err != nil {
		return fmt.Errorf("delivery guard: %w", err)
	}
	if done {
		m.log.Debug().Str("tx_id", string(txID)).Str("event_id", eventID).Msg("duplicate event dropped")
		return nil
	}

	if err := m.advance(ctx, rec, evt, txID); err != nil {
		return err
	}

	if err := m.guard.MarkProcessed(ctx, ports.ScopeSaga, eventID, m.ttl); err != nil {
		m.log.Warn().Err(err).Str("event_id", eventID).Msg("failed to mark event processed")
	}
	return nil
}

func (m *SagaManager) advance(ctx context.Context, rec domain.RecordedEvent, evt domain.Event, txID domain.TransactionID) error {
	if requested, ok := evt.(domain.TransferRequested); ok {
		return m.start(ctx, rec, requested)
	}

	saga, err := m.sagas.Get(ctx, txID)
	if err != nil {
		return fmt.Errorf("load saga %s: %w", txID, err)
	}
	if saga == nil {
		return m.uncorrelated(ctx, txID, evt)
	}
	if saga.Ended() {
		return nil
	}

	prev := saga.State
	cmds := saga.Handle(evt)
	if len(cmds) == 0 {
		m.log.Debug().
			Str("tx_id", string(txID)).
			Str("event_type", string(evt.EventType())).
			Str("state", string(saga.State)).
			Msg("event ignored by saga")
		return nil
	}

	// Commands go out before the new state is saved. If saving fails the
	// event is handled again and re-sends the same command ids.
	m.dispatch(ctx, rec, cmds)

	saga.UpdatedAt = m.now().UTC()
	if err := m.sagas.Update(ctx, saga); err != nil {
		return fmt.Errorf("save saga %s: %w", txID, err)
	}
	m.logTransition(saga, prev, evt)
	return nil
}

func (m *SagaManager) start(ctx context.Context, rec domain.RecordedEvent, e domain.TransferRequested) error {
	existing, err := m.sagas.Get(ctx, e.TransactionID)
	if err != nil {
		return fmt.Errorf("load saga %s: %w", e.TransactionID, err)
	}
	if existing != nil {
		// Saved but the withdraw may never have gone out. Re-sending keeps the
		// derived command id, so the dispatcher drops it if it already ran.
		if existing.State == domain.SagaStarted {
			_, cmds := domain.StartTransferSaga(e)
			m.dispatch(ctx, rec, cmds)
		}
		m.log.Debug().Str("tx_id", string(e.TransactionID)).Msg("saga already started")
		return nil
	}

	saga, cmds := domain.StartTransferSaga(e)
	saga.CreatedAt = m.now().UTC()
	saga.UpdatedAt = saga.CreatedAt

	// The saga row must exist before the withdraw can produce events for it.
	if err := m.sagas.Create(ctx, saga); err != nil {
		if errors.Is(err, domain.ErrSagaExists) {
			return nil
		}
		return fmt.Errorf("create saga %s: %w", e.TransactionID, err)
	}

	m.dispatch(ctx, rec, cmds)

	m.log.Info().
		Str("tx_id", string(saga.TransactionID)).
		Str("source_id", string(saga.SourceID)).
		Str("destination_id", string(saga.DestinationID)).
		Int64("amount", int64(saga.Amount)).
		Msg("transfer saga started")
	return nil
}

// uncorrelated handles an event whose transaction has no saga. Plain
// deposits and withdrawals carry transaction ids too and are skipped. A
// requested transfer without a saga is an error, so the event is
// redelivered or dead-lettered instead of being consumed.
func (m *SagaManager) uncorrelated(ctx context.Context, txID domain.TransactionID, evt domain.Event) error {
	history, err := m.events.Load(ctx, domain.TransferStream(txID))
	if err != nil {
		return fmt.Errorf("load transfer %s: %w", txID, err)
	}
	if len(history) == 0 {
		return nil
	}
	m.log.Error().
		Str("tx_id", string(txID)).
		Str("event_type", string(evt.EventType())).
		Msg("transfer has no saga")
	return fmt.Errorf("%w: %s", domain.ErrSagaNotFound, txID)
}

// dispatch sends commands without waiting on their outcome. Ids derive from
// the triggering event so a re-sent command is recognized downstream.
func (m *SagaManager) dispatch(ctx context.Context, rec domain.RecordedEvent, cmds []domain.Command) {
	for i, cmd := range cmds {
		env, err := domain.NewCommandEnvelope(domain.DerivedCommandID(rec.ID, i), cmd, m.now())
		if err != nil {
			m.log.Error().Err(err).Str("command_type", string(cmd.CommandType())).Msg("failed to encode saga command")
			continue
		}
		if err := m.commands.Send(ctx, env); err != nil {
			m.log.Error().Err(err).
				Str("command_id", env.ID.String()).
				Str("command_type", string(env.Type)).
				Str("stream_id", cmd.TargetID()).
				Msg("failed to dispatch saga command")
		}
	}
}

func (m *SagaManager) logTransition(saga *domain.TransferSaga, prev domain.SagaState, evt domain.Event) {
	var entry *zerolog.Event
	switch saga.State {
	case domain.SagaDeadLettered:
		entry = m.log.Error()
	case domain.SagaFailed:
		entry = m.log.Warn()
	case domain.SagaStarted, domain.SagaAwaitingDeposit, domain.SagaCompleted:
		entry = m.log.Info()
	default:
		entry = m.log.Info()
	}
	entry.
		Str("tx_id", string(saga.TransactionID)).
		Str("event_type", string(evt.EventType())).
		Str("from", string(prev)).
		Str("to", string(saga.State)).
		Bool("compensating", saga.CompensationIssued).
		Msg("transfer saga advanced")
}
