package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pye-wu/axon-demo/internal/core/ports"

	"github.com/rs/zerolog"
)

// EventRelay publishes the event log to the event transport in position
// order, resuming from a named checkpoint.
type EventRelay struct {
	store       ports.EventStore
	checkpoints ports.CheckpointStore
	publisher   ports.EventPublisher
	name        string
	interval    time.Duration
	batchSize   int
	log         zerolog.Logger
}

// NewEventRelay creates a new EventRelay.
func NewEventRelay(
	store ports.EventStore,
	checkpoints ports.CheckpointStore,
	publisher ports.EventPublisher,
	name string,
	interval time.Duration,
	batchSize int,
	log zerolog.Logger,
) *EventRelay {
	return &EventRelay{
		store:       store,
		checkpoints: checkpoints,
		publisher:   publisher,
		name:        name,
		interval:    interval,
		batchSize:   batchSize,
		log:         log,
	}
}

// Run polls until ctx is done. A full batch is followed by another poll
// without waiting.
func (r *EventRelay) Run(ctx context.Context) error {
	r.log.Info().Str("relay", r.name).Dur("interval", r.interval).Msg("event relay started")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		n, err := r.PollOnce(ctx)
		if err != nil && ctx.Err() == nil {
			r.log.Error().Err(err).Str("relay", r.name).Msg("event relay poll failed")
		}
		if err == nil && n == r.batchSize && ctx.Err() == nil {
			continue
		}

		select {
		case <-ctx.Done():
			r.log.Info().Str("relay", r.name).Msg("event relay stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// PollOnce publishes one batch and returns how many events went out.
func (r *EventRelay) PollOnce(ctx context.Context) (int, error) {
	position, err := r.checkpoints.Get(ctx, r.name)
	if err != nil {
		return 0, fmt.Errorf("read checkpoint %s: %w", r.name, err)
	}

	records, err := r.store.ReadAll(ctx, position, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("read log after %d: %w", position, err)
	}

	published := 0
	for _, rec := range records {
		if err := r.publisher.Publish(ctx, rec); err != nil {
			if published > 0 {
				if serr := r.checkpoints.Save(ctx, r.name, position); serr != nil {
					r.log.Error().Err(serr).Int64("position", position).Msg("failed to save relay checkpoint")
				}
			}
			return published, fmt.Errorf("publish %s at %d: %w", rec.Type, rec.Position, err)
		}
		position = rec.Position
		published++
	}

	if published > 0 {
		if err := r.checkpoints.Save(ctx, r.name, position); err != nil {
			return published, fmt.Errorf("save checkpoint %s: %w", r.name, err)
		}
		r.log.Debug().Str("relay", r.name).Int("published", published).Int64("position", position).Msg("events relayed")
	}
	return published, nil
}
