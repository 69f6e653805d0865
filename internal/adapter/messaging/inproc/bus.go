package inproc

import (
	"context"
	"fmt"
	"sync"

	"github.com/pye-wu/axon-demo/internal/core/domain"
	"github.com/pye-wu/axon-demo/internal/core/ports"

	"github.com/rs/zerolog"
)

// DeadLetter is a message whose handler failed.
type DeadLetter struct {
	Kind  string // "event" or "command"
	ID    string
	Type  string
	Error string
}

// Bus is a single-process transport over buffered channels. Publishers block
// while the buffer is full.
type Bus struct {
	events   chan domain.RecordedEvent
	commands chan domain.CommandEnvelope
	log      zerolog.Logger

	mu   sync.Mutex
	dead []DeadLetter
}

// New creates a bus buffering up to size messages per direction.
func New(size int, log zerolog.Logger) *Bus {
	return &Bus{
		events:   make(chan domain.RecordedEvent, size),
		commands: make(chan domain.CommandEnvelope, size),
		log:      log,
	}
}

// Publish implements ports.EventPublisher.
func (b *Bus) Publish(ctx context.Context, rec domain.RecordedEvent) error {
	select {
	case b.events <- rec:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send implements ports.CommandGateway.
func (b *Bus) Send(ctx context.Context, env domain.CommandEnvelope) error {
	select {
	case b.commands <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ConsumeEvents delivers events to h until ctx is done.
func (b *Bus) ConsumeEvents(ctx context.Context, h ports.EventHandler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case rec := <-b.events:
			b.deliver("event", rec.ID.String(), string(rec.Type), func() error {
				return h.HandleEvent(ctx, rec)
			})
		}
	}
}

// ConsumeCommands delivers commands to h until ctx is done.
func (b *Bus) ConsumeCommands(ctx context.Context, h ports.CommandHandler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case env := <-b.commands:
			b.deliver("command", env.ID.String(), string(env.Type), func() error {
				return h.HandleCommand(ctx, env)
			})
		}
	}
}

func (b *Bus) deliver(kind, id, typ string, handle func() error) {
	defer func() {
		if r := recover(); r != nil {
			b.deadLetter(kind, id, typ, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := handle(); err != nil {
		b.deadLetter(kind, id, typ, err)
	}
}

func (b *Bus) deadLetter(kind, id, typ string, cause error) {
	b.mu.Lock()
	b.dead = append(b.dead, DeadLetter{Kind: kind, ID: id, Type: typ, Error: cause.Error()})
	b.mu.Unlock()
	b.log.Warn().Err(cause).Str("kind", kind).Str("msg_id", id).Str("type", typ).Msg("message dead-lettered")
}

// DeadLetters returns a copy of the failed deliveries so far.
func (b *Bus) DeadLetters() []DeadLetter {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]DeadLetter, len(b.dead))
	copy(out, b.dead)
	return out
}
