package redisstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pye-wu/axon-demo/internal/core/domain"
	"github.com/pye-wu/axon-demo/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	fieldMessage = "message"
	fieldError   = "error"
)

// envelope is the stream entry body. Type lets consumers log a message they
// cannot decode.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Options names the streams and tunes the consumer loop.
type Options struct {
	EventStream   string
	CommandStream string
	Group         string
	Consumer      string
	Block         time.Duration
	BatchSize     int64
	DLQSuffix     string
}

// Bus carries events and commands over Redis Streams with one consumer group
// per stream. Failed deliveries are copied to "<stream><DLQSuffix>" and acked.
type Bus struct {
	client *goredis.Client
	opts   Options
	log    zerolog.Logger
}

// New creates a Redis Streams bus. Call Setup before consuming.
func New(client *goredis.Client, opts Options, log zerolog.Logger) *Bus {
	return &Bus{client: client, opts: opts, log: log}
}

// Setup creates both streams and their consumer group if missing.
func (b *Bus) Setup(ctx context.Context) error {
	for _, stream := range []string{b.opts.EventStream, b.opts.CommandStream} {
		err := b.client.XGroupCreateMkStream(ctx, stream, b.opts.Group, "0").Err()
		if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
			return fmt.Errorf("create group %s on %s: %w", b.opts.Group, stream, err)
		}
	}
	return nil
}

// Publish implements ports.EventPublisher.
func (b *Bus) Publish(ctx context.Context, rec domain.RecordedEvent) error {
	return b.add(ctx, b.opts.EventStream, string(rec.Type), rec)
}

// Send implements ports.CommandGateway.
func (b *Bus) Send(ctx context.Context, env domain.CommandEnvelope) error {
	return b.add(ctx, b.opts.CommandStream, string(env.Type), env)
}

func (b *Bus) add(ctx context.Context, stream, typ string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("redis stream: marshal %s: %w", typ, err)
	}
	raw, err := json.Marshal(envelope{Type: typ, Payload: payload})
	if err != nil {
		return fmt.Errorf("redis stream: marshal envelope %s: %w", typ, err)
	}
	if err := b.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: stream,
		Values: map[string]any{fieldMessage: string(raw)},
	}).Err(); err != nil {
		return fmt.Errorf("redis stream: add to %s: %w", stream, err)
	}
	return nil
}

// ConsumeEvents delivers the event stream to h until ctx is done.
func (b *Bus) ConsumeEvents(ctx context.Context, h ports.EventHandler) error {
	return b.consume(ctx, b.opts.EventStream, b.eventHandle(h))
}

// ConsumeCommands delivers the command stream to h until ctx is done.
func (b *Bus) ConsumeCommands(ctx context.Context, h ports.CommandHandler) error {
	return b.consume(ctx, b.opts.CommandStream, b.commandHandle(h))
}

type handleFunc func(ctx context.Context, payload []byte) error

func (b *Bus) eventHandle(h ports.EventHandler) handleFunc {
	return func(ctx context.Context, payload []byte) error {
		var rec domain.RecordedEvent
		if err := json.Unmarshal(payload, &rec); err != nil {
			return fmt.Errorf("unmarshal event: %w", err)
		}
		return h.HandleEvent(ctx, rec)
	}
}

func (b *Bus) commandHandle(h ports.CommandHandler) handleFunc {
	return func(ctx context.Context, payload []byte) error {
		var env domain.CommandEnvelope
		if err := json.Unmarshal(payload, &env); err != nil {
			return fmt.Errorf("unmarshal command: %w", err)
		}
		return h.HandleCommand(ctx, env)
	}
}

func (b *Bus) consume(ctx context.Context, stream string, handle handleFunc) error {
	log := b.log.With().Str("stream", stream).Str("consumer", b.opts.Consumer).Logger()
	log.Info().Msg("stream consumer started")

	for {
		if ctx.Err() != nil {
			log.Info().Msg("stream consumer stopped")
			return nil
		}
		if err := b.poll(ctx, stream, handle); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("error reading from stream")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

// poll reads, handles and acks one batch.
func (b *Bus) poll(ctx context.Context, stream string, handle handleFunc) error {
	res, err := b.client.XReadGroup(ctx, &goredis.XReadGroupArgs{
		Group:    b.opts.Group,
		Consumer: b.opts.Consumer,
		Streams:  []string{stream, ">"},
		Count:    b.opts.BatchSize,
		Block:    b.opts.Block,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		return err
	}

	for _, s := range res {
		for _, msg := range s.Messages {
			b.deliver(ctx, stream, msg, handle)
			if err := b.client.XAck(ctx, stream, b.opts.Group, msg.ID).Err(); err != nil {
				b.log.Error().Err(err).Str("stream", stream).Str("msg_id", msg.ID).Msg("failed to acknowledge message")
			}
		}
	}
	return nil
}

func (b *Bus) deliver(ctx context.Context, stream string, msg goredis.XMessage, handle handleFunc) {
	raw, ok := msg.Values[fieldMessage].(string)
	if !ok {
		b.pushToDLQ(ctx, stream, msg.Values, errors.New("missing message field"))
		return
	}
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		b.pushToDLQ(ctx, stream, msg.Values, fmt.Errorf("unmarshal envelope: %w", err))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Interface("panic", r).Str("type", env.Type).Str("msg_id", msg.ID).Msg("handler panic recovered")
			b.pushToDLQ(ctx, stream, msg.Values, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := handle(ctx, env.Payload); err != nil {
		b.pushToDLQ(ctx, stream, msg.Values, err)
	}
}

// pushToDLQ copies the raw entry and the failure to the dead-letter stream.
func (b *Bus) pushToDLQ(ctx context.Context, stream string, values map[string]any, cause error) {
	dlq := stream + b.opts.DLQSuffix
	entry := make(map[string]any, len(values)+1)
	for k, v := range values {
		entry[k] = v
	}
	entry[fieldError] = cause.Error()

	if err := b.client.XAdd(ctx, &goredis.XAddArgs{Stream: dlq, Values: entry}).Err(); err != nil {
		b.log.Error().Err(err).Str("stream", dlq).Msg("failed to push to DLQ")
		return
	}
	b.log.Warn().Err(cause).Str("stream", dlq).Msg("message pushed to DLQ")
}

// DeadLetter is one entry of a dead-letter stream.
type DeadLetter struct {
	ID      string
	Type    string
	Payload json.RawMessage
	Error   string
}

// DeadLetters lists up to count entries of the dead-letter stream of stream.
func (b *Bus) DeadLetters(ctx context.Context, stream string, count int64) ([]DeadLetter, error) {
	msgs, err := b.client.XRangeN(ctx, stream+b.opts.DLQSuffix, "-", "+", count).Result()
	if err != nil {
		return nil, fmt.Errorf("redis stream: read DLQ of %s: %w", stream, err)
	}
	out := make([]DeadLetter, 0, len(msgs))
	for _, msg := range msgs {
		dl := DeadLetter{ID: msg.ID}
		dl.Error, _ = msg.Values[fieldError].(string)
		if raw, ok := msg.Values[fieldMessage].(string); ok {
			var env envelope
			if err := json.Unmarshal([]byte(raw), &env); err == nil {
				dl.Type = env.Type
				dl.Payload = env.Payload
			}
		}
		out = append(out, dl)
	}
	return out, nil
}
