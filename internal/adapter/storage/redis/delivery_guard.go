package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DeliveryGuard implements ports.DeliveryGuard with one expiring key per
// processed message.
type DeliveryGuard struct {
	client *goredis.Client
	prefix string
}

// NewDeliveryGuard creates a new Redis-backed delivery guard.
func NewDeliveryGuard(client *goredis.Client) *DeliveryGuard {
	return &DeliveryGuard{
		client: client,
		prefix: "processed:",
	}
}

func (g *DeliveryGuard) key(scope, id string) string {
	return g.prefix + scope + ":" + id
}

// IsProcessed reports whether the message was marked and the marker has not expired.
func (g *DeliveryGuard) IsProcessed(ctx context.Context, scope, id string) (bool, error) {
	n, err := g.client.Exists(ctx, g.key(scope, id)).Result()
	if err != nil {
		return false, fmt.Errorf("redis delivery check: %w", err)
	}
	return n > 0, nil
}

// MarkProcessed records the message. A zero ttl keeps the marker forever.
func (g *DeliveryGuard) MarkProcessed(ctx context.Context, scope, id string, ttl time.Duration) error {
	if err := g.client.Set(ctx, g.key(scope, id), 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis delivery mark: %w", err)
	}
	return nil
}
