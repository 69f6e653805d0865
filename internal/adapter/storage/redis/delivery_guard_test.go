package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGuard(t *testing.T) (*DeliveryGuard, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	return NewDeliveryGuard(client), s
}

func TestDeliveryGuard_MarkAndCheck(t *testing.T) {
	guard, s := setupGuard(t)
	ctx := context.Background()

	done, err := guard.IsProcessed(ctx, "command", "cmd-1")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, guard.MarkProcessed(ctx, "command", "cmd-1", time.Hour))

	done, err = guard.IsProcessed(ctx, "command", "cmd-1")
	require.NoError(t, err)
	assert.True(t, done)
	assert.True(t, s.Exists("processed:command:cmd-1"))
}

func TestDeliveryGuard_ScopesAreSeparate(t *testing.T) {
	guard, _ := setupGuard(t)
	ctx := context.Background()

	require.NoError(t, guard.MarkProcessed(ctx, "saga", "evt-1", time.Hour))

	done, err := guard.IsProcessed(ctx, "command", "evt-1")
	require.NoError(t, err)
	assert.False(t, done, "same id in another scope is not processed")
}

func TestDeliveryGuard_Expiry(t *testing.T) {
	guard, s := setupGuard(t)
	ctx := context.Background()

	require.NoError(t, guard.MarkProcessed(ctx, "saga", "evt-1", time.Minute))
	require.NoError(t, guard.MarkProcessed(ctx, "saga", "evt-2", 0))

	s.FastForward(2 * time.Minute)

	done, err := guard.IsProcessed(ctx, "saga", "evt-1")
	require.NoError(t, err)
	assert.False(t, done, "expired marker lets the message through")

	done, err = guard.IsProcessed(ctx, "saga", "evt-2")
	require.NoError(t, err)
	assert.True(t, done, "zero ttl never expires")
}

func TestDeliveryGuard_ConnectionError(t *testing.T) {
	guard, s := setupGuard(t)
	s.Close()

	_, err := guard.IsProcessed(context.Background(), "command", "cmd-1")
	assert.ErrorContains(t, err, "redis delivery check")
}
