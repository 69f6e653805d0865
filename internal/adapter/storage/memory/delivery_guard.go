package memory

import (
	"context"
	"sync"
	"time"
)

// DeliveryGuard keeps processed markers in memory until their TTL passes.
type DeliveryGuard struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewDeliveryGuard() *DeliveryGuard {
	return &DeliveryGuard{expires: make(map[string]time.Time), now: time.Now}
}

func (g *DeliveryGuard) IsProcessed(_ context.Context, scope, id string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := scope + ":" + id
	exp, ok := g.expires[key]
	if !ok {
		return false, nil
	}
	if !exp.IsZero() && !g.now().Before(exp) {
		delete(g.expires, key)
		return false, nil
	}
	return true, nil
}

// MarkProcessed records id under scope. A zero ttl never expires.
func (g *DeliveryGuard) MarkProcessed(_ context.Context, scope, id string, ttl time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var exp time.Time
	if ttl > 0 {
		exp = g.now().Add(ttl)
	}
	g.expires[scope+":"+id] = exp
	return nil
}
