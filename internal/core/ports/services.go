package ports

import (
	"context"
	"time"

	"github.com/pye-wu/axon-demo/internal/core/domain"

	"github.com/google/uuid"
)

// --- Transport Ports ---

// EventPublisher puts a recorded event on the event transport.
type EventPublisher interface {
	Publish(ctx context.Context, rec domain.RecordedEvent) error
}

// CommandGateway puts a command on the command transport.
type CommandGateway interface {
	Send(ctx context.Context, env domain.CommandEnvelope) error
}

// EventHandler consumes delivered events. A returned error dead-letters the message.
type EventHandler interface {
	HandleEvent(ctx context.Context, rec domain.RecordedEvent) error
}

// CommandHandler consumes delivered commands. A returned error dead-letters the message.
type CommandHandler interface {
	HandleCommand(ctx context.Context, env domain.CommandEnvelope) error
}

// Locker serializes work per key: one account stream or one transaction id.
type Locker interface {
	// Lock blocks until key is held or ctx is done. The returned func releases it.
	Lock(ctx context.Context, key string) (func(), error)
}

// --- Service Ports (Business Logic) ---

// CommandResult describes what a command decided.
type CommandResult struct {
	StreamID      string
	TransactionID domain.TransactionID
	// Event is nil when the command was a no-op redelivery.
	Event   domain.Event
	EventID uuid.UUID
	Version int64
}

// Rejected reports whether the command was declined by business rules.
func (r *CommandResult) Rejected() bool {
	return r.Event != nil && domain.IsRejection(r.Event)
}

// AccountView is the folded account with the stream version it was read at.
type AccountView struct {
	domain.Account
	Version int64 `json:"version"`
}

// AccountService handles account commands and queries.
type AccountService interface {
	Execute(ctx context.Context, cmd domain.Command) (*CommandResult, error)
	GetAccount(ctx context.Context, id domain.AccountID) (*AccountView, error)
	History(ctx context.Context, id domain.AccountID) ([]domain.RecordedEvent, error)
}

// TransferView joins the transfer aggregate with its saga, if one exists yet.
type TransferView struct {
	Transfer domain.Transfer      `json:"transfer"`
	Saga     *domain.TransferSaga `json:"saga,omitempty"`
}

// TransferService handles transfer commands and queries.
type TransferService interface {
	RequestTransfer(ctx context.Context, cmd domain.RequestTransfer) (*CommandResult, error)
	Execute(ctx context.Context, cmd domain.Command) (*CommandResult, error)
	GetTransfer(ctx context.Context, txID domain.TransactionID) (*TransferView, error)
}

// --- Infrastructure Ports ---

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}

// RateLimitStore counts requests per key in fixed windows.
type RateLimitStore interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}
