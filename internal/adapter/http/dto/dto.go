package dto

import (
	"time"

	"github.com/pye-wu/axon-demo/internal/core/domain"
	"github.com/pye-wu/axon-demo/internal/core/ports"

	"github.com/google/uuid"
)

// CreateAccountRequest is the request body for opening an account.
type CreateAccountRequest struct {
	AccountID      string `json:"account_id" binding:"omitempty,max=64,safe_id"`
	Name           string `json:"name" binding:"required,min=1,max=100"`
	Gender         string `json:"gender" binding:"omitempty,oneof=MALE FEMALE UNKNOWN male female unknown"`
	InitialBalance int64  `json:"initial_balance" binding:"gte=0"`
}

// MovementRequest is the request body for deposits, withdrawals and refunds.
// A missing transaction_id gets a generated one; resending the same id is a no-op.
type MovementRequest struct {
	TransactionID string `json:"transaction_id" binding:"omitempty,max=64,safe_id"`
	Amount        int64  `json:"amount" binding:"required,gt=0"`
}

// TransferRequest is the request body for a bank transfer.
type TransferRequest struct {
	TransactionID string `json:"transaction_id" binding:"omitempty,max=64,safe_id"`
	SourceID      string `json:"source_id" binding:"required,max=64,safe_id"`
	DestinationID string `json:"destination_id" binding:"required,max=64,safe_id"`
	Amount        int64  `json:"amount" binding:"required,gt=0"`
}

// CommandResponse describes the event a command decided.
type CommandResponse struct {
	AccountID     string    `json:"account_id,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Event         string    `json:"event,omitempty"`
	EventID       uuid.UUID `json:"event_id,omitempty"`
	Version       int64     `json:"version"`
	Rejected      bool      `json:"rejected"`
}

// NewCommandResponse converts a command result. A redelivered command has no event.
func NewCommandResponse(res *ports.CommandResult) CommandResponse {
	out := CommandResponse{
		TransactionID: string(res.TransactionID),
		Version:       res.Version,
		Rejected:      res.Rejected(),
	}
	if res.Event != nil {
		out.Event = string(res.Event.EventType())
		out.EventID = res.EventID
	}
	return out
}

// EventResponse is one entry of an account history.
type EventResponse struct {
	ID         uuid.UUID        `json:"id"`
	Position   int64            `json:"position"`
	Version    int64            `json:"version"`
	Type       domain.EventType `json:"type"`
	Revision   int              `json:"revision"`
	Payload    interface{}      `json:"payload"`
	RecordedAt string           `json:"recorded_at"`
}

// NewEventResponses decodes stored events for display.
func NewEventResponses(recs []domain.RecordedEvent) ([]EventResponse, error) {
	out := make([]EventResponse, 0, len(recs))
	for _, rec := range recs {
		evt, err := rec.Decode()
		if err != nil {
			return nil, err
		}
		out = append(out, EventResponse{
			ID:         rec.ID,
			Position:   rec.Position,
			Version:    rec.Version,
			Type:       rec.Type,
			Revision:   rec.Revision,
			Payload:    evt,
			RecordedAt: rec.RecordedAt.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}
