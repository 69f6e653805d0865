package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// RecordedEvent is an event as stored in the log and carried by the transport.
type RecordedEvent struct {
	ID         uuid.UUID       `json:"id"`
	Position   int64           `json:"position"` // global order, assigned by the store
	StreamID   string          `json:"stream_id"`
	Version    int64           `json:"version"` // 1-based position within the stream
	Type       EventType       `json:"type"`
	Revision   int             `json:"revision"`
	Payload    json.RawMessage `json:"payload"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// NewRecordedEvent encodes evt at its current revision for appending at version.
func NewRecordedEvent(version int64, evt Event, now time.Time) (RecordedEvent, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return RecordedEvent{}, fmt.Errorf("marshal %s: %w", evt.EventType(), err)
	}
	return RecordedEvent{
		ID:         uuid.New(),
		StreamID:   evt.StreamID(),
		Version:    version,
		Type:       evt.EventType(),
		Revision:   evt.Revision(),
		Payload:    payload,
		RecordedAt: now.UTC(),
	}, nil
}

// Decode returns the typed event, upcasting older revisions.
func (r RecordedEvent) Decode() (Event, error) {
	return DecodeEvent(r.Type, r.Revision, r.Payload)
}

// DecodeHistory decodes a stream and checks that versions are contiguous from 1.
func DecodeHistory(records []RecordedEvent) ([]Event, error) {
	events := make([]Event, 0, len(records))
	for i, rec := range records {
		if rec.Version != int64(i+1) {
			return nil, fmt.Errorf("%w: %s expected version %d got %d", ErrStreamCorrupted, rec.StreamID, i+1, rec.Version)
		}
		evt, err := rec.Decode()
		if err != nil {
			return nil, fmt.Errorf("decode %s v%d: %w", rec.StreamID, rec.Version, err)
		}
		events = append(events, evt)
	}
	return events, nil
}

// DecodeEvent maps a stored (type, revision, payload) triple to its event.
// Every revision ever written stays decodable: fields added later are
// defaulted when absent.
func DecodeEvent(t EventType, revision int, payload []byte) (Event, error) {
	switch t {
	case EventAccountCreated:
		if revision < 1 || revision > 3 {
			return nil, unknownRevision(t, revision)
		}
		e, err := decodeAs[AccountCreated](payload)
		if err != nil {
			return nil, err
		}
		// Revisions 1 and 2 predate gender; revision 1 also predates tenant.
		if e.Gender == "" {
			e.Gender = GenderUnknown
		}
		return e, nil
	case EventMoneyDeposited:
		if revision < 1 || revision > 2 {
			return nil, unknownRevision(t, revision)
		}
		return decodeRev[MoneyDeposited](payload)
	case EventMoneyWithdrawn:
		return decodeRev1[MoneyWithdrawn](t, revision, payload)
	case EventMoneyWithdrawRejected:
		return decodeRev1[MoneyWithdrawRejected](t, revision, payload)
	case EventMoneyDepositRejected:
		return decodeRev1[MoneyDepositRejected](t, revision, payload)
	case EventMoneyRefunded:
		return decodeRev1[MoneyRefunded](t, revision, payload)
	case EventMoneyRefundRejected:
		return decodeRev1[MoneyRefundRejected](t, revision, payload)
	case EventAccountClosed:
		return decodeRev1[AccountClosed](t, revision, payload)
	case EventAccountCloseRejected:
		return decodeRev1[AccountCloseRejected](t, revision, payload)
	case EventTransferRequested:
		return decodeRev1[TransferRequested](t, revision, payload)
	case EventTransferCompleted:
		return decodeRev1[TransferCompleted](t, revision, payload)
	case EventTransferFailed:
		return decodeRev1[TransferFailed](t, revision, payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, t)
	}
}

func decodeRev1[T Event](t EventType, revision int, payload []byte) (Event, error) {
	if revision != 1 {
		return nil, unknownRevision(t, revision)
	}
	return decodeRev[T](payload)
}

func decodeRev[T Event](payload []byte) (Event, error) {
	e, err := decodeAs[T](payload)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func decodeAs[T Event](payload []byte) (T, error) {
	var e T
	if err := json.Unmarshal(payload, &e); err != nil {
		return e, fmt.Errorf("unmarshal %T: %w", e, err)
	}
	return e, nil
}

func unknownRevision(t EventType, revision int) error {
	return fmt.Errorf("%w: %s revision %d", ErrUnknownEvent, t, revision)
}

// CommandEnvelope is a command on the transport. Commands are never stored.
type CommandEnvelope struct {
	ID       uuid.UUID       `json:"id"`
	Type     CommandType     `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	IssuedAt time.Time       `json:"issued_at"`
}

// commandNamespace seeds name-based command ids.
var commandNamespace = uuid.MustParse("7a3c1f0e-5d1b-4a47-9a52-0b6f3f4d8e21")

// DerivedCommandID returns a stable id for the n-th command caused by an event,
// so a redelivered event re-issues commands the transport can recognize.
func DerivedCommandID(causationID uuid.UUID, n int) uuid.UUID {
	return uuid.NewSHA1(commandNamespace, []byte(causationID.String()+"/"+strconv.Itoa(n)))
}

// NewCommandEnvelope encodes cmd for the transport.
func NewCommandEnvelope(id uuid.UUID, cmd Command, now time.Time) (CommandEnvelope, error) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return CommandEnvelope{}, fmt.Errorf("marshal %s: %w", cmd.CommandType(), err)
	}
	return CommandEnvelope{
		ID:       id,
		Type:     cmd.CommandType(),
		Payload:  payload,
		IssuedAt: now.UTC(),
	}, nil
}

// Decode returns the typed command carried by the envelope.
func (e CommandEnvelope) Decode() (Command, error) {
	switch e.Type {
	case CommandCreateAccount:
		return decodeCommand[CreateAccount](e.Payload)
	case CommandWithdraw:
		return decodeCommand[Withdraw](e.Payload)
	case CommandDeposit:
		return decodeCommand[Deposit](e.Payload)
	case CommandRefund:
		return decodeCommand[Refund](e.Payload)
	case CommandCloseAccount:
		return decodeCommand[CloseAccount](e.Payload)
	case CommandRequestTransfer:
		return decodeCommand[RequestTransfer](e.Payload)
	case CommandCompleteTransfer:
		return decodeCommand[CompleteTransfer](e.Payload)
	case CommandFailTransfer:
		return decodeCommand[FailTransfer](e.Payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, e.Type)
	}
}

func decodeCommand[T Command](payload []byte) (Command, error) {
	var c T
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("unmarshal %T: %w", c, err)
	}
	return c, nil
}
