package domain

import "fmt"

// TransferStatus is the lifecycle of a transfer aggregate.
type TransferStatus string

const (
	TransferStatusRequested TransferStatus = "REQUESTED"
	TransferStatusCompleted TransferStatus = "COMPLETED"
	TransferStatusFailed    TransferStatus = "FAILED"
)

// Transfer is the state of a money transfer request. The saga drives it to a
// final status; the account streams hold the money movements.
type Transfer struct {
	TransactionID TransactionID  `json:"transaction_id"`
	SourceID      AccountID      `json:"source_id"`
	DestinationID AccountID      `json:"destination_id"`
	Amount        Money          `json:"amount"`
	Status        TransferStatus `json:"status"`
	Reason        string         `json:"reason,omitempty"`
}

// DecideTransfer evaluates a transfer command. A nil event with a nil error
// means the command was a redelivery against a finished transfer.
func DecideTransfer(state *Transfer, cmd Command) (Event, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	switch c := cmd.(type) {
	case RequestTransfer:
		if state != nil {
			return nil, fmt.Errorf("%w: %s", ErrTransferExists, c.TransactionID)
		}
		return TransferRequested{
			TransactionID: c.TransactionID,
			SourceID:      c.SourceID,
			DestinationID: c.DestinationID,
			Amount:        c.Amount,
		}, nil

	case CompleteTransfer:
		if state == nil {
			return nil, fmt.Errorf("%w: %s", ErrTransferNotFound, c.TransactionID)
		}
		if state.Status != TransferStatusRequested {
			return nil, nil
		}
		return TransferCompleted{TransactionID: c.TransactionID}, nil

	case FailTransfer:
		if state == nil {
			return nil, fmt.Errorf("%w: %s", ErrTransferNotFound, c.TransactionID)
		}
		if state.Status != TransferStatusRequested {
			return nil, nil
		}
		return TransferFailed{TransactionID: c.TransactionID, Reason: c.Reason}, nil

	case CreateAccount, Withdraw, Deposit, Refund, CloseAccount:
		return nil, fmt.Errorf("%w: %s is not a transfer command", ErrUnknownCommand, cmd.CommandType())
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
}

// ApplyTransfer returns the transfer state after evt.
func ApplyTransfer(state *Transfer, evt Event) (*Transfer, error) {
	switch e := evt.(type) {
	case TransferRequested:
		if state != nil {
			return nil, fmt.Errorf("%w: transfer %s requested twice", ErrStreamCorrupted, e.TransactionID)
		}
		return &Transfer{
			TransactionID: e.TransactionID,
			SourceID:      e.SourceID,
			DestinationID: e.DestinationID,
			Amount:        e.Amount,
			Status:        TransferStatusRequested,
		}, nil
	case TransferCompleted:
		if state == nil || state.Status != TransferStatusRequested {
			return nil, fmt.Errorf("%w: unexpected %s", ErrStreamCorrupted, evt.EventType())
		}
		next := *state
		next.Status = TransferStatusCompleted
		return &next, nil
	case TransferFailed:
		if state == nil || state.Status != TransferStatusRequested {
			return nil, fmt.Errorf("%w: unexpected %s", ErrStreamCorrupted, evt.EventType())
		}
		next := *state
		next.Status = TransferStatusFailed
		next.Reason = e.Reason
		return &next, nil
	case AccountCreated, MoneyWithdrawn, MoneyWithdrawRejected, MoneyDeposited, MoneyDepositRejected,
		MoneyRefunded, MoneyRefundRejected, AccountClosed, AccountCloseRejected:
		return nil, fmt.Errorf("%w: %s in transfer stream", ErrStreamCorrupted, evt.EventType())
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownEvent, evt)
	}
}

// FoldTransfer replays a transfer stream. It returns nil for an empty history.
func FoldTransfer(history []Event) (*Transfer, error) {
	var state *Transfer
	for i, evt := range history {
		next, err := ApplyTransfer(state, evt)
		if err != nil {
			return nil, fmt.Errorf("apply event %d: %w", i+1, err)
		}
		state = next
	}
	return state, nil
}
