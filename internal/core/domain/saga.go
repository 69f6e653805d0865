package domain

import "time"

// SagaState is the position of a bank transfer saga.
type SagaState string

const (
	SagaStarted         SagaState = "STARTED"
	SagaAwaitingDeposit SagaState = "AWAITING_DEPOSIT"
	SagaCompleted       SagaState = "COMPLETED"
	SagaFailed          SagaState = "FAILED"
	// SagaDeadLettered means the compensating deposit was rejected too. The
	// withdrawn amount is parked and needs manual repair.
	SagaDeadLettered SagaState = "DEAD_LETTERED"
)

// Failure reasons carried by FailTransfer.
const (
	ReasonWithdrawRejected     = "withdraw rejected by source account"
	ReasonFundsReturned        = "deposit rejected by destination account, funds returned to source"
	ReasonCompensationRejected = "deposit rejected by destination account and compensating deposit rejected by source account"
)

// TransferSaga coordinates one transfer across the source and destination
// accounts. It is correlated solely by TransactionID.
type TransferSaga struct {
	TransactionID      TransactionID `json:"transaction_id"`
	SourceID           AccountID     `json:"source_id"`
	DestinationID      AccountID     `json:"destination_id"`
	Amount             Money         `json:"amount"`
	State              SagaState     `json:"state"`
	CompensationIssued bool          `json:"compensation_issued"`
	Version            int64         `json:"version"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// StartTransferSaga creates the saga for a transfer request and returns the
// withdraw command that opens it.
func StartTransferSaga(e TransferRequested) (*TransferSaga, []Command) {
	s := &TransferSaga{
		TransactionID: e.TransactionID,
		SourceID:      e.SourceID,
		DestinationID: e.DestinationID,
		Amount:        e.Amount,
		State:         SagaStarted,
	}
	return s, []Command{Withdraw{
		AccountID:     e.SourceID,
		TransactionID: e.TransactionID,
		Amount:        e.Amount,
	}}
}

// Ended reports whether the saga reached a terminal state and stops listening.
func (s *TransferSaga) Ended() bool {
	switch s.State {
	case SagaCompleted, SagaFailed, SagaDeadLettered:
		return true
	default:
		return false
	}
}

// Handle advances the saga with a correlated event and returns the commands to
// issue. Events that do not fit the current state (redeliveries, events from
// other participants) yield no commands and leave the saga untouched.
func (s *TransferSaga) Handle(evt Event) []Command {
	if s.Ended() {
		return nil
	}

	switch e := evt.(type) {
	case MoneyWithdrawn:
		if s.State != SagaStarted || e.AccountID != s.SourceID {
			return nil
		}
		s.State = SagaAwaitingDeposit
		return []Command{Deposit{
			AccountID:     s.DestinationID,
			TransactionID: s.TransactionID,
			Amount:        e.Amount,
		}}

	case MoneyWithdrawRejected:
		if s.State != SagaStarted || e.AccountID != s.SourceID {
			return nil
		}
		s.State = SagaFailed
		return []Command{s.fail(ReasonWithdrawRejected)}

	case MoneyDepositRejected:
		if s.State != SagaAwaitingDeposit {
			return nil
		}
		if !s.CompensationIssued && e.AccountID == s.DestinationID {
			s.CompensationIssued = true
			return []Command{Deposit{
				AccountID:     s.SourceID,
				TransactionID: s.TransactionID,
				Amount:        e.Amount,
			}}
		}
		if s.CompensationIssued && e.AccountID == s.SourceID {
			s.State = SagaDeadLettered
			return []Command{s.fail(ReasonCompensationRejected)}
		}
		return nil

	case MoneyDeposited:
		if s.State != SagaAwaitingDeposit {
			return nil
		}
		if !s.CompensationIssued && e.AccountID == s.DestinationID {
			s.State = SagaCompleted
			return []Command{CompleteTransfer{TransactionID: s.TransactionID}}
		}
		if s.CompensationIssued && e.AccountID == s.SourceID {
			s.State = SagaFailed
			return []Command{s.fail(ReasonFundsReturned)}
		}
		return nil

	case TransferRequested, TransferCompleted, TransferFailed,
		MoneyRefunded, MoneyRefundRejected,
		AccountCreated, AccountClosed, AccountCloseRejected:
		return nil
	default:
		return nil
	}
}

func (s *TransferSaga) fail(reason string) Command {
	return FailTransfer{TransactionID: s.TransactionID, Reason: reason}
}
