package domain

// EventType names an event kind in the log and on the wire.
type EventType string

const (
	EventAccountCreated        EventType = "AccountCreated"
	EventMoneyWithdrawn        EventType = "MoneyWithdrawn"
	EventMoneyWithdrawRejected EventType = "MoneyWithdrawRejected"
	EventMoneyDeposited        EventType = "MoneyDeposited"
	EventMoneyDepositRejected  EventType = "MoneyDepositRejected"
	EventMoneyRefunded         EventType = "MoneyRefunded"
	EventMoneyRefundRejected   EventType = "MoneyRefundRejected"
	EventAccountClosed         EventType = "AccountClosed"
	EventAccountCloseRejected  EventType = "AccountCloseRejected"
	EventTransferRequested     EventType = "TransferRequested"
	EventTransferCompleted     EventType = "TransferCompleted"
	EventTransferFailed        EventType = "TransferFailed"
)

// Event is the closed set of facts recorded in the log. Only types in this
// package implement it.
type Event interface {
	EventType() EventType
	// Revision is the payload schema version written by current code.
	Revision() int
	StreamID() string
	isEvent()
}

// Correlated is implemented by events that belong to a transaction.
type Correlated interface {
	Event
	CorrelationID() TransactionID
}

type AccountCreated struct {
	ID      AccountID `json:"id"`
	Name    string    `json:"name"`
	Gender  Gender    `json:"gender"` // added in revision 3
	Balance Money     `json:"balance"`
	Tenant  Tenant    `json:"tenant"` // added in revision 2
}

type MoneyWithdrawn struct {
	AccountID     AccountID     `json:"accountId"`
	TransactionID TransactionID `json:"transactionId"`
	Amount        Money         `json:"money"`
	Balance       Money         `json:"balance"`
}

type MoneyWithdrawRejected struct {
	AccountID     AccountID     `json:"accountId"`
	TransactionID TransactionID `json:"transactionId"`
	Amount        Money         `json:"money"`
	Balance       Money         `json:"balance"`
}

type MoneyDeposited struct {
	AccountID     AccountID     `json:"accountId"`
	TransactionID TransactionID `json:"transactionId"`
	Amount        Money         `json:"money"`
	Balance       Money         `json:"balance"`
	Tenant        Tenant        `json:"tenant"` // added in revision 2
}

type MoneyDepositRejected struct {
	AccountID     AccountID     `json:"accountId"`
	TransactionID TransactionID `json:"transactionId"`
	Amount        Money         `json:"money"`
}

type MoneyRefunded struct {
	AccountID     AccountID     `json:"accountId"`
	TransactionID TransactionID `json:"transactionId"`
	Amount        Money         `json:"money"`
	Balance       Money         `json:"balance"`
}

type MoneyRefundRejected struct {
	AccountID     AccountID     `json:"accountId"`
	TransactionID TransactionID `json:"transactionId"`
	Amount        Money         `json:"money"`
}

type AccountClosed struct {
	AccountID AccountID `json:"accountId"`
}

type AccountCloseRejected struct {
	AccountID AccountID `json:"accountId"`
	Balance   Money     `json:"balance"`
}

type TransferRequested struct {
	TransactionID TransactionID `json:"transactionId"`
	SourceID      AccountID     `json:"sourceId"`
	DestinationID AccountID     `json:"destinationId"`
	Amount        Money         `json:"amount"`
}

type TransferCompleted struct {
	TransactionID TransactionID `json:"transactionId"`
}

type TransferFailed struct {
	TransactionID TransactionID `json:"transactionId"`
	Reason        string        `json:"reason"`
}

func (AccountCreated) EventType() EventType        { return EventAccountCreated }
func (MoneyWithdrawn) EventType() EventType        { return EventMoneyWithdrawn }
func (MoneyWithdrawRejected) EventType() EventType { return EventMoneyWithdrawRejected }
func (MoneyDeposited) EventType() EventType        { return EventMoneyDeposited }
func (MoneyDepositRejected) EventType() EventType  { return EventMoneyDepositRejected }
func (MoneyRefunded) EventType() EventType         { return EventMoneyRefunded }
func (MoneyRefundRejected) EventType() EventType   { return EventMoneyRefundRejected }
func (AccountClosed) EventType() EventType         { return EventAccountClosed }
func (AccountCloseRejected) EventType() EventType  { return EventAccountCloseRejected }
func (TransferRequested) EventType() EventType     { return EventTransferRequested }
func (TransferCompleted) EventType() EventType     { return EventTransferCompleted }
func (TransferFailed) EventType() EventType        { return EventTransferFailed }

func (AccountCreated) Revision() int        { return 3 }
func (MoneyWithdrawn) Revision() int        { return 1 }
func (MoneyWithdrawRejected) Revision() int { return 1 }
func (MoneyDeposited) Revision() int        { return 2 }
func (MoneyDepositRejected) Revision() int  { return 1 }
func (MoneyRefunded) Revision() int         { return 1 }
func (MoneyRefundRejected) Revision() int   { return 1 }
func (AccountClosed) Revision() int         { return 1 }
func (AccountCloseRejected) Revision() int  { return 1 }
func (TransferRequested) Revision() int     { return 1 }
func (TransferCompleted) Revision() int     { return 1 }
func (TransferFailed) Revision() int        { return 1 }

func (e AccountCreated) StreamID() string        { return AccountStream(e.ID) }
func (e MoneyWithdrawn) StreamID() string        { return AccountStream(e.AccountID) }
func (e MoneyWithdrawRejected) StreamID() string { return AccountStream(e.AccountID) }
func (e MoneyDeposited) StreamID() string        { return AccountStream(e.AccountID) }
func (e MoneyDepositRejected) StreamID() string  { return AccountStream(e.AccountID) }
func (e MoneyRefunded) StreamID() string         { return AccountStream(e.AccountID) }
func (e MoneyRefundRejected) StreamID() string   { return AccountStream(e.AccountID) }
func (e AccountClosed) StreamID() string         { return AccountStream(e.AccountID) }
func (e AccountCloseRejected) StreamID() string  { return AccountStream(e.AccountID) }
func (e TransferRequested) StreamID() string     { return TransferStream(e.TransactionID) }
func (e TransferCompleted) StreamID() string     { return TransferStream(e.TransactionID) }
func (e TransferFailed) StreamID() string        { return TransferStream(e.TransactionID) }

func (AccountCreated) isEvent()        {}
func (MoneyWithdrawn) isEvent()        {}
func (MoneyWithdrawRejected) isEvent() {}
func (MoneyDeposited) isEvent()        {}
func (MoneyDepositRejected) isEvent()  {}
func (MoneyRefunded) isEvent()         {}
func (MoneyRefundRejected) isEvent()   {}
func (AccountClosed) isEvent()         {}
func (AccountCloseRejected) isEvent()  {}
func (TransferRequested) isEvent()     {}
func (TransferCompleted) isEvent()     {}
func (TransferFailed) isEvent()        {}

func (e MoneyWithdrawn) CorrelationID() TransactionID        { return e.TransactionID }
func (e MoneyWithdrawRejected) CorrelationID() TransactionID { return e.TransactionID }
func (e MoneyDeposited) CorrelationID() TransactionID        { return e.TransactionID }
func (e MoneyDepositRejected) CorrelationID() TransactionID  { return e.TransactionID }
func (e MoneyRefunded) CorrelationID() TransactionID         { return e.TransactionID }
func (e MoneyRefundRejected) CorrelationID() TransactionID   { return e.TransactionID }
func (e TransferRequested) CorrelationID() TransactionID     { return e.TransactionID }
func (e TransferCompleted) CorrelationID() TransactionID     { return e.TransactionID }
func (e TransferFailed) CorrelationID() TransactionID        { return e.TransactionID }

// IsRejection reports whether the event records a declined command.
func IsRejection(e Event) bool {
	switch e.(type) {
	case MoneyWithdrawRejected, MoneyDepositRejected, MoneyRefundRejected, AccountCloseRejected:
		return true
	default:
		return false
	}
}
