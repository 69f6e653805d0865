package domain

import (
	"fmt"
	"strings"
)

// CommandType names a command kind on the wire.
type CommandType string

const (
	CommandCreateAccount    CommandType = "CreateAccount"
	CommandWithdraw         CommandType = "Withdraw"
	CommandDeposit          CommandType = "Deposit"
	CommandRefund           CommandType = "Refund"
	CommandCloseAccount     CommandType = "CloseAccount"
	CommandRequestTransfer  CommandType = "RequestTransfer"
	CommandCompleteTransfer CommandType = "CompleteTransfer"
	CommandFailTransfer     CommandType = "FailTransfer"
)

// Command is the closed set of intents accepted by the aggregates.
type Command interface {
	CommandType() CommandType
	// TargetID is the event stream the command is decided against.
	TargetID() string
	Validate() error
	isCommand()
}

type CreateAccount struct {
	ID             AccountID `json:"id"`
	Name           string    `json:"name"`
	Gender         Gender    `json:"gender"`
	InitialBalance Money     `json:"initialBalance"`
	Tenant         Tenant    `json:"tenant"`
}

type Withdraw struct {
	AccountID     AccountID     `json:"accountId"`
	TransactionID TransactionID `json:"transactionId"`
	Amount        Money         `json:"money"`
}

type Deposit struct {
	AccountID     AccountID     `json:"accountId"`
	TransactionID TransactionID `json:"transactionId"`
	Amount        Money         `json:"money"`
	Tenant        Tenant        `json:"tenant"`
}

type Refund struct {
	AccountID     AccountID     `json:"accountId"`
	TransactionID TransactionID `json:"transactionId"`
	Amount        Money         `json:"money"`
}

type CloseAccount struct {
	AccountID AccountID `json:"accountId"`
}

type RequestTransfer struct {
	TransactionID TransactionID `json:"transactionId"`
	SourceID      AccountID     `json:"sourceId"`
	DestinationID AccountID     `json:"destinationId"`
	Amount        Money         `json:"amount"`
}

type CompleteTransfer struct {
	TransactionID TransactionID `json:"transactionId"`
}

type FailTransfer struct {
	TransactionID TransactionID `json:"transactionId"`
	Reason        string        `json:"reason"`
}

func (CreateAccount) CommandType() CommandType    { return CommandCreateAccount }
func (Withdraw) CommandType() CommandType         { return CommandWithdraw }
func (Deposit) CommandType() CommandType          { return CommandDeposit }
func (Refund) CommandType() CommandType           { return CommandRefund }
func (CloseAccount) CommandType() CommandType     { return CommandCloseAccount }
func (RequestTransfer) CommandType() CommandType  { return CommandRequestTransfer }
func (CompleteTransfer) CommandType() CommandType { return CommandCompleteTransfer }
func (FailTransfer) CommandType() CommandType     { return CommandFailTransfer }

func (c CreateAccount) TargetID() string    { return AccountStream(c.ID) }
func (c Withdraw) TargetID() string         { return AccountStream(c.AccountID) }
func (c Deposit) TargetID() string          { return AccountStream(c.AccountID) }
func (c Refund) TargetID() string           { return AccountStream(c.AccountID) }
func (c CloseAccount) TargetID() string     { return AccountStream(c.AccountID) }
func (c RequestTransfer) TargetID() string  { return TransferStream(c.TransactionID) }
func (c CompleteTransfer) TargetID() string { return TransferStream(c.TransactionID) }
func (c FailTransfer) TargetID() string     { return TransferStream(c.TransactionID) }

func (CreateAccount) isCommand()    {}
func (Withdraw) isCommand()         {}
func (Deposit) isCommand()          {}
func (Refund) isCommand()           {}
func (CloseAccount) isCommand()     {}
func (RequestTransfer) isCommand()  {}
func (CompleteTransfer) isCommand() {}
func (FailTransfer) isCommand()     {}

func (c CreateAccount) Validate() error {
	if c.ID == "" {
		return invalid("account id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return invalid("name is required")
	}
	if c.InitialBalance < 0 {
		return invalid("initial balance must not be negative")
	}
	return nil
}

func (c Withdraw) Validate() error {
	return validateMovement(c.AccountID, c.TransactionID, c.Amount)
}

func (c Deposit) Validate() error {
	return validateMovement(c.AccountID, c.TransactionID, c.Amount)
}

func (c Refund) Validate() error {
	return validateMovement(c.AccountID, c.TransactionID, c.Amount)
}

func (c CloseAccount) Validate() error {
	if c.AccountID == "" {
		return invalid("account id is required")
	}
	return nil
}

func (c RequestTransfer) Validate() error {
	if c.TransactionID == "" {
		return invalid("transaction id is required")
	}
	if c.SourceID == "" || c.DestinationID == "" {
		return invalid("source and destination accounts are required")
	}
	if c.SourceID == c.DestinationID {
		return invalid("source and destination must differ")
	}
	if c.Amount <= 0 {
		return invalid("amount must be positive")
	}
	return nil
}

func (c CompleteTransfer) Validate() error {
	if c.TransactionID == "" {
		return invalid("transaction id is required")
	}
	return nil
}

func (c FailTransfer) Validate() error {
	if c.TransactionID == "" {
		return invalid("transaction id is required")
	}
	return nil
}

func validateMovement(accountID AccountID, txID TransactionID, amount Money) error {
	if accountID == "" {
		return invalid("account id is required")
	}
	if txID == "" {
		return invalid("transaction id is required")
	}
	if amount <= 0 {
		return invalid("amount must be positive")
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidCommand, msg)
}
