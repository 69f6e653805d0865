package domain

import (
	"fmt"
	"strings"
)

// FaultyDepositAmount is reserved to simulate an infrastructure failure: a
// deposit of exactly this amount aborts with ErrTechnicalFault and records nothing.
const FaultyDepositAmount Money = 666

// Account is the state of the account aggregate, rebuilt from its events.
type Account struct {
	ID       AccountID     `json:"id"`
	Name     string        `json:"name"`
	LastName string        `json:"last_name,omitempty"`
	Gender   Gender        `json:"gender"`
	Balance  Money         `json:"balance"`
	Status   AccountStatus `json:"status"`
	Tenant   Tenant        `json:"tenant,omitempty"`
}

// IsActive reports whether the account still accepts balance changes.
func (a Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// CanWithdraw reports whether amount can leave the account without overdrawing it.
func (a Account) CanWithdraw(amount Money) bool {
	return a.IsActive() && a.Balance >= amount
}

// CanClose reports whether the account is empty.
func (a Account) CanClose() bool {
	return a.Balance == 0
}

// DecideAccount evaluates cmd against the current state (nil when the account
// has no history) and returns the single event it produces. Business
// rejections are returned as rejection events; errors are reserved for invalid
// commands, addressing mistakes and technical faults.
func DecideAccount(state *Account, cmd Command) (Event, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if c, ok := cmd.(CreateAccount); ok {
		if state != nil {
			return nil, fmt.Errorf("%w: %s", ErrAccountExists, c.ID)
		}
		gender := c.Gender
		if gender == "" {
			gender = GenderUnknown
		}
		return AccountCreated{
			ID:      c.ID,
			Name:    strings.TrimSpace(c.Name),
			Gender:  gender,
			Balance: c.InitialBalance,
			Tenant:  c.Tenant,
		}, nil
	}

	if state == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, cmd.TargetID())
	}

	switch c := cmd.(type) {
	case Withdraw:
		if state.CanWithdraw(c.Amount) {
			return MoneyWithdrawn{
				AccountID:     c.AccountID,
				TransactionID: c.TransactionID,
				Amount:        c.Amount,
				Balance:       state.Balance - c.Amount,
			}, nil
		}
		return MoneyWithdrawRejected{
			AccountID:     c.AccountID,
			TransactionID: c.TransactionID,
			Amount:        c.Amount,
			Balance:       state.Balance,
		}, nil

	case Deposit:
		if !state.IsActive() {
			return MoneyDepositRejected{
				AccountID:     c.AccountID,
				TransactionID: c.TransactionID,
				Amount:        c.Amount,
			}, nil
		}
		if c.Amount == FaultyDepositAmount {
			return nil, fmt.Errorf("%w: deposit of %d into %s", ErrTechnicalFault, c.Amount, c.AccountID)
		}
		return MoneyDeposited{
			AccountID:     c.AccountID,
			TransactionID: c.TransactionID,
			Amount:        c.Amount,
			Balance:       state.Balance + c.Amount,
			Tenant:        c.Tenant,
		}, nil

	case Refund:
		if !state.IsActive() {
			return MoneyRefundRejected{
				AccountID:     c.AccountID,
				TransactionID: c.TransactionID,
				Amount:        c.Amount,
			}, nil
		}
		return MoneyRefunded{
			AccountID:     c.AccountID,
			TransactionID: c.TransactionID,
			Amount:        c.Amount,
			Balance:       state.Balance + c.Amount,
		}, nil

	case CloseAccount:
		if state.CanClose() {
			return AccountClosed{AccountID: c.AccountID}, nil
		}
		return AccountCloseRejected{AccountID: c.AccountID, Balance: state.Balance}, nil

	case CreateAccount, RequestTransfer, CompleteTransfer, FailTransfer:
		return nil, fmt.Errorf("%w: %s is not an account command", ErrUnknownCommand, cmd.CommandType())
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
}

// ApplyAccount returns the state after evt. It never consults anything but the
// event, so replays are deterministic. Errors are invariant violations that
// mean the stream itself is broken.
func ApplyAccount(state *Account, evt Event) (*Account, error) {
	if e, ok := evt.(AccountCreated); ok {
		if state != nil {
			return nil, fmt.Errorf("%w: account %s created twice", ErrStreamCorrupted, e.ID)
		}
		if e.Balance < 0 {
			return nil, fmt.Errorf("%w: %s opened with %d", ErrNegativeBalance, e.ID, e.Balance)
		}
		next := Account{
			ID:      e.ID,
			Name:    e.Name,
			Gender:  e.Gender,
			Balance: e.Balance,
			Status:  AccountStatusActive,
			Tenant:  e.Tenant,
		}
		if _, last, found := strings.Cut(e.Name, " "); found {
			next.LastName = last
		}
		return &next, nil
	}

	if state == nil {
		return nil, fmt.Errorf("%w: %s before AccountCreated", ErrStreamCorrupted, evt.EventType())
	}
	next := *state

	switch e := evt.(type) {
	case MoneyDeposited:
		if err := next.moveBalance(e.AccountID, e.Balance, evt); err != nil {
			return nil, err
		}
	case MoneyRefunded:
		if err := next.moveBalance(e.AccountID, e.Balance, evt); err != nil {
			return nil, err
		}
	case MoneyWithdrawn:
		if err := next.moveBalance(e.AccountID, e.Balance, evt); err != nil {
			return nil, err
		}
	case AccountClosed:
		if err := next.owns(e.AccountID, evt); err != nil {
			return nil, err
		}
		next.Status = AccountStatusClosed
	// Rejections are informational and leave the state untouched.
	case MoneyWithdrawRejected:
		if err := next.owns(e.AccountID, evt); err != nil {
			return nil, err
		}
	case MoneyDepositRejected:
		if err := next.owns(e.AccountID, evt); err != nil {
			return nil, err
		}
	case MoneyRefundRejected:
		if err := next.owns(e.AccountID, evt); err != nil {
			return nil, err
		}
	case AccountCloseRejected:
		if err := next.owns(e.AccountID, evt); err != nil {
			return nil, err
		}
	case TransferRequested, TransferCompleted, TransferFailed:
		return nil, fmt.Errorf("%w: %s in account stream", ErrStreamCorrupted, evt.EventType())
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownEvent, evt)
	}
	return &next, nil
}

// FoldAccount replays history from the absent state. It returns nil for an
// empty history.
func FoldAccount(history []Event) (*Account, error) {
	var state *Account
	for i, evt := range history {
		next, err := ApplyAccount(state, evt)
		if err != nil {
			return nil, fmt.Errorf("apply event %d: %w", i+1, err)
		}
		state = next
	}
	return state, nil
}

func (a *Account) owns(id AccountID, evt Event) error {
	if id != a.ID {
		return fmt.Errorf("%w: %s for %s in stream of %s", ErrStreamCorrupted, evt.EventType(), id, a.ID)
	}
	return nil
}

func (a *Account) moveBalance(id AccountID, balance Money, evt Event) error {
	if err := a.owns(id, evt); err != nil {
		return err
	}
	if !a.IsActive() {
		return fmt.Errorf("%w: %s on %s", ErrClosedAccountMutation, evt.EventType(), a.ID)
	}
	if balance < 0 {
		return fmt.Errorf("%w: %s on %s", ErrNegativeBalance, evt.EventType(), a.ID)
	}
	a.Balance = balance
	return nil
}
