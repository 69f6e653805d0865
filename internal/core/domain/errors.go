package domain

import "errors"

var (
	// ErrTechnicalFault aborts command handling without emitting an event.
	ErrTechnicalFault = errors.New("technical fault while handling command")
	// ErrConcurrencyConflict means the stream moved past the expected version.
	ErrConcurrencyConflict = errors.New("stream version conflict")
	// ErrAccountNotFound is returned when a command targets an account with no history.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountExists is returned when CreateAccount targets an existing stream.
	ErrAccountExists = errors.New("account already exists")
	// ErrTransferNotFound is returned when a command targets a transfer with no history.
	ErrTransferNotFound = errors.New("transfer not found")
	// ErrTransferExists is returned when RequestTransfer reuses a transaction id.
	ErrTransferExists = errors.New("transfer already exists")
	// ErrInvalidCommand wraps command validation failures.
	ErrInvalidCommand = errors.New("invalid command")
	// ErrClosedAccountMutation is a replay invariant violation: a balance change
	// recorded after the account was closed.
	ErrClosedAccountMutation = errors.New("balance change applied to closed account")
	// ErrNegativeBalance is a replay invariant violation.
	ErrNegativeBalance = errors.New("event carries a negative balance")
	// ErrStreamCorrupted covers replays whose first event is not a creation event
	// or whose versions are not contiguous.
	ErrStreamCorrupted = errors.New("event stream corrupted")
	// ErrUnknownEvent is returned by the codec for unregistered types or revisions.
	ErrUnknownEvent = errors.New("unknown event type or revision")
	// ErrUnknownCommand is returned by the codec for unregistered command types.
	ErrUnknownCommand = errors.New("unknown command type")
	// ErrSagaExists is returned when a saga is created twice for the same transaction.
	ErrSagaExists = errors.New("saga already exists")
	// ErrSagaNotFound is returned when a requested transfer has no saga to
	// receive its events.
	ErrSagaNotFound = errors.New("saga not found")
)
