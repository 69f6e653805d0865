package domain

import (
	"strings"

	"github.com/google/uuid"
)

// AccountID identifies an account aggregate. Generated once, never reused.
type AccountID string

// TransactionID scopes a transfer or a single withdraw/deposit/refund attempt.
// It is the saga correlation key.
type TransactionID string

// Money is an amount in minor currency units.
type Money int64

// Tenant labels the business segment a request was issued for. Audit only.
type Tenant string

// NewAccountID returns a fresh random account identifier.
func NewAccountID() AccountID {
	return AccountID(uuid.NewString())
}

// NewTransactionID returns a fresh random transaction identifier.
func NewTransactionID() TransactionID {
	return TransactionID(uuid.NewString())
}

// Gender is recorded on account creation since AccountCreated revision 3.
type Gender string

const (
	GenderMale    Gender = "MALE"
	GenderFemale  Gender = "FEMALE"
	GenderUnknown Gender = "UNKNOWN"
)

// ParseGender normalizes a gender label. Anything unrecognized maps to UNKNOWN.
func ParseGender(s string) Gender {
	switch Gender(strings.ToUpper(strings.TrimSpace(s))) {
	case GenderMale:
		return GenderMale
	case GenderFemale:
		return GenderFemale
	default:
		return GenderUnknown
	}
}

// AccountStatus is the lifecycle state of an account. CLOSED is terminal.
type AccountStatus string

const (
	AccountStatusActive AccountStatus = "ACTIVE"
	AccountStatusClosed AccountStatus = "CLOSED"
)

// AccountStream returns the event stream id for an account.
func AccountStream(id AccountID) string {
	return "account-" + string(id)
}

// TransferStream returns the event stream id for a transfer.
func TransferStream(id TransactionID) string {
	return "transfer-" + string(id)
}
