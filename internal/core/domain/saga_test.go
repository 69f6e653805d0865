package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	src AccountID = "acc-src"
	dst AccountID = "acc-dst"
)

func newSaga(t *testing.T) *TransferSaga {
	t.Helper()
	s, cmds := StartTransferSaga(TransferRequested{TransactionID: tx1, SourceID: src, DestinationID: dst, Amount: 40})
	require.Equal(t, []Command{Withdraw{AccountID: src, TransactionID: tx1, Amount: 40}}, cmds)
	require.Equal(t, SagaStarted, s.State)
	return s
}

func TestTransferSaga_HappyPath(t *testing.T) {
	s := newSaga(t)

	cmds := s.Handle(MoneyWithdrawn{AccountID: src, TransactionID: tx1, Amount: 40, Balance: 60})
	assert.Equal(t, []Command{Deposit{AccountID: dst, TransactionID: tx1, Amount: 40}}, cmds)
	assert.Equal(t, SagaAwaitingDeposit, s.State)

	cmds = s.Handle(MoneyDeposited{AccountID: dst, TransactionID: tx1, Amount: 40, Balance: 40})
	assert.Equal(t, []Command{CompleteTransfer{TransactionID: tx1}}, cmds)
	assert.Equal(t, SagaCompleted, s.State)
	assert.True(t, s.Ended())
}

func TestTransferSaga_WithdrawRejected(t *testing.T) {
	s := newSaga(t)

	cmds := s.Handle(MoneyWithdrawRejected{AccountID: src, TransactionID: tx1, Amount: 40, Balance: 10})
	assert.Equal(t, []Command{FailTransfer{TransactionID: tx1, Reason: ReasonWithdrawRejected}}, cmds)
	assert.Equal(t, SagaFailed, s.State)
}

func TestTransferSaga_CompensationPath(t *testing.T) {
	s := newSaga(t)
	s.Handle(MoneyWithdrawn{AccountID: src, TransactionID: tx1, Amount: 40, Balance: 60})

	cmds := s.Handle(MoneyDepositRejected{AccountID: dst, TransactionID: tx1, Amount: 40})
	assert.Equal(t, []Command{Deposit{AccountID: src, TransactionID: tx1, Amount: 40}}, cmds)
	assert.Equal(t, SagaAwaitingDeposit, s.State)
	assert.True(t, s.CompensationIssued)

	// Redelivered rejection must not issue a second compensation.
	assert.Nil(t, s.Handle(MoneyDepositRejected{AccountID: dst, TransactionID: tx1, Amount: 40}))

	cmds = s.Handle(MoneyDeposited{AccountID: src, TransactionID: tx1, Amount: 40, Balance: 100})
	assert.Equal(t, []Command{FailTransfer{TransactionID: tx1, Reason: ReasonFundsReturned}}, cmds)
	assert.Equal(t, SagaFailed, s.State)
}

func TestTransferSaga_CompensationRejected(t *testing.T) {
	s := newSaga(t)
	s.Handle(MoneyWithdrawn{AccountID: src, TransactionID: tx1, Amount: 40, Balance: 60})
	s.Handle(MoneyDepositRejected{AccountID: dst, TransactionID: tx1, Amount: 40})

	cmds := s.Handle(MoneyDepositRejected{AccountID: src, TransactionID: tx1, Amount: 40})
	assert.Equal(t, []Command{FailTransfer{TransactionID: tx1, Reason: ReasonCompensationRejected}}, cmds)
	assert.Equal(t, SagaDeadLettered, s.State)
	assert.True(t, s.Ended())
}

func TestTransferSaga_IgnoresOutOfOrderAndRedelivered(t *testing.T) {
	s := newSaga(t)

	assert.Nil(t, s.Handle(MoneyDeposited{AccountID: dst, TransactionID: tx1, Amount: 40}), "deposit before withdraw")
	assert.Nil(t, s.Handle(MoneyWithdrawn{AccountID: dst, TransactionID: tx1, Amount: 40}), "withdraw from wrong account")
	assert.Equal(t, SagaStarted, s.State)

	s.Handle(MoneyWithdrawn{AccountID: src, TransactionID: tx1, Amount: 40})
	assert.Nil(t, s.Handle(MoneyWithdrawn{AccountID: src, TransactionID: tx1, Amount: 40}), "redelivered withdraw")
	assert.Nil(t, s.Handle(TransferRequested{TransactionID: tx1, SourceID: src, DestinationID: dst, Amount: 40}))

	s.Handle(MoneyDeposited{AccountID: dst, TransactionID: tx1, Amount: 40})
	assert.Nil(t, s.Handle(MoneyDeposited{AccountID: dst, TransactionID: tx1, Amount: 40}), "ended saga")
	assert.Equal(t, SagaCompleted, s.State)
}
