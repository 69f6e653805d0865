package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecideTransfer(t *testing.T) {
	requested := &Transfer{TransactionID: tx1, SourceID: "a", DestinationID: "b", Amount: 10, Status: TransferStatusRequested}
	completed := &Transfer{TransactionID: tx1, SourceID: "a", DestinationID: "b", Amount: 10, Status: TransferStatusCompleted}

	tests := []struct {
		name    string
		state   *Transfer
		cmd     Command
		want    Event
		wantErr error
	}{
		{
			name: "request",
			cmd:  RequestTransfer{TransactionID: tx1, SourceID: "a", DestinationID: "b", Amount: 10},
			want: TransferRequested{TransactionID: tx1, SourceID: "a", DestinationID: "b", Amount: 10},
		},
		{
			name:    "request twice",
			state:   requested,
			cmd:     RequestTransfer{TransactionID: tx1, SourceID: "a", DestinationID: "b", Amount: 10},
			wantErr: ErrTransferExists,
		},
		{
			name:    "same account",
			cmd:     RequestTransfer{TransactionID: tx1, SourceID: "a", DestinationID: "a", Amount: 10},
			wantErr: ErrInvalidCommand,
		},
		{
			name:    "zero amount",
			cmd:     RequestTransfer{TransactionID: tx1, SourceID: "a", DestinationID: "b"},
			wantErr: ErrInvalidCommand,
		},
		{
			name:  "complete",
			state: requested,
			cmd:   CompleteTransfer{TransactionID: tx1},
			want:  TransferCompleted{TransactionID: tx1},
		},
		{
			name:  "fail",
			state: requested,
			cmd:   FailTransfer{TransactionID: tx1, Reason: ReasonWithdrawRejected},
			want:  TransferFailed{TransactionID: tx1, Reason: ReasonWithdrawRejected},
		},
		{
			name:  "complete finished transfer is a no-op",
			state: completed,
			cmd:   CompleteTransfer{TransactionID: tx1},
		},
		{
			name:  "fail finished transfer is a no-op",
			state: completed,
			cmd:   FailTransfer{TransactionID: tx1, Reason: "late"},
		},
		{
			name:    "complete unknown transfer",
			cmd:     CompleteTransfer{TransactionID: tx1},
			wantErr: ErrTransferNotFound,
		},
		{
			name:    "account command",
			state:   requested,
			cmd:     CloseAccount{AccountID: "a"},
			wantErr: ErrUnknownCommand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt, err := DecideTransfer(tt.state, tt.cmd)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, evt)
		})
	}
}

func TestFoldTransfer(t *testing.T) {
	state, err := FoldTransfer([]Event{
		TransferRequested{TransactionID: tx1, SourceID: "a", DestinationID: "b", Amount: 10},
		TransferFailed{TransactionID: tx1, Reason: ReasonFundsReturned},
	})
	require.NoError(t, err)
	assert.Equal(t, TransferStatusFailed, state.Status)
	assert.Equal(t, ReasonFundsReturned, state.Reason)

	_, err = FoldTransfer([]Event{
		TransferRequested{TransactionID: tx1, SourceID: "a", DestinationID: "b", Amount: 10},
		TransferCompleted{TransactionID: tx1},
		TransferFailed{TransactionID: tx1},
	})
	assert.ErrorIs(t, err, ErrStreamCorrupted)

	_, err = FoldTransfer([]Event{created(1)})
	assert.ErrorIs(t, err, ErrStreamCorrupted)
}
