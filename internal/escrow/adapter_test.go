package escrow

import (
	"context"
	"testing"
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChainClient struct {
	submitResult *ProcessedTransaction
	submitErr    error
	history      []RawLedgerEntry
}

func (f *fakeChainClient) SubmitTransaction(ctx context.Context, signedTx []byte) (*ProcessedTransaction, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return f.submitResult, nil
}

func (f *fakeChainClient) GetAccountInfo(ctx context.Context, address string) (*AccountInfo, error) {
	return &AccountInfo{Balance: "100.00", Nonce: 1}, nil
}

func (f *fakeChainClient) GetTransactionStatus(ctx context.Context, hash string) (string, error) {
	return "confirmed", nil
}

func (f *fakeChainClient) GetTransactionHistory(ctx context.Context, address string) ([]RawLedgerEntry, error) {
	return f.history, nil
}

func TestAdapter_CreateEscrowNormalizesHash(t *testing.T) {
	client := &fakeChainClient{submitResult: &ProcessedTransaction{Signature: "abc", Status: "pending"}}
	adapter := NewAdapter(client)

	e, result, err := adapter.CreateEscrow(context.Background(), domain.EscrowParams{
		Amount: 100_00, ExpiresAtUTC: time.Now().Add(time.Hour), RecipientAddress: "alice", Purpose: domain.EscrowPurposeDeposit,
	}, []byte("signed"))

	require.NoError(t, err)
	assert.Equal(t, "0xabc", result.Hash)
	assert.Equal(t, "0xabc", e.TxHash)
	assert.Equal(t, domain.EscrowStatusPending, e.Status)
}

func TestAdapter_CreateEscrowWrapsChainFailure(t *testing.T) {
	client := &fakeChainClient{submitErr: assertErrType{}}
	adapter := NewAdapter(client)

	_, _, err := adapter.CreateEscrow(context.Background(), domain.EscrowParams{Amount: 100_00}, []byte("signed"))
	assert.ErrorIs(t, err, domain.ErrChainSubmission)
}

type assertErrType struct{}

func (assertErrType) Error() string { return "chain unreachable" }

func TestAdapter_PrepareCreateEscrowReturnsUnsignedObjectWithoutSubmitting(t *testing.T) {
	client := &fakeChainClient{submitErr: assertErrType{}}
	adapter := NewAdapter(client)

	e, unsigned, err := adapter.PrepareCreateEscrow(context.Background(), domain.EscrowParams{
		Amount: 100_00, ExpiresAtUTC: time.Now().Add(time.Hour), RecipientAddress: "alice", Purpose: domain.EscrowPurposeDeposit,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.EscrowStatusPending, e.Status)
	assert.Empty(t, e.TxHash)
	assert.Equal(t, e.InternalID, unsigned.InternalID)
	assert.Equal(t, int64(100_00), unsigned.Amount)
	assert.Equal(t, "alice", unsigned.RecipientAddress)
}

func TestAdapter_SubmitSignedTransactionStampsEscrowHash(t *testing.T) {
	client := &fakeChainClient{submitResult: &ProcessedTransaction{Signature: "def", Status: "pending"}}
	adapter := NewAdapter(client)

	e, _, err := adapter.PrepareCreateEscrow(context.Background(), domain.EscrowParams{Amount: 100_00})
	require.NoError(t, err)

	result, err := adapter.SubmitSignedTransaction(context.Background(), e, []byte("externally-signed"))
	require.NoError(t, err)
	assert.Equal(t, "0xdef", result.Hash)
	assert.Equal(t, "0xdef", e.TxHash)
}

func TestAdapter_SubmitSignedTransactionWrapsChainFailure(t *testing.T) {
	client := &fakeChainClient{submitErr: assertErrType{}}
	adapter := NewAdapter(client)

	e := &domain.Escrow{InternalID: "esc_1", Status: domain.EscrowStatusPending}
	_, err := adapter.SubmitSignedTransaction(context.Background(), e, []byte("signed"))
	assert.ErrorIs(t, err, domain.ErrChainSubmission)
}

func TestAdapter_FulfilAndReleaseTransitionEscrow(t *testing.T) {
	client := &fakeChainClient{submitResult: &ProcessedTransaction{Signature: "xyz", Status: "confirmed"}}
	adapter := NewAdapter(client)

	e := &domain.Escrow{InternalID: "esc_1", Status: domain.EscrowStatusPending}

	_, err := adapter.FulfilEscrow(context.Background(), e, []byte("tx"))
	require.NoError(t, err)
	assert.Equal(t, domain.EscrowStatusFulfilled, e.Status)

	_, err = adapter.ReleaseEscrow(context.Background(), e, []byte("tx"))
	require.NoError(t, err)
	assert.Equal(t, domain.EscrowStatusReleased, e.Status)
}

func TestAdapter_GetTransactionHistoryParsesAndPaginates(t *testing.T) {
	client := &fakeChainClient{history: []RawLedgerEntry{
		{ID: "tx1", ClassName: "send", Amount: "5.00", TimestampISO: "2025-07-01T09:00:00Z"},
		{ID: "tx2", ClassName: "receive", Amount: "5.00", TimestampISO: "2025-07-01T10:00:00Z"},
	}}
	adapter := NewAdapter(client)

	page, err := adapter.GetTransactionHistory(context.Background(), "alice", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "tx2", page[0].ID)
}
