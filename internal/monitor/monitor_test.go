package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
	"github.com/herdiagusthio/flightdelay-escrow/internal/aggregator"
	"github.com/herdiagusthio/flightdelay-escrow/internal/escrow"
	"github.com/herdiagusthio/flightdelay-escrow/internal/executor"
	"github.com/herdiagusthio/flightdelay-escrow/internal/policy"
	"github.com/herdiagusthio/flightdelay-escrow/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFlightLookup struct {
	result *aggregator.FlightResult
	err    error
}

func (f *fakeFlightLookup) GetFlightStatus(ctx context.Context, query domain.FlightQuery) (*aggregator.FlightResult, error) {
	return f.result, f.err
}

type fakeSigner struct {
	signErr error
}

func (f *fakeSigner) SignRelease(ctx context.Context, e *domain.Escrow, recipientAddr string) ([]byte, error) {
	if f.signErr != nil {
		return nil, f.signErr
	}
	return []byte("signed-" + recipientAddr), nil
}

type fakeChainClient struct {
	submitErr error
}

func (f *fakeChainClient) SubmitTransaction(ctx context.Context, signedTx []byte) (*escrow.ProcessedTransaction, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &escrow.ProcessedTransaction{Signature: "sig-" + string(signedTx), Status: "confirmed"}, nil
}

func (f *fakeChainClient) GetAccountInfo(ctx context.Context, address string) (*escrow.AccountInfo, error) {
	return &escrow.AccountInfo{Balance: "0", Nonce: 0}, nil
}

func (f *fakeChainClient) GetTransactionStatus(ctx context.Context, hash string) (string, error) {
	return "confirmed", nil
}

func (f *fakeChainClient) GetTransactionHistory(ctx context.Context, address string) ([]escrow.RawLedgerEntry, error) {
	return nil, nil
}

func setup(t *testing.T) (*store.MemoryStore, *policy.Manager) {
	t.Helper()
	st := store.NewMemoryStore()
	mgr := policy.NewManager(st)
	return st, mgr
}

func activePolicy(escrowID string) *domain.Policy {
	return &domain.Policy{
		PolicyID:              "pol_sweep_1",
		PolicyNumber:          "PLC-S-0001",
		Owner:                 domain.Owner{UserID: "user_1"},
		FlightRef:             "GA123",
		FlightDate:            time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		QuoteID:               "qte_1",
		EscrowID:              escrowID,
		CoverageAmount:        500_00,
		Premium:               25_00,
		DelayThresholdMinutes: 60,
		Status:                domain.PolicyStatusActive,
		ExpiresAtUTC:          time.Now().Add(48 * time.Hour),
		CreatedAtUTC:          time.Now(),
	}
}

func canonicalFlight(status domain.FlightStatus, delay int) *aggregator.FlightResult {
	return &aggregator.FlightResult{
		Data: domain.CanonicalFlight{
			FlightNumber:        "GA123",
			Status:              status,
			DelayArrivalMinutes: delay,
			Cancelled:           status == domain.FlightStatusCancelled,
		},
	}
}

func TestMonitor_PolicySweepSettlesOnDelayTrigger(t *testing.T) {
	st, mgr := setup(t)

	e := &domain.Escrow{InternalID: "esc_1", Amount: 500_00, RecipientAddr: "addr-placeholder", Status: domain.EscrowStatusFulfilled}
	require.NoError(t, st.SaveEscrow(e))
	require.NoError(t, st.SaveWallet(store.Wallet{UserID: "user_1", Address: "0xBENEFICIARY"}))

	p := activePolicy("esc_1")
	require.NoError(t, st.SavePolicy(p))

	flights := &fakeFlightLookup{result: canonicalFlight(domain.FlightStatusDelayed, 90)}
	adapter := escrow.NewAdapter(&fakeChainClient{})
	signer := &fakeSigner{}

	m := New(st, flights, adapter, signer, mgr, time.Minute, 5*time.Second, executor.DefaultConfig())

	m.runPolicySweep(context.Background())

	saved, err := st.GetPolicy(p.PolicyID)
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyStatusClaimed, saved.Status)

	events, err := st.ListPolicyEvents(p.PolicyID)
	require.NoError(t, err)
	var sawPayoutCompleted bool
	for _, ev := range events {
		if ev.Type == domain.EventPayoutCompleted {
			sawPayoutCompleted = true
		}
	}
	assert.True(t, sawPayoutCompleted)
}

func TestMonitor_PolicySweepIgnoresPolicyBelowThreshold(t *testing.T) {
	st, mgr := setup(t)

	e := &domain.Escrow{InternalID: "esc_2", Amount: 500_00, RecipientAddr: "addr", Status: domain.EscrowStatusFulfilled}
	require.NoError(t, st.SaveEscrow(e))
	require.NoError(t, st.SaveWallet(store.Wallet{UserID: "user_1", Address: "0xBENEFICIARY"}))

	p := activePolicy("esc_2")
	require.NoError(t, st.SavePolicy(p))

	flights := &fakeFlightLookup{result: canonicalFlight(domain.FlightStatusActive, 10)}
	adapter := escrow.NewAdapter(&fakeChainClient{})
	signer := &fakeSigner{}

	m := New(st, flights, adapter, signer, mgr, time.Minute, 5*time.Second, executor.DefaultConfig())
	m.runPolicySweep(context.Background())

	saved, err := st.GetPolicy(p.PolicyID)
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyStatusActive, saved.Status)
}

func TestMonitor_PolicySweepRecordsPayoutFailedWhenSigningFails(t *testing.T) {
	st, mgr := setup(t)

	e := &domain.Escrow{InternalID: "esc_3", Amount: 500_00, RecipientAddr: "addr", Status: domain.EscrowStatusFulfilled}
	require.NoError(t, st.SaveEscrow(e))
	require.NoError(t, st.SaveWallet(store.Wallet{UserID: "user_1", Address: "0xBENEFICIARY"}))

	p := activePolicy("esc_3")
	require.NoError(t, st.SavePolicy(p))

	flights := &fakeFlightLookup{result: canonicalFlight(domain.FlightStatusCancelled, 0)}
	adapter := escrow.NewAdapter(&fakeChainClient{})
	signer := &fakeSigner{signErr: assertErr}

	cfg := executor.DefaultConfig()
	cfg.MaxAttempts = 1
	cfg.InitialDelay = time.Millisecond

	m := New(st, flights, adapter, signer, mgr, time.Minute, 5*time.Second, cfg)
	m.runPolicySweep(context.Background())

	saved, err := st.GetPolicy(p.PolicyID)
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyStatusFailed, saved.Status)
}

func TestMonitor_QuoteSweepExpiresStaleQuotes(t *testing.T) {
	st, mgr := setup(t)
	_ = mgr

	q := &domain.Quote{
		QuoteID:       "qte_stale",
		FlightRef:     "GA123",
		Status:        domain.QuoteStatusPending,
		ValidUntilUTC: time.Now().Add(-time.Hour),
		CreatedAtUTC:  time.Now().Add(-2 * time.Hour),
	}
	require.NoError(t, st.SaveQuote(q))

	flights := &fakeFlightLookup{}
	adapter := escrow.NewAdapter(&fakeChainClient{})
	signer := &fakeSigner{}
	m := New(st, flights, adapter, signer, mgr, time.Minute, 5*time.Second, executor.DefaultConfig())

	m.runQuoteSweep(context.Background())

	saved, err := st.GetQuote(q.QuoteID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusExpired, saved.Status)
}

var assertErr = &signError{"signing unavailable"}

type signError struct{ msg string }

func (e *signError) Error() string { return e.msg }
