package store

import (
	"testing"
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuote(status domain.QuoteStatus) *domain.Quote {
	return &domain.Quote{
		QuoteID:        "qte_1",
		FlightRef:      "GA123/2025-07-01",
		CoverageType:   domain.CoverageFlightDelay,
		CoverageAmount: 500_00,
		Premium:        25_00,
		CreatedAtUTC:   time.Now(),
		ValidUntilUTC:  time.Now().Add(time.Hour),
		Status:         status,
	}
}

func TestMemoryStore_SaveThenGetQuote(t *testing.T) {
	s := NewMemoryStore()
	q := sampleQuote(domain.QuoteStatusPending)

	require.NoError(t, s.SaveQuote(q))
	got, err := s.GetQuote("qte_1")
	require.NoError(t, err)
	assert.Equal(t, q.CoverageAmount, got.CoverageAmount)
}

func TestMemoryStore_GetQuoteMissingIsNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.GetQuote("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStore_ListPendingQuotesExcludesOtherStatuses(t *testing.T) {
	s := NewMemoryStore()
	pending := sampleQuote(domain.QuoteStatusPending)
	accepted := sampleQuote(domain.QuoteStatusAccepted)
	accepted.QuoteID = "qte_2"

	require.NoError(t, s.SaveQuote(pending))
	require.NoError(t, s.SaveQuote(accepted))

	list, err := s.ListPendingQuotes()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "qte_1", list[0].QuoteID)
}

func TestMemoryStore_SavedQuoteIsACopyNotAnAlias(t *testing.T) {
	s := NewMemoryStore()
	q := sampleQuote(domain.QuoteStatusPending)
	require.NoError(t, s.SaveQuote(q))

	q.Status = domain.QuoteStatusExpired
	got, err := s.GetQuote("qte_1")
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusPending, got.Status)
}

func TestMemoryStore_PolicyEventsAreAppendOnlyAndOrdered(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()

	require.NoError(t, s.AppendPolicyEvent(domain.PolicyEvent{PolicyID: "pol_1", Type: domain.EventPolicyCreated, CreatedAtUTC: now}))
	require.NoError(t, s.AppendPolicyEvent(domain.PolicyEvent{PolicyID: "pol_1", Type: domain.EventPolicyActivated, CreatedAtUTC: now.Add(time.Minute)}))

	events, err := s.ListPolicyEvents("pol_1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventPolicyCreated, events[0].Type)
}

func TestMemoryStore_EscrowLookupByBlockchainID(t *testing.T) {
	s := NewMemoryStore()
	e := &domain.Escrow{InternalID: "esc_1", BlockchainID: "chain_abc", Status: domain.EscrowStatusPending}
	require.NoError(t, s.SaveEscrow(e))

	got, err := s.GetEscrowByBlockchainID("chain_abc")
	require.NoError(t, err)
	assert.Equal(t, "esc_1", got.InternalID)
}

func TestMemoryStore_EscrowRejectsDuplicateBlockchainID(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.SaveEscrow(&domain.Escrow{InternalID: "esc_1", BlockchainID: "chain_abc"}))
	err := s.SaveEscrow(&domain.Escrow{InternalID: "esc_2", BlockchainID: "chain_abc"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestMemoryStore_WalletResolutionByUserOrAnonymousSession(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.SaveWallet(Wallet{UserID: "user_1", Address: "addr_1"}))
	require.NoError(t, s.SaveWallet(Wallet{AnonymousSessionID: "anon_1", Address: "addr_2"}))

	addr, err := s.ResolveAddress(domain.Owner{UserID: "user_1"})
	require.NoError(t, err)
	assert.Equal(t, "addr_1", addr)

	addr, err = s.ResolveAddress(domain.Owner{AnonymousSessionID: "anon_1"})
	require.NoError(t, err)
	assert.Equal(t, "addr_2", addr)
}

func TestMemoryStore_WalletResolutionMissingIsNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.ResolveAddress(domain.Owner{UserID: "nobody"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStore_SaveWalletRejectsAmbiguousOwner(t *testing.T) {
	s := NewMemoryStore()
	err := s.SaveWallet(Wallet{UserID: "user_1", AnonymousSessionID: "anon_1", Address: "addr"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestMemoryStore_ScheduledTaskRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	_, ok, err := s.GetScheduledTask("quote-expiry-sweep")
	require.NoError(t, err)
	assert.False(t, ok)

	next := time.Now().Add(time.Minute)
	require.NoError(t, s.SaveScheduledTask(ScheduledTask{Name: "quote-expiry-sweep", NextRunAt: next}))

	got, ok, err := s.GetScheduledTask("quote-expiry-sweep")
	require.NoError(t, err)
	require.True(t, ok)
	assert.WithinDuration(t, next, got.NextRunAt, time.Millisecond)
}

func TestMemoryStore_CacheEntryExpires(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.PutCacheEntry("k", []byte("v"), []string{"tag"}, time.Now().Add(-time.Second)))

	_, hit, err := s.GetCacheEntry("k")
	require.NoError(t, err)
	assert.False(t, hit)
}
