package quote

import (
	"testing"
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	quotes map[string]*domain.Quote
}

func newFakeStore() *fakeStore {
	return &fakeStore{quotes: map[string]*domain.Quote{}}
}

func (f *fakeStore) SaveQuote(q *domain.Quote) error {
	f.quotes[q.QuoteID] = q
	return nil
}

func (f *fakeStore) ListPendingQuotes() ([]*domain.Quote, error) {
	var out []*domain.Quote
	for _, q := range f.quotes {
		if q.Status == domain.QuoteStatusPending {
			out = append(out, q)
		}
	}
	return out, nil
}

func TestEngine_Quote_HappyPath(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, Config{ValidityWindow: 15 * time.Minute})
	bundle := bundleWithStatus(domain.FlightStatusScheduled, 0.9)
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

	q, err := engine.Quote("BT318", bundle, domain.CoverageFlightDelay, 100_00, now)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusPending, q.Status)
	assert.Equal(t, now.Add(15*time.Minute), q.ValidUntilUTC)
	assert.Contains(t, store.quotes, q.QuoteID)
}

func TestEngine_Quote_RefusesInsufficientData(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, Config{})
	bundle := bundleWithStatus(domain.FlightStatusScheduled, 0.1)
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

	_, err := engine.Quote("BT318", bundle, domain.CoverageFlightDelay, 100_00, now)
	assert.ErrorIs(t, err, domain.ErrRefusedInsufficientData)
}

func TestEngine_Quote_RefusesWhenFlightMissing(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, Config{})
	bundle := &domain.PolicyDataBundle{}
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

	_, err := engine.Quote("BT318", bundle, domain.CoverageFlightDelay, 100_00, now)
	assert.ErrorIs(t, err, domain.ErrRefusedInsufficientData)
}

func TestEngine_Quote_RefusesEventAlreadyOccurred(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, Config{})
	bundle := bundleWithStatus(domain.FlightStatusCancelled, 0.9)
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

	_, err := engine.Quote("BT318", bundle, domain.CoverageFlightDelay, 100_00, now)
	assert.ErrorIs(t, err, domain.ErrRefusedEventAlreadyOccurred)
}

func TestExpireStalePending_TransitionsOnlyTrulyStaleQuotes(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

	stale := &domain.Quote{
		QuoteID: "qt_stale", CoverageAmount: 100, Premium: 10,
		CreatedAtUTC: now.Add(-time.Hour), ValidUntilUTC: now.Add(-time.Minute),
		Status: domain.QuoteStatusPending,
	}
	fresh := &domain.Quote{
		QuoteID: "qt_fresh", CoverageAmount: 100, Premium: 10,
		CreatedAtUTC: now, ValidUntilUTC: now.Add(time.Hour),
		Status: domain.QuoteStatusPending,
	}
	require.NoError(t, store.SaveQuote(stale))
	require.NoError(t, store.SaveQuote(fresh))

	count, err := ExpireStalePending(store, now)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, domain.QuoteStatusExpired, store.quotes["qt_stale"].Status)
	assert.Equal(t, domain.QuoteStatusPending, store.quotes["qt_fresh"].Status)
}
