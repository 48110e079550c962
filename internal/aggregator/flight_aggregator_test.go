package aggregator

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
	"github.com/herdiagusthio/flightdelay-escrow/internal/cache"
	"github.com/herdiagusthio/flightdelay-escrow/internal/executor"
	"github.com/herdiagusthio/flightdelay-escrow/internal/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFlightAdapter struct {
	name     string
	priority int
	calls    int32
	record   *domain.CanonicalFlight
	err      error
}

func (s *stubFlightAdapter) Name() string  { return s.name }
func (s *stubFlightAdapter) Priority() int { return s.priority }
func (s *stubFlightAdapter) IsAvailable(ctx context.Context) bool { return true }
func (s *stubFlightAdapter) FetchFlight(ctx context.Context, query domain.FlightQuery) (*domain.CanonicalFlight, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	return s.record, nil
}

func sampleQuery() domain.FlightQuery {
	return domain.FlightQuery{FlightNumber: "BT318", Date: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)}
}

func sampleFlight(source string, confidence float64) *domain.CanonicalFlight {
	return &domain.CanonicalFlight{
		FlightNumber:          "BT318",
		ScheduledDepartureUTC: time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC),
		Origin:                domain.Airport{IATA: "RIX"},
		Destination:           domain.Airport{IATA: "LHR"},
		Status:                domain.FlightStatusActive,
		Contributions: []domain.SourceContribution{
			{SourceName: source, Confidence: confidence, Timestamp: time.Now()},
		},
	}
}

func TestFlightAggregator_FanOutAndCacheFill(t *testing.T) {
	adapter := &stubFlightAdapter{name: "edelweiss", priority: 95, record: sampleFlight("edelweiss", 0.9)}
	r := router.New([]router.Adapter{adapter}, time.Hour)
	c := cache.NewMemoryCache()
	agg := NewFlightAggregator(c, r, executor.DefaultConfig(), time.Minute)

	result, err := agg.GetFlightStatus(context.Background(), sampleQuery())
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, domain.FlightStatusActive, result.Data.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&adapter.calls))
}

// TestFlightAggregator_CacheHitSkipsAdapters reproduces scenario S4: a
// second call within TTL must not invoke any adapter.
func TestFlightAggregator_CacheHitSkipsAdapters(t *testing.T) {
	adapter := &stubFlightAdapter{name: "edelweiss", priority: 95, record: sampleFlight("edelweiss", 0.9)}
	r := router.New([]router.Adapter{adapter}, time.Hour)
	c := cache.NewMemoryCache()
	agg := NewFlightAggregator(c, r, executor.DefaultConfig(), time.Minute)

	_, err := agg.GetFlightStatus(context.Background(), sampleQuery())
	require.NoError(t, err)

	second, err := agg.GetFlightStatus(context.Background(), sampleQuery())
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, int32(1), atomic.LoadInt32(&adapter.calls))
}

func TestFlightAggregator_NoHealthySourcesFails(t *testing.T) {
	r := router.New(nil, time.Hour)
	c := cache.NewMemoryCache()
	agg := NewFlightAggregator(c, r, executor.DefaultConfig(), time.Minute)

	_, err := agg.GetFlightStatus(context.Background(), sampleQuery())
	assert.ErrorIs(t, err, domain.ErrNoSourcesAvailable)
}

func TestFlightAggregator_AllAdaptersFailingYieldsNoData(t *testing.T) {
	adapter := &stubFlightAdapter{name: "edelweiss", priority: 95, err: domain.NewAdapterError("edelweiss", assertErr)}
	r := router.New([]router.Adapter{adapter}, time.Hour)
	c := cache.NewMemoryCache()
	cfg := executor.Config{MaxAttempts: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}
	agg := NewFlightAggregator(c, r, cfg, time.Minute)

	_, err := agg.GetFlightStatus(context.Background(), sampleQuery())
	assert.ErrorIs(t, err, domain.ErrNoDataAvailable)
}

func TestFlightAggregator_MergesMultipleSources(t *testing.T) {
	a := &stubFlightAdapter{name: "edelweiss", priority: 95, record: sampleFlight("edelweiss", 0.95)}
	b := &stubFlightAdapter{name: "skylark", priority: 85, record: sampleFlight("skylark", 0.6)}
	r := router.New([]router.Adapter{a, b}, time.Hour)
	c := cache.NewMemoryCache()
	agg := NewFlightAggregator(c, r, executor.DefaultConfig(), time.Minute)

	result, err := agg.GetFlightStatus(context.Background(), sampleQuery())
	require.NoError(t, err)
	assert.Len(t, result.Data.Contributions, 2)
}

var assertErr = &testError{}

type testError struct{}

func (e *testError) Error() string { return "adapter unreachable" }
