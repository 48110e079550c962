package nimbus

import (
	"context"
	"embed"
	"encoding/json"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
)

//go:embed mock_data.json
var mockDataFS embed.FS

const (
	priority    = 75
	reliability = 0.70

	// flakyEvery makes every Nth probe report unavailable, standing in for
	// a budget partner feed with an imperfect uptime record.
	flakyEvery = 7
)

// Adapter implements domain.FlightSourceAdapter against an embedded mock
// feed, simulating a slower, occasionally unavailable budget partner.
type Adapter struct {
	skipSimulation bool
	probeCount     atomic.Int64
}

// NewAdapter constructs a nimbus adapter.
func NewAdapter(skipSimulation bool) *Adapter {
	return &Adapter{skipSimulation: skipSimulation}
}

func (a *Adapter) Name() string         { return ProviderName }
func (a *Adapter) Priority() int        { return priority }
func (a *Adapter) Reliability() float64 { return reliability }

// IsAvailable reports false on every flakyEvery-th probe, giving the
// Source Router's health gating something real to exercise.
func (a *Adapter) IsAvailable(ctx context.Context) bool {
	n := a.probeCount.Add(1)
	return n%flakyEvery != 0
}

func (a *Adapter) simulateLatency(ctx context.Context) error {
	if a.skipSimulation {
		return nil
	}
	delay := time.Duration(150+rand.Intn(151)) * time.Millisecond
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FetchFlight returns the canonical record for query, or nil if nimbus has
// nothing for that flight/date pair.
func (a *Adapter) FetchFlight(ctx context.Context, query domain.FlightQuery) (*domain.CanonicalFlight, error) {
	if err := a.simulateLatency(ctx); err != nil {
		return nil, domain.NewRetryableAdapterError(ProviderName, err)
	}

	data, err := mockDataFS.ReadFile("mock_data.json")
	if err != nil {
		return nil, domain.NewAdapterError(ProviderName, err)
	}

	var response mockResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, domain.NewAdapterError(ProviderName, err)
	}

	dateStr := query.Date.Format("2006-01-02")
	for _, raw := range response.Flights {
		if raw.FlightNumber == query.FlightNumber && raw.Date == dateStr {
			return normalize(raw, time.Now()), nil
		}
	}
	return nil, nil
}
