package skylark

import (
	"context"
	"embed"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
)

//go:embed mock_data.json
var mockDataFS embed.FS

const (
	priority    = 85
	reliability = 0.85
)

// Adapter implements domain.FlightSourceAdapter against an embedded mock
// feed with a heavier simulated response time than edelweiss.
type Adapter struct {
	skipSimulation bool
}

// NewAdapter constructs a skylark adapter.
func NewAdapter(skipSimulation bool) *Adapter {
	return &Adapter{skipSimulation: skipSimulation}
}

func (a *Adapter) Name() string         { return ProviderName }
func (a *Adapter) Priority() int        { return priority }
func (a *Adapter) Reliability() float64 { return reliability }

func (a *Adapter) IsAvailable(ctx context.Context) bool { return true }

func (a *Adapter) simulateLatency(ctx context.Context) error {
	if a.skipSimulation {
		return nil
	}
	delay := time.Duration(80+rand.Intn(71)) * time.Millisecond
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FetchFlight returns the canonical record for query, or nil if skylark
// has nothing for that flight/date pair.
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
