package meridian

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
	priority    = 90
	reliability = 0.90
)

// Adapter implements domain.WeatherSourceAdapter against an embedded mock
// feed.
type Adapter struct {
	skipSimulation bool
}

// NewAdapter constructs a meridian adapter.
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
	delay := time.Duration(40+rand.Intn(41)) * time.Millisecond
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FetchWeather returns the canonical observation for query, or nil if
// meridian has nothing for that airport/date/period triple.
func (a *Adapter) FetchWeather(ctx context.Context, query domain.WeatherQuery) (*domain.CanonicalWeather, error) {
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
	period := query.ForecastPeriod
	if period == "" {
		period = domain.ForecastPeriodCurrent
	}
	for _, raw := range response.Observations {
		if raw.AirportIATA == query.AirportIATA && raw.Date == dateStr && raw.ForecastPeriod == string(period) {
			return normalize(raw, time.Now()), nil
		}
	}
	return nil, nil
}
