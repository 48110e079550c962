package domain

import "context"

// FlightSourceAdapter is a single flight-data provider's translation layer.
// Implementations are pure translators: they do not retry, cache, or merge;
// those concerns live in the executor, aggregator and resolver respectively.
type FlightSourceAdapter interface {
	// Name returns the unique, lowercase identifier for this source.
	Name() string

	// Priority orders sources within the router; higher is tried first.
	Priority() int

	// Reliability is a static, declared trust score in [0,1] the Conflict
	// Resolver's completeness scoring factors in.
	Reliability() float64

	// IsAvailable is a lightweight health probe distinct from FetchFlight,
	// used by the Source Router for health gating.
	IsAvailable(ctx context.Context) bool

	// FetchFlight returns the canonical record for one flight, or nil if
	// the source simply has no data for it (not an error). It must only
	// return an error for transport/auth failures.
	FetchFlight(ctx context.Context, query FlightQuery) (*CanonicalFlight, error)
}

// WeatherSourceAdapter is the weather-domain analogue of FlightSourceAdapter.
type WeatherSourceAdapter interface {
	Name() string
	Priority() int
	Reliability() float64
	IsAvailable(ctx context.Context) bool

	// FetchWeather returns the canonical observation for one airport/date/
	// period, or nil if the source has no data for it.
	FetchWeather(ctx context.Context, query WeatherQuery) (*CanonicalWeather, error)
}
