package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
	"github.com/herdiagusthio/flightdelay-escrow/internal/cache"
	"github.com/herdiagusthio/flightdelay-escrow/internal/executor"
	"github.com/herdiagusthio/flightdelay-escrow/internal/resolver"
	"github.com/herdiagusthio/flightdelay-escrow/internal/router"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// WeatherResult is the weather analogue of FlightResult.
type WeatherResult struct {
	Data           domain.CanonicalWeather
	QualityScore   float64
	SourcesUsed    []string
	FromCache      bool
	ProcessingTime time.Duration
}

// WeatherAdapterCall is a source adapter narrowed to what the aggregator
// needs to invoke it through the router and executor.
type WeatherAdapterCall interface {
	router.Adapter
	FetchWeather(ctx context.Context, query domain.WeatherQuery) (*domain.CanonicalWeather, error)
}

// WeatherAggregator is structurally identical to FlightAggregator, built for
// the same cache-then-fan-out-then-resolve shape.
type WeatherAggregator struct {
	cache      cache.Cache
	router     *router.Router
	execConfig executor.Config
	cacheTTL   time.Duration
	group      singleflight.Group
}

// NewWeatherAggregator wires a cache, a router over weather adapters, and
// the retry configuration every adapter call is wrapped with.
func NewWeatherAggregator(c cache.Cache, r *router.Router, execConfig executor.Config, cacheTTL time.Duration) *WeatherAggregator {
	return &WeatherAggregator{cache: c, router: r, execConfig: execConfig, cacheTTL: cacheTTL}
}

// GetWeather mirrors FlightAggregator.GetFlightStatus.
func (a *WeatherAggregator) GetWeather(ctx context.Context, query domain.WeatherQuery) (*WeatherResult, error) {
	start := time.Now()

	if err := query.Validate(); err != nil {
		return nil, err
	}

	key := query.CacheKey()

	if raw, hit, err := a.cache.Get(ctx, key); err == nil && hit {
		var merged domain.CanonicalWeather
		if err := json.Unmarshal(raw, &merged); err == nil {
			return &WeatherResult{
				Data:           merged,
				QualityScore:   merged.DataQualityScore,
				SourcesUsed:    sourceNames(merged.Contributions),
				FromCache:      true,
				ProcessingTime: time.Since(start),
			}, nil
		}
	}

	result, err, _ := a.group.Do(key, func() (interface{}, error) {
		return a.build(ctx, query)
	})
	if err != nil {
		return nil, err
	}

	built := result.(*WeatherResult)
	built.ProcessingTime = time.Since(start)
	return built, nil
}

func (a *WeatherAggregator) build(ctx context.Context, query domain.WeatherQuery) (*WeatherResult, error) {
	sources := a.router.GetSources(ctx)
	if len(sources) == 0 {
		return nil, domain.ErrNoSourcesAvailable
	}

	records := a.fanOut(ctx, sources, query)
	if len(records) == 0 {
		return nil, domain.ErrNoDataAvailable
	}

	resolved, err := resolver.ResolveWeather(records, time.Now())
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(resolved.Merged); err == nil {
		tag := fmt.Sprintf("wx:%s", query.AirportIATA)
		if err := a.cache.Put(ctx, query.CacheKey(), raw, a.cacheTTL, []string{tag}); err != nil {
			log.Warn().Err(err).Str("key", query.CacheKey()).Msg("failed to populate weather cache")
		}
	}

	return &WeatherResult{
		Data:         resolved.Merged,
		QualityScore: resolved.QualityScore,
		SourcesUsed:  sourceNames(resolved.Merged.Contributions),
		FromCache:    false,
	}, nil
}

func (a *WeatherAggregator) fanOut(ctx context.Context, sources []router.Adapter, query domain.WeatherQuery) []domain.CanonicalWeather {
	type outcome struct {
		record *domain.CanonicalWeather
		err    error
	}

	results := make(chan outcome, len(sources))
	var wg sync.WaitGroup

	for _, src := range sources {
		call, ok := src.(WeatherAdapterCall)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(adapter WeatherAdapterCall) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results <- outcome{err: fmt.Errorf("adapter %s panicked: %v", adapter.Name(), r)}
				}
			}()

			var record *domain.CanonicalWeather
			runErr := executor.Run(ctx, a.execConfig, nil, func(ctx context.Context) error {
				var fetchErr error
				record, fetchErr = adapter.FetchWeather(ctx, query)
				return fetchErr
			})

			if runErr != nil {
				a.router.MarkUnhealthy(adapter.Name())
				results <- outcome{err: runErr}
				return
			}
			results <- outcome{record: record}
		}(call)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var records []domain.CanonicalWeather
	for res := range results {
		if res.err != nil || res.record == nil {
			continue
		}
		records = append(records, *res.record)
	}
	return records
}
