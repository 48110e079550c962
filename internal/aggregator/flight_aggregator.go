// Package aggregator implements the cache-checked, router-directed fan-out
// that produces one canonical flight or weather record per query.
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

// FlightResult is what getFlightStatus returns: the merged record plus
// provenance the Data Router folds into a PolicyDataBundle.
type FlightResult struct {
	Data            domain.CanonicalFlight
	QualityScore    float64
	SourcesUsed     []string
	FromCache       bool
	ProcessingTime  time.Duration
}

// FlightAdapterCall is a source adapter narrowed to what the aggregator
// needs to invoke and supervise it through the router and executor.
type FlightAdapterCall interface {
	router.Adapter
	FetchFlight(ctx context.Context, query domain.FlightQuery) (*domain.CanonicalFlight, error)
}

// FlightAggregator produces one canonical flight record per query.
type FlightAggregator struct {
	cache       cache.Cache
	router      *router.Router
	execConfig  executor.Config
	cacheTTL    time.Duration
	group       singleflight.Group
}

// NewFlightAggregator wires a cache, a router over flight adapters, and the
// retry configuration every adapter call is wrapped with.
func NewFlightAggregator(c cache.Cache, r *router.Router, execConfig executor.Config, cacheTTL time.Duration) *FlightAggregator {
	return &FlightAggregator{cache: c, router: r, execConfig: execConfig, cacheTTL: cacheTTL}
}

// GetFlightStatus implements the algorithm: cache lookup,
// single-flight-coalesced fan-out on miss, conflict resolution, cache
// refill.
func (a *FlightAggregator) GetFlightStatus(ctx context.Context, query domain.FlightQuery) (*FlightResult, error) {
	start := time.Now()

	if err := query.Validate(); err != nil {
		return nil, err
	}

	key := query.CacheKey()

	if raw, hit, err := a.cache.Get(ctx, key); err == nil && hit {
		var merged domain.CanonicalFlight
		if err := json.Unmarshal(raw, &merged); err == nil {
			return &FlightResult{
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

	built := result.(*FlightResult)
	built.ProcessingTime = time.Since(start)
	return built, nil
}

func (a *FlightAggregator) build(ctx context.Context, query domain.FlightQuery) (*FlightResult, error) {
	sources := a.router.GetSources(ctx)
	if len(sources) == 0 {
		return nil, domain.ErrNoSourcesAvailable
	}

	records := a.fanOut(ctx, sources, query)
	if len(records) == 0 {
		return nil, domain.ErrNoDataAvailable
	}

	resolved, err := resolver.ResolveFlights(records, time.Now())
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(resolved.Merged); err == nil {
		tag := fmt.Sprintf("flight:%s", query.FlightNumber)
		if err := a.cache.Put(ctx, query.CacheKey(), raw, a.cacheTTL, []string{tag}); err != nil {
			log.Warn().Err(err).Str("key", query.CacheKey()).Msg("failed to populate flight cache")
		}
	}

	return &FlightResult{
		Data:         resolved.Merged,
		QualityScore: resolved.QualityScore,
		SourcesUsed:  sourceNames(resolved.Merged.Contributions),
		FromCache:    false,
	}, nil
}

// fanOut calls every source in parallel, each wrapped by the retry
// executor, and reports adapters that keep failing to the router. Caller
// cancellation aborts all outstanding calls by propagating through ctx.
func (a *FlightAggregator) fanOut(ctx context.Context, sources []router.Adapter, query domain.FlightQuery) []domain.CanonicalFlight {
	type outcome struct {
		record *domain.CanonicalFlight
		err    error
	}

	results := make(chan outcome, len(sources))
	var wg sync.WaitGroup

	for _, src := range sources {
		call, ok := src.(FlightAdapterCall)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(adapter FlightAdapterCall) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results <- outcome{err: fmt.Errorf("adapter %s panicked: %v", adapter.Name(), r)}
				}
			}()

			var record *domain.CanonicalFlight
			runErr := executor.Run(ctx, a.execConfig, nil, func(ctx context.Context) error {
				var fetchErr error
				record, fetchErr = adapter.FetchFlight(ctx, query)
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

	var records []domain.CanonicalFlight
	for res := range results {
		if res.err != nil || res.record == nil {
			continue
		}
		records = append(records, *res.record)
	}
	return records
}

func sourceNames(contributions []domain.SourceContribution) []string {
	names := make([]string, 0, len(contributions))
	for _, c := range contributions {
		names = append(names, c.SourceName)
	}
	return names
}
