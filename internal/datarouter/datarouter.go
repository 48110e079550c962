// Package datarouter is the one-shot orchestrator that assembles the
// flight and weather data a policy quote is priced from.
package datarouter

import (
	"context"
	"sync"
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
	"github.com/herdiagusthio/flightdelay-escrow/internal/aggregator"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DataRouter assembles a PolicyDataBundle from the flight and weather
// aggregators, : the flight leg is mandatory, weather is
// best-effort.
type DataRouter struct {
	flights  *aggregator.FlightAggregator
	weathers *aggregator.WeatherAggregator
}

// New wires a DataRouter over the given aggregators.
func New(flights *aggregator.FlightAggregator, weathers *aggregator.WeatherAggregator) *DataRouter {
	return &DataRouter{flights: flights, weathers: weathers}
}

// GetDataForPolicy fetches the flight plus, if requested, every airport's
// weather, in parallel. A flight failure is fatal; a weather failure for
// one airport is tolerated and recorded in WeatherFailures.
func (d *DataRouter) GetDataForPolicy(ctx context.Context, req domain.PolicyDataRequest) (*domain.PolicyDataBundle, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	bundle := &domain.PolicyDataBundle{}

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		result, err := d.flights.GetFlightStatus(gctx, domain.FlightQuery{FlightNumber: req.FlightNumber, Date: req.Date})
		if err != nil {
			return err
		}
		bundle.Flight = &result.Data
		bundle.FlightMeta = domain.AggregationMetadata{
			SourcesUsed: result.SourcesUsed,
			PerSourceTiming: []domain.SourceTiming{
				{Source: "flight", ProcessingTime: result.ProcessingTime, FromCache: result.FromCache},
			},
		}
		return nil
	})

	var weatherMu sync.Mutex
	if req.IncludeWeather {
		for _, airport := range req.Airports {
			airport := airport
			group.Go(func() error {
				result, err := d.weathers.GetWeather(gctx, domain.WeatherQuery{
					AirportIATA:    airport,
					Date:           req.Date,
					ForecastPeriod: domain.ForecastPeriodCurrent,
				})

				weatherMu.Lock()
				defer weatherMu.Unlock()

				if err != nil {
					bundle.WeatherFailures = append(bundle.WeatherFailures, airport)
					log.Warn().Err(err).Str("airport", airport).Msg("weather fetch failed, continuing without it")
					return nil
				}

				bundle.Weather = append(bundle.Weather, result.Data)
				bundle.WeatherMeta.SourcesUsed = append(bundle.WeatherMeta.SourcesUsed, result.SourcesUsed...)
				bundle.WeatherMeta.PerSourceTiming = append(bundle.WeatherMeta.PerSourceTiming, domain.SourceTiming{
					Source: airport, ProcessingTime: result.ProcessingTime, FromCache: result.FromCache,
				})
				return nil
			})
		}
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	bundle.FlightMeta.TotalWallTime = time.Since(start)
	bundle.WeatherMeta.TotalWallTime = time.Since(start)

	return bundle, nil
}
