package domain

import (
	"fmt"
	"regexp"
	"time"
)

var flightNumberRegex = regexp.MustCompile(`^[A-Z]{2}\d{1,4}$`)
var airportCodeRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// FlightQuery identifies the single flight a fetch or aggregation call
// should resolve.
type FlightQuery struct {
	FlightNumber string
	Date         time.Time // date-only, UTC
}

// CacheKey returns the aggregator cache key the design defines for flight
// queries: "flight:<flightNumber>:<dateYYYY-MM-DD>".
func (q FlightQuery) CacheKey() string {
	return fmt.Sprintf("flight:%s:%s", q.FlightNumber, q.Date.Format("2006-01-02"))
}

// Validate checks the query is well-formed before it reaches any adapter.
func (q FlightQuery) Validate() error {
	if q.FlightNumber == "" {
		return fmt.Errorf("%w: flightNumber is required", ErrInvalidRequest)
	}
	if !flightNumberRegex.MatchString(q.FlightNumber) {
		return fmt.Errorf("%w: flightNumber must look like IATA carrier code + number, got %q", ErrInvalidRequest, q.FlightNumber)
	}
	if q.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidRequest)
	}
	return nil
}

// WeatherQuery identifies one airport/date/period weather observation.
type WeatherQuery struct {
	AirportIATA   string
	Date          time.Time
	ForecastPeriod ForecastPeriod
}

// CacheKey returns the aggregator cache key the design defines for
// weather queries: "wx:<airportIATA>:<dateYYYY-MM-DD>:<forecastPeriod>".
func (q WeatherQuery) CacheKey() string {
	return fmt.Sprintf("wx:%s:%s:%s", q.AirportIATA, q.Date.Format("2006-01-02"), q.ForecastPeriod)
}

// Validate checks the query is well-formed before it reaches any adapter.
func (q WeatherQuery) Validate() error {
	if q.AirportIATA == "" {
		return fmt.Errorf("%w: airportIATA is required", ErrInvalidRequest)
	}
	if !airportCodeRegex.MatchString(q.AirportIATA) {
		return fmt.Errorf("%w: airportIATA must be a valid 3-letter IATA code, got %q", ErrInvalidRequest, q.AirportIATA)
	}
	if q.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidRequest)
	}
	if q.ForecastPeriod == "" {
		q.ForecastPeriod = ForecastPeriodCurrent
	}
	return nil
}

// PolicyDataRequest is the inbound parameter set for the Data Router's
// one-shot orchestration of a flight plus its relevant airports' weather.
type PolicyDataRequest struct {
	FlightNumber   string
	Date           time.Time
	Airports       []string
	IncludeWeather bool
}

// Validate checks the request is well-formed.
func (r PolicyDataRequest) Validate() error {
	fq := FlightQuery{FlightNumber: r.FlightNumber, Date: r.Date}
	if err := fq.Validate(); err != nil {
		return err
	}
	for _, a := range r.Airports {
		if !airportCodeRegex.MatchString(a) {
			return fmt.Errorf("%w: airport %q is not a valid 3-letter IATA code", ErrInvalidRequest, a)
		}
	}
	return nil
}
