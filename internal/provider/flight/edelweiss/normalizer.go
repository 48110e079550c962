// Package edelweiss adapts the highest-priority mock flight-status feed
// into the canonical domain model, following the same read-mock-JSON,
// normalize, simulate-latency shape every provider adapter in this
// service uses.
package edelweiss

import (
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
)

// ProviderName is this source's identifier in contributions and logs.
const ProviderName = "edelweiss"

// rawFlight is the shape edelweiss's feed emits on the wire.
type rawFlight struct {
	FlightNumber        string `json:"flightNumber"`
	Date                string `json:"date"`
	Origin              string `json:"origin"`
	Destination         string `json:"destination"`
	AirlineIATA         string `json:"airlineIATA"`
	ScheduledDeparture  string `json:"scheduledDeparture"`
	ScheduledArrival    string `json:"scheduledArrival"`
	EstimatedArrival    string `json:"estimatedArrival"`
	Status              string `json:"status"`
	DelayArrivalMinutes int    `json:"delayArrivalMinutes"`
	Gate                string `json:"gate"`
	Terminal            string `json:"terminal"`
	Aircraft            string `json:"aircraft"`
}

type mockResponse struct {
	Flights []rawFlight `json:"flights"`
}

var statusMap = map[string]domain.FlightStatus{
	"SCHEDULED": domain.FlightStatusScheduled,
	"ACTIVE":    domain.FlightStatusActive,
	"DEPARTED":  domain.FlightStatusDeparted,
	"LANDED":    domain.FlightStatusLanded,
	"CANCELLED": domain.FlightStatusCancelled,
	"DIVERTED":  domain.FlightStatusDiverted,
	"DELAYED":   domain.FlightStatusDelayed,
}

func normalizeStatus(raw string) domain.FlightStatus {
	if s, ok := statusMap[raw]; ok {
		return s
	}
	return domain.FlightStatusUnknown
}

// normalize maps one raw record into a canonical flight carrying a single
// SourceContribution for this adapter, at the declared reliability.
func normalize(raw rawFlight, now time.Time) *domain.CanonicalFlight {
	scheduledDeparture, err := time.Parse(time.RFC3339, raw.ScheduledDeparture)
	if err != nil {
		return nil
	}
	scheduledArrival, _ := time.Parse(time.RFC3339, raw.ScheduledArrival)

	flight := &domain.CanonicalFlight{
		FlightNumber:          raw.FlightNumber,
		ScheduledDepartureUTC: scheduledDeparture,
		ScheduledArrivalUTC:   scheduledArrival,
		Origin:                domain.Airport{IATA: raw.Origin},
		Destination:           domain.Airport{IATA: raw.Destination},
		AirlineIATA:           raw.AirlineIATA,
		Status:                normalizeStatus(raw.Status),
		DelayArrivalMinutes:   raw.DelayArrivalMinutes,
		Gate:                  raw.Gate,
		Terminal:              raw.Terminal,
		Aircraft:              raw.Aircraft,
		LastUpdatedUTC:        now,
		Contributions: []domain.SourceContribution{{
			SourceName: ProviderName,
			Fields:     []string{"status", "delayArrivalMinutes", "gate", "terminal", "aircraft"},
			Timestamp:  now,
			Confidence: reliability,
		}},
	}

	if raw.EstimatedArrival != "" {
		if t, err := time.Parse(time.RFC3339, raw.EstimatedArrival); err == nil {
			flight.EstimatedArrival = &t
		}
	}
	if flight.Status == domain.FlightStatusCancelled {
		flight.Cancelled = true
	}
	if flight.Status == domain.FlightStatusDiverted {
		flight.Diverted = true
	}

	return flight
}
