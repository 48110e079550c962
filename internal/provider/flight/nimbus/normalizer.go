// Package nimbus adapts the lowest-priority, least reliable mock
// flight-status feed into the canonical domain model.
package nimbus

import (
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
)

// ProviderName is this source's identifier in contributions and logs.
const ProviderName = "nimbus"

type rawFlight struct {
	FlightNumber        string `json:"flightNumber"`
	Date                string `json:"date"`
	Origin              string `json:"origin"`
	Destination         string `json:"destination"`
	AirlineIATA         string `json:"airlineIATA"`
	ScheduledDeparture  string `json:"scheduledDeparture"`
	ScheduledArrival    string `json:"scheduledArrival"`
	Status              string `json:"status"`
	DelayArrivalMinutes int    `json:"delayArrivalMinutes"`
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
		LastUpdatedUTC:        now,
		Contributions: []domain.SourceContribution{{
			SourceName: ProviderName,
			Fields:     []string{"status", "delayArrivalMinutes"},
			Timestamp:  now,
			Confidence: reliability,
		}},
	}

	if flight.Status == domain.FlightStatusCancelled {
		flight.Cancelled = true
	}
	if flight.Status == domain.FlightStatusDiverted {
		flight.Diverted = true
	}

	return flight
}
