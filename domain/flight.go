package domain

import (
	"fmt"
	"sort"
	"time"
)

// FlightStatus is the canonical status vocabulary every source adapter maps into.
type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "SCHEDULED"
	FlightStatusActive    FlightStatus = "ACTIVE"
	FlightStatusDeparted  FlightStatus = "DEPARTED"
	FlightStatusLanded    FlightStatus = "LANDED"
	FlightStatusCancelled FlightStatus = "CANCELLED"
	FlightStatusDiverted  FlightStatus = "DIVERTED"
	FlightStatusDelayed   FlightStatus = "DELAYED"
	FlightStatusUnknown   FlightStatus = "UNKNOWN"
)

// IsDisruptive reports whether the status already represents a settled,
// non-nominal outcome — the set the Quote Engine refuses to insure against.
func (s FlightStatus) IsDisruptive() bool {
	switch s {
	case FlightStatusCancelled, FlightStatusDiverted:
		return true
	default:
		return false
	}
}

// SourceContribution records which adapter filled which fields of a
// canonical record, at what timestamp, with what confidence.
type SourceContribution struct {
	SourceName string
	Fields     []string
	Timestamp  time.Time
	Confidence float64
	SourceID   string
	APIVersion string
}

// Airport identifies an airport by IATA code and an optional ICAO code.
type Airport struct {
	IATA string
	ICAO string
}

// CanonicalFlight is the provider-independent, merged view of one flight.
// Identity is the pair (FlightNumber, ScheduledDepartureUTC).
type CanonicalFlight struct {
	FlightNumber          string
	ScheduledDepartureUTC time.Time
	Origin                Airport
	Destination           Airport
	AirlineIATA           string
	AirlineICAO           string

	ScheduledArrivalUTC time.Time
	EstimatedDeparture  *time.Time
	EstimatedArrival    *time.Time
	ActualDeparture     *time.Time
	ActualArrival       *time.Time

	Status FlightStatus

	DelayDepartureMinutes int
	DelayArrivalMinutes   int
	Diverted              bool
	DivertedTo            string
	Cancelled             bool

	Gate     string
	Terminal string
	Aircraft string

	Contributions    []SourceContribution
	DataQualityScore float64
	LastUpdatedUTC   time.Time
}

// Validate enforces the invariants the design places on a canonical flight:
// at least one contribution, actual-arrival-after-actual-departure when both
// are present, and status consistency with the timestamps that back it.
func (f *CanonicalFlight) Validate() error {
	if f.FlightNumber == "" {
		return fmt.Errorf("%w: FlightNumber", ErrMissingRequiredField)
	}
	if f.Origin.IATA == "" {
		return fmt.Errorf("%w: Origin.IATA", ErrMissingRequiredField)
	}
	if f.Destination.IATA == "" {
		return fmt.Errorf("%w: Destination.IATA", ErrMissingRequiredField)
	}
	if f.ScheduledDepartureUTC.IsZero() {
		return fmt.Errorf("%w: ScheduledDepartureUTC", ErrMissingRequiredField)
	}
	if len(f.Contributions) == 0 {
		return fmt.Errorf("%w: at least one SourceContribution is required", ErrMissingRequiredField)
	}
	if f.ActualArrival != nil && f.ActualDeparture != nil {
		if !f.ActualArrival.After(*f.ActualDeparture) {
			return fmt.Errorf("%w: actual arrival (%s) must be after actual departure (%s)",
				ErrInvalidFlightTimes,
				f.ActualArrival.Format(time.RFC3339),
				f.ActualDeparture.Format(time.RFC3339))
		}
	}
	if f.Status == FlightStatusLanded && f.ActualArrival == nil {
		return fmt.Errorf("%w: status LANDED requires ActualArrival", ErrInvalidFlightTimes)
	}
	return nil
}

// SortContributionsByConfidence orders contributions by confidence
// descending, the canonical provenance ordering the design requires.
func SortContributionsByConfidence(contributions []SourceContribution) {
	sort.SliceStable(contributions, func(i, j int) bool {
		return contributions[i].Confidence > contributions[j].Confidence
	})
}
