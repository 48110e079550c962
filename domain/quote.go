package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CoverageType enumerates the parametric products the Quote Engine prices.
type CoverageType string

const (
	CoverageFlightDelay        CoverageType = "FLIGHT_DELAY"
	CoverageFlightCancellation CoverageType = "FLIGHT_CANCELLATION"
	CoverageWeatherDisruption  CoverageType = "WEATHER_DISRUPTION"
)

// QuoteStatus is the lifecycle state of a Quote.
type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "PENDING"
	QuoteStatusAccepted QuoteStatus = "ACCEPTED"
	QuoteStatusExpired  QuoteStatus = "EXPIRED"
	QuoteStatusRejected QuoteStatus = "REJECTED"
)

// RiskFactors is the deterministic snapshot of multipliers that produced a
// quote's premium, kept for audit and for the "transparent pricing"
// requirement — a customer can see exactly why a premium was what it was.
type RiskFactors struct {
	BaseRate             float64
	FlightRiskMultiplier float64
	WeatherRiskMultiplier float64
	ConfidenceSurcharge  float64
}

// Combined multiplies the three risk multipliers together, the product the
// premium formula scales the base rate by.
func (r RiskFactors) Combined() float64 {
	return r.FlightRiskMultiplier * r.WeatherRiskMultiplier * (1 + r.ConfidenceSurcharge)
}

// Quote is a priced, time-bounded offer to insure one flight.
type Quote struct {
	QuoteID        string
	FlightRef      string
	CoverageType   CoverageType
	CoverageAmount int64 // minor units (cents)
	Premium        int64 // minor units (cents)
	RiskFactors    RiskFactors
	CreatedAtUTC   time.Time
	ValidUntilUTC  time.Time
	Status         QuoteStatus
}

// NewQuoteID generates a fresh quote identifier.
func NewQuoteID() string {
	return "qt_" + uuid.NewString()
}

// Validate enforces the Quote invariants: premium never exceeds
// coverage, and the validity window is non-empty and forward-looking.
func (q *Quote) Validate() error {
	if q.CoverageAmount <= 0 {
		return fmt.Errorf("%w: CoverageAmount must be positive", ErrInvalidRequest)
	}
	if q.Premium <= 0 || q.Premium >= q.CoverageAmount {
		return fmt.Errorf("%w: Premium (%d) must satisfy 0 < premium < coverageAmount (%d)", ErrInvalidRequest, q.Premium, q.CoverageAmount)
	}
	if !q.ValidUntilUTC.After(q.CreatedAtUTC) {
		return fmt.Errorf("%w: ValidUntilUTC must be after CreatedAtUTC", ErrInvalidRequest)
	}
	return nil
}

// IsExpired reports whether the quote's validity window has passed as of now.
func (q *Quote) IsExpired(now time.Time) bool {
	return now.After(q.ValidUntilUTC)
}

// Accept transitions a PENDING quote to ACCEPTED, the state a purchase binds
// it to a policy from. It refuses to accept an expired or non-pending quote.
func (q *Quote) Accept(now time.Time) error {
	if q.Status != QuoteStatusPending {
		return fmt.Errorf("%w: quote %s is %s, not PENDING", ErrQuoteNotPending, q.QuoteID, q.Status)
	}
	if q.IsExpired(now) {
		return fmt.Errorf("%w: quote %s expired at %s", ErrQuoteExpired, q.QuoteID, q.ValidUntilUTC)
	}
	q.Status = QuoteStatusAccepted
	return nil
}

// Expire transitions a PENDING quote whose validity window has passed to
// EXPIRED. It is a no-op for quotes already in a terminal state.
func (q *Quote) Expire(now time.Time) bool {
	if q.Status != QuoteStatusPending {
		return false
	}
	if !q.IsExpired(now) {
		return false
	}
	q.Status = QuoteStatusExpired
	return true
}
