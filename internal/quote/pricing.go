// Package quote implements the deterministic pricing engine that turns a
// PolicyDataBundle into a priced Quote.
package quote

import (
	"math"
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
)

// Base rates, keyed by coverage type (percentage of coverage amount).
const (
	baseRateFlightDelay        = 0.025
	baseRateFlightCancellation = 0.04
	baseRateWeatherDisruption  = 0.03
)

// Risk multiplier bounds every product-level multiplier is clamped to.
const (
	minMultiplier = 0.5
	maxMultiplier = 4.0
)

// Data-confidence thresholds applied to source quality scoring.
const (
	qualitySurchargeFloor = 0.7
	qualityRefusalFloor   = 0.4
)

// Config carries the product-level bounds and timing parameters the
// pricing functions need. ValidityWindow mirrors
// internal/config.QuoteConfig.ValidityWindow; MinPremium and MaxPremium
// have no counterpart there.
type Config struct {
	MinPremium      int64
	MaxPremium      int64
	ValidityWindow  time.Duration
}

func baseRate(coverageType domain.CoverageType) float64 {
	switch coverageType {
	case domain.CoverageFlightCancellation:
		return baseRateFlightCancellation
	case domain.CoverageWeatherDisruption:
		return baseRateWeatherDisruption
	default:
		return baseRateFlightDelay
	}
}

// flightRiskMultiplier reflects the canonical status's disruption state,
// strongly increased when the flight is already DELAYED, CANCELLED or
// DIVERTED.
func flightRiskMultiplier(flight *domain.CanonicalFlight) float64 {
	if flight == nil {
		return minMultiplier
	}

	switch flight.Status {
	case domain.FlightStatusCancelled, domain.FlightStatusDiverted:
		return 3.5
	case domain.FlightStatusDelayed:
		return 2.5
	default:
		m := 1.0 + float64(flight.DelayArrivalMinutes)/120.0
		return clamp(m, minMultiplier, maxMultiplier)
	}
}

// weatherRiskMultiplier is a function of the worst condition type observed
// across the bundle's weather records and their visibility/wind readings.
func weatherRiskMultiplier(records []domain.CanonicalWeather) float64 {
	if len(records) == 0 {
		return 1.0
	}

	m := 1.0
	for _, w := range records {
		m = math.Max(m, conditionSeverity(w.ConditionType))
		if w.VisibilityKM > 0 && w.VisibilityKM < 1.0 {
			m += 0.3
		}
		if w.WindSpeedKPH >= 60 {
			m += 0.3
		}
	}
	return clamp(m, minMultiplier, maxMultiplier)
}

func conditionSeverity(c domain.WeatherConditionType) float64 {
	switch c {
	case domain.WeatherStorm:
		return 2.5
	case domain.WeatherSnow:
		return 2.0
	case domain.WeatherRain:
		return 1.4
	case domain.WeatherCloudy:
		return 1.1
	default:
		return 1.0
	}
}

// confidenceSurcharge returns the additive surcharge applied when the
// bundle's quality score is below the surcharge floor; quotes below the
// refusal floor never reach pricing (the caller refuses first).
func confidenceSurcharge(qualityScore float64) float64 {
	if qualityScore >= qualitySurchargeFloor {
		return 0
	}
	return qualitySurchargeFloor - qualityScore
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Price computes the RiskFactors and the round-to-cent premium for a
// coverageAmount, clamped to [cfg.MinPremium, cfg.MaxPremium] and checked
// against the premium < coverageAmount invariant.
func Price(bundle *domain.PolicyDataBundle, coverageType domain.CoverageType, coverageAmount int64, cfg Config) (domain.RiskFactors, int64) {
	rate := baseRate(coverageType)
	factors := domain.RiskFactors{
		BaseRate:              rate,
		FlightRiskMultiplier:  flightRiskMultiplier(bundle.Flight),
		WeatherRiskMultiplier: weatherRiskMultiplier(bundle.Weather),
		ConfidenceSurcharge:   confidenceSurcharge(bundle.QualityScore()),
	}

	raw := float64(coverageAmount) * factors.BaseRate * factors.Combined()
	premium := int64(math.Round(raw))

	if cfg.MinPremium > 0 && premium < cfg.MinPremium {
		premium = cfg.MinPremium
	}
	if cfg.MaxPremium > 0 && premium > cfg.MaxPremium {
		premium = cfg.MaxPremium
	}
	if premium >= coverageAmount {
		premium = coverageAmount - 1
	}
	if premium < 1 {
		premium = 1
	}

	return factors, premium
}
