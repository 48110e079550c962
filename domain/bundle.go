package domain

import "time"

// SourceTiming records how long one sub-query took and whether it was
// served from cache, for the aggregation metadata attached to a bundle.
type SourceTiming struct {
	Source          string
	ProcessingTime  time.Duration
	FromCache       bool
}

// AggregationMetadata is returned alongside every merged record so callers
// can see which sources contributed and how expensive the lookup was.
type AggregationMetadata struct {
	SourcesUsed     []string
	PerSourceTiming []SourceTiming
	TotalWallTime   time.Duration
}

// PolicyDataBundle composes the one flight record and N weather records a
// policy quote is priced from.
type PolicyDataBundle struct {
	Flight          *CanonicalFlight
	Weather         []CanonicalWeather
	FlightMeta      AggregationMetadata
	WeatherMeta     AggregationMetadata
	WeatherFailures []string
}

// QualityScore is the bundle-level confidence the Quote Engine checks
// against its refusal floor: the flight record's quality score, since the
// flight leg is mandatory and weather is merely advisory.
func (b *PolicyDataBundle) QualityScore() float64 {
	if b.Flight == nil {
		return 0
	}
	return b.Flight.DataQualityScore
}
