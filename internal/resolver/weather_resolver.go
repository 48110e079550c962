package resolver

import (
	"math"
	"sort"
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
)

// WeatherResult is the weather analogue of FlightResult.
type WeatherResult struct {
	Merged       domain.CanonicalWeather
	QualityScore float64
}

// ResolveWeather merges N canonical weather observations for the same
// (airport, timestamp, period) key. Weather has no designated critical
// fields, so every attribute is filled by the first non-null value in
// priority order, the same rule applied to non-critical flight fields.
func ResolveWeather(records []domain.CanonicalWeather, now time.Time) (*WeatherResult, error) {
	if len(records) == 0 {
		return nil, domain.ErrEmptyRecordSet
	}

	if len(records) == 1 {
		r := records[0]
		r.LastUpdatedUTC = now
		return &WeatherResult{Merged: r, QualityScore: weatherCompleteness(r)}, nil
	}

	priorityOrdered := sortWeatherByPriority(records)

	merged := domain.CanonicalWeather{
		AirportIATA:             priorityOrdered[0].AirportIATA,
		ObservationTimestampUTC: priorityOrdered[0].ObservationTimestampUTC,
		ForecastPeriod:          priorityOrdered[0].ForecastPeriod,
	}

	for _, r := range priorityOrdered {
		if merged.ConditionType == "" {
			merged.ConditionType = r.ConditionType
		}
		if merged.ConditionCode == "" {
			merged.ConditionCode = r.ConditionCode
		}
		if merged.ConditionText == "" {
			merged.ConditionText = r.ConditionText
		}
		if merged.WindCardinal == "" {
			merged.WindCardinal = r.WindCardinal
		}
		if merged.TemperatureCelsius == 0 {
			merged.TemperatureCelsius = r.TemperatureCelsius
		}
		if merged.WindSpeedKPH == 0 {
			merged.WindSpeedKPH = r.WindSpeedKPH
		}
		if merged.PrecipitationMM == 0 {
			merged.PrecipitationMM = r.PrecipitationMM
		}
		if merged.VisibilityKM == 0 {
			merged.VisibilityKM = r.VisibilityKM
		}
		if merged.HumidityPct == 0 {
			merged.HumidityPct = r.HumidityPct
		}
		if merged.PressureHPa == 0 {
			merged.PressureHPa = r.PressureHPa
		}
	}

	merged.Contributions = mergeWeatherContributions(records)
	merged.LastUpdatedUTC = now

	sum := 0.0
	for _, r := range records {
		sum += weatherCompleteness(r)
	}
	mean := sum / float64(len(records))
	bonus := math.Min(0.1, 0.02*float64(len(records)-1))
	score := mean + bonus
	if score > 1 {
		score = 1
	}
	merged.DataQualityScore = score

	return &WeatherResult{Merged: merged, QualityScore: score}, nil
}

// sortWeatherByPriority mirrors sortByPriority's confidence-desc-then-
// timestamp-desc rule, so the first-non-null merge above doesn't depend on
// the aggregator's non-deterministic fan-out order.
func sortWeatherByPriority(records []domain.CanonicalWeather) []domain.CanonicalWeather {
	sorted := make([]domain.CanonicalWeather, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		ci, cj := weatherConfidenceOf(sorted[i]), weatherConfidenceOf(sorted[j])
		if ci != cj {
			return ci > cj
		}
		return sorted[i].ObservationTimestampUTC.After(sorted[j].ObservationTimestampUTC)
	})
	return sorted
}

func weatherConfidenceOf(r domain.CanonicalWeather) float64 {
	if len(r.Contributions) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range r.Contributions {
		sum += c.Confidence
	}
	return sum / float64(len(r.Contributions))
}

func mergeWeatherContributions(records []domain.CanonicalWeather) []domain.SourceContribution {
	bySource := map[string]domain.SourceContribution{}
	for _, r := range records {
		for _, c := range r.Contributions {
			existing, ok := bySource[c.SourceName]
			if !ok || c.Confidence > existing.Confidence {
				bySource[c.SourceName] = c
			}
		}
	}
	merged := make([]domain.SourceContribution, 0, len(bySource))
	for _, c := range bySource {
		merged = append(merged, c)
	}
	domain.SortContributionsByConfidence(merged)
	return merged
}

func weatherCompleteness(r domain.CanonicalWeather) float64 {
	present := 0
	total := 6
	if r.ConditionType != "" {
		present++
	}
	if r.TemperatureCelsius != 0 {
		present++
	}
	if r.WindSpeedKPH != 0 {
		present++
	}
	if r.VisibilityKM != 0 {
		present++
	}
	if r.HumidityPct != 0 {
		present++
	}
	if r.PressureHPa != 0 {
		present++
	}
	base := float64(present) / float64(total)

	confidence := 0.0
	if len(r.Contributions) > 0 {
		sum := 0.0
		for _, c := range r.Contributions {
			sum += c.Confidence
		}
		confidence = sum / float64(len(r.Contributions))
	}

	total2 := base + 0.05*confidence
	if total2 > 1.0 {
		total2 = 1.0
	}
	return total2
}
