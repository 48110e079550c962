// Package squall adapts the lower-priority mock weather feed into the
// canonical domain model.
package squall

import (
	"strings"
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
)

// ProviderName is this source's identifier in contributions and logs.
const ProviderName = "squall"

type rawObservation struct {
	AirportIATA          string  `json:"airportIATA"`
	Date                 string  `json:"date"`
	ForecastPeriod       string  `json:"forecastPeriod"`
	ObservationTimestamp string  `json:"observationTimestamp"`
	TemperatureCelsius   float64 `json:"temperatureCelsius"`
	ConditionCode        string  `json:"conditionCode"`
	ConditionText        string  `json:"conditionText"`
	WindSpeedKPH         float64 `json:"windSpeedKPH"`
	WindCardinal         string  `json:"windCardinal"`
	PrecipitationMM      float64 `json:"precipitationMM"`
	VisibilityKM         float64 `json:"visibilityKM"`
	HumidityPct          float64 `json:"humidityPct"`
	PressureHPa          float64 `json:"pressureHPa"`
}

type mockResponse struct {
	Observations []rawObservation `json:"observations"`
}

func classifyCondition(text string) domain.WeatherConditionType {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "thunder") || strings.Contains(lower, "storm"):
		return domain.WeatherStorm
	case strings.Contains(lower, "snow"):
		return domain.WeatherSnow
	case strings.Contains(lower, "rain") || strings.Contains(lower, "shower"):
		return domain.WeatherRain
	case strings.Contains(lower, "cloud") || strings.Contains(lower, "overcast"):
		return domain.WeatherCloudy
	default:
		return domain.WeatherClear
	}
}

func normalize(raw rawObservation, now time.Time) *domain.CanonicalWeather {
	observedAt, err := time.Parse(time.RFC3339, raw.ObservationTimestamp)
	if err != nil {
		return nil
	}

	period := domain.ForecastPeriod(raw.ForecastPeriod)
	if period == "" {
		period = domain.ForecastPeriodCurrent
	}

	return &domain.CanonicalWeather{
		AirportIATA:             raw.AirportIATA,
		ObservationTimestampUTC: observedAt,
		ForecastPeriod:          period,
		TemperatureCelsius:      raw.TemperatureCelsius,
		ConditionCode:           raw.ConditionCode,
		ConditionText:           raw.ConditionText,
		ConditionType:           classifyCondition(raw.ConditionText),
		WindSpeedKPH:            raw.WindSpeedKPH,
		WindCardinal:            raw.WindCardinal,
		PrecipitationMM:         raw.PrecipitationMM,
		VisibilityKM:            raw.VisibilityKM,
		HumidityPct:             raw.HumidityPct,
		PressureHPa:             raw.PressureHPa,
		LastUpdatedUTC:          now,
		Contributions: []domain.SourceContribution{{
			SourceName: ProviderName,
			Fields:     []string{"conditionType", "windSpeedKPH", "visibilityKM"},
			Timestamp:  now,
			Confidence: reliability,
		}},
	}
}
