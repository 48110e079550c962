package squall

import (
	"context"
	"testing"
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_FetchWeatherClassifiesRain(t *testing.T) {
	a := NewAdapter(true)
	date, _ := time.Parse("2006-01-02", "2025-07-01")

	w, err := a.FetchWeather(context.Background(), domain.WeatherQuery{AirportIATA: "DPS", Date: date, ForecastPeriod: domain.ForecastPeriodCurrent})
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, domain.WeatherRain, w.ConditionType)
}

func TestAdapter_NameAndPriorityBelowMeridian(t *testing.T) {
	a := NewAdapter(true)
	assert.Equal(t, "squall", a.Name())
	assert.Equal(t, 80, a.Priority())
}
