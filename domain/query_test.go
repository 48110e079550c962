package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFlightQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   FlightQuery
		wantErr bool
	}{
		{name: "valid", query: FlightQuery{FlightNumber: "BT318", Date: time.Now()}, wantErr: false},
		{name: "missing number", query: FlightQuery{Date: time.Now()}, wantErr: true},
		{name: "malformed number", query: FlightQuery{FlightNumber: "318BT", Date: time.Now()}, wantErr: true},
		{name: "missing date", query: FlightQuery{FlightNumber: "BT318"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFlightQuery_CacheKey(t *testing.T) {
	q := FlightQuery{FlightNumber: "BT318", Date: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "flight:BT318:2025-07-01", q.CacheKey())
}

func TestWeatherQuery_CacheKey(t *testing.T) {
	q := WeatherQuery{AirportIATA: "RIX", Date: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), ForecastPeriod: ForecastPeriodCurrent}
	assert.Equal(t, "wx:RIX:2025-07-01:CURRENT", q.CacheKey())
}

func TestPolicyDataRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     PolicyDataRequest
		wantErr bool
	}{
		{
			name:    "valid with airports",
			req:     PolicyDataRequest{FlightNumber: "BT318", Date: time.Now(), Airports: []string{"RIX", "LHR"}},
			wantErr: false,
		},
		{
			name:    "bad airport code",
			req:     PolicyDataRequest{FlightNumber: "BT318", Date: time.Now(), Airports: []string{"rix"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
