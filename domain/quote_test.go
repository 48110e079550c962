package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuote_Validate(t *testing.T) {
	now := time.Now().UTC()
	tests := []struct {
		name    string
		quote   Quote
		wantErr bool
	}{
		{
			name: "valid quote",
			quote: Quote{
				CoverageAmount: 50000,
				Premium:        2000,
				CreatedAtUTC:   now,
				ValidUntilUTC:  now.Add(15 * time.Minute),
			},
			wantErr: false,
		},
		{
			name: "premium equal to coverage",
			quote: Quote{
				CoverageAmount: 1000,
				Premium:        1000,
				CreatedAtUTC:   now,
				ValidUntilUTC:  now.Add(15 * time.Minute),
			},
			wantErr: true,
		},
		{
			name: "validUntil not after createdAt",
			quote: Quote{
				CoverageAmount: 50000,
				Premium:        2000,
				CreatedAtUTC:   now,
				ValidUntilUTC:  now,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.quote.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuote_AcceptAndExpire(t *testing.T) {
	now := time.Now().UTC()

	t.Run("accept pending unexpired quote", func(t *testing.T) {
		q := Quote{Status: QuoteStatusPending, ValidUntilUTC: now.Add(time.Minute)}
		assert.NoError(t, q.Accept(now))
		assert.Equal(t, QuoteStatusAccepted, q.Status)
	})

	t.Run("accept expired quote fails", func(t *testing.T) {
		q := Quote{QuoteID: "qt_1", Status: QuoteStatusPending, ValidUntilUTC: now.Add(-time.Minute)}
		err := q.Accept(now)
		assert.ErrorIs(t, err, ErrQuoteExpired)
	})

	t.Run("accept non-pending quote fails", func(t *testing.T) {
		q := Quote{QuoteID: "qt_1", Status: QuoteStatusAccepted, ValidUntilUTC: now.Add(time.Minute)}
		err := q.Accept(now)
		assert.ErrorIs(t, err, ErrQuoteNotPending)
	})

	t.Run("expire stale pending quote", func(t *testing.T) {
		q := Quote{Status: QuoteStatusPending, ValidUntilUTC: now.Add(-time.Second)}
		assert.True(t, q.Expire(now))
		assert.Equal(t, QuoteStatusExpired, q.Status)
	})

	t.Run("expire is no-op for non-pending", func(t *testing.T) {
		q := Quote{Status: QuoteStatusAccepted, ValidUntilUTC: now.Add(-time.Second)}
		assert.False(t, q.Expire(now))
		assert.Equal(t, QuoteStatusAccepted, q.Status)
	})
}

func TestRiskFactors_Combined(t *testing.T) {
	r := RiskFactors{FlightRiskMultiplier: 1.5, WeatherRiskMultiplier: 1.2, ConfidenceSurcharge: 0.1}
	assert.InDelta(t, 1.5*1.2*1.1, r.Combined(), 0.0001)
}
