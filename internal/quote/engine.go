package quote

import (
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
)

// Store is the persistence surface the engine needs: create a quote and
// later list the pending ones a sweep might expire.
type Store interface {
	SaveQuote(quote *domain.Quote) error
	ListPendingQuotes() ([]*domain.Quote, error)
}

// Engine prices and issues quotes against a PolicyDataBundle.
type Engine struct {
	store Store
	cfg   Config
}

// NewEngine wires a pricing engine over a quote store.
func NewEngine(store Store, cfg Config) *Engine {
	return &Engine{store: store, cfg: cfg}
}

// Quote produces, persists and returns a priced Quote for a flight, or one
// of the two refusal errors below.
func (e *Engine) Quote(flightRef string, bundle *domain.PolicyDataBundle, coverageType domain.CoverageType, coverageAmount int64, now time.Time) (*domain.Quote, error) {
	if bundle.Flight == nil || bundle.QualityScore() < qualityRefusalFloor {
		return nil, domain.ErrRefusedInsufficientData
	}
	if bundle.Flight.Status.IsDisruptive() {
		return nil, domain.ErrRefusedEventAlreadyOccurred
	}

	factors, premium := Price(bundle, coverageType, coverageAmount, e.cfg)

	validityWindow := e.cfg.ValidityWindow
	if validityWindow <= 0 {
		validityWindow = 15 * time.Minute
	}

	q := &domain.Quote{
		QuoteID:        domain.NewQuoteID(),
		FlightRef:      flightRef,
		CoverageType:   coverageType,
		CoverageAmount: coverageAmount,
		Premium:        premium,
		RiskFactors:    factors,
		CreatedAtUTC:   now,
		ValidUntilUTC:  now.Add(validityWindow),
		Status:         domain.QuoteStatusPending,
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := e.store.SaveQuote(q); err != nil {
		return nil, err
	}

	return q, nil
}

// ExpireStalePending transitions every PENDING quote whose ValidUntilUTC
// has passed to EXPIRED. Invoked by the monitor's ticker loop; this is the
// only mechanism that drives Quote.Status into EXPIRED.
func ExpireStalePending(store Store, now time.Time) (int, error) {
	pending, err := store.ListPendingQuotes()
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, q := range pending {
		if !q.Expire(now) {
			continue
		}
		if err := store.SaveQuote(q); err != nil {
			return expired, err
		}
		expired++
	}
	return expired, nil
}
