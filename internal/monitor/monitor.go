// Package monitor owns the two recurring background jobs the rest of the
// system depends on but nothing actively drives: expiring stale pending
// quotes, and sweeping active policies for a flight-delay or cancellation
// trigger so their escrow gets released. Both run on explicit,
// cancellable tickers rather than callback-driven timers, so a caller can
// shut the whole loop down deterministically with one context.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
	"github.com/herdiagusthio/flightdelay-escrow/internal/aggregator"
	"github.com/herdiagusthio/flightdelay-escrow/internal/escrow"
	"github.com/herdiagusthio/flightdelay-escrow/internal/executor"
	"github.com/herdiagusthio/flightdelay-escrow/internal/policy"
	"github.com/herdiagusthio/flightdelay-escrow/internal/quote"
	"github.com/herdiagusthio/flightdelay-escrow/internal/store"
	"github.com/rs/zerolog/log"
)

// FlightLookup narrows the flight aggregator to the one call the monitor
// needs: the current canonical view of a policy's insured leg.
type FlightLookup interface {
	GetFlightStatus(ctx context.Context, query domain.FlightQuery) (*aggregator.FlightResult, error)
}

// TransactionSigner produces a signed release transaction for an escrow
// payout. A concrete implementation is injected by the composition root;
// the monitor never constructs key material itself.
type TransactionSigner interface {
	SignRelease(ctx context.Context, e *domain.Escrow, recipientAddr string) ([]byte, error)
}

// Store is the persistence surface the monitor sweeps against.
type Store interface {
	store.QuoteStore
	store.PolicyStore
	store.EscrowStore
	store.WalletStore
	store.SchedulerStore
}

// Monitor is the scheduler-owned Policy Lifecycle Monitor: one ticker
// loop per job, both stoppable from a single parent context.
type Monitor struct {
	store       Store
	flights     FlightLookup
	escrowAdapter *escrow.Adapter
	signer      TransactionSigner
	policies    *policy.Manager

	quoteSweepInterval  time.Duration
	policySweepInterval time.Duration
	settlementTimeout   time.Duration
	executorCfg         executor.Config
}

// New wires a Monitor. sweepInterval sets both quoteSweepInterval and
// policySweepInterval, so the quote-expiry sweep and the policy sweep run
// at the same cadence; the composition root passes MONITOR_SWEEP_INTERVAL.
func New(
	st Store,
	flights FlightLookup,
	escrowAdapter *escrow.Adapter,
	signer TransactionSigner,
	policies *policy.Manager,
	sweepInterval time.Duration,
	settlementTimeout time.Duration,
	executorCfg executor.Config,
) *Monitor {
	return &Monitor{
		store:               st,
		flights:             flights,
		escrowAdapter:       escrowAdapter,
		signer:              signer,
		policies:            policies,
		quoteSweepInterval:  sweepInterval,
		policySweepInterval: sweepInterval,
		settlementTimeout:   settlementTimeout,
		executorCfg:         executorCfg,
	}
}

// Run blocks, driving both sweeps on their own tickers until ctx is
// cancelled. The caller runs this in its own goroutine.
func (m *Monitor) Run(ctx context.Context) {
	quoteTicker := time.NewTicker(m.quoteSweepInterval)
	defer quoteTicker.Stop()

	policyTicker := time.NewTicker(m.policySweepInterval)
	defer policyTicker.Stop()

	log.Info().
		Dur("quote_sweep_interval", m.quoteSweepInterval).
		Dur("policy_sweep_interval", m.policySweepInterval).
		Msg("policy lifecycle monitor started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("policy lifecycle monitor stopping")
			return
		case <-quoteTicker.C:
			m.runQuoteSweep(ctx)
		case <-policyTicker.C:
			m.runPolicySweep(ctx)
		}
	}
}

func (m *Monitor) runQuoteSweep(ctx context.Context) {
	started := time.Now()
	expired, err := quote.ExpireStalePending(m.store, time.Now())
	m.recordExecution("quote_expiry_sweep", started, err)
	if err != nil {
		log.Error().Err(err).Msg("quote expiry sweep failed")
		return
	}
	if expired > 0 {
		log.Info().Int("expired", expired).Msg("quote expiry sweep completed")
	}
}

func (m *Monitor) runPolicySweep(ctx context.Context) {
	started := time.Now()
	policies, err := m.store.ListActivePolicies()
	if err != nil {
		m.recordExecution("policy_trigger_sweep", started, err)
		log.Error().Err(err).Msg("failed to list active policies")
		return
	}

	var firstErr error
	for _, p := range policies {
		if err := m.evaluateOne(ctx, p); err != nil {
			log.Error().Err(err).Str("policy_id", p.PolicyID).Msg("policy sweep step failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	m.recordExecution("policy_trigger_sweep", started, firstErr)
}

// evaluateOne fetches current flight status for one active policy, checks
// for a settlement trigger, and if found drives the full settlement path
// through to a terminal PAYOUT_COMPLETED or PAYOUT_FAILED event.
func (m *Monitor) evaluateOne(ctx context.Context, p *domain.Policy) error {
	if ok, err := m.policies.ExpireIfPast(p, time.Now()); err != nil {
		return fmt.Errorf("expire check: %w", err)
	} else if ok {
		return nil
	}

	result, err := m.flights.GetFlightStatus(ctx, domain.FlightQuery{
		FlightNumber: p.FlightRef,
		Date:         p.FlightDate,
	})
	if err != nil {
		return fmt.Errorf("fetch flight status: %w", err)
	}
	flight := result.Data

	reason := policy.EvaluateTrigger(p, flight)
	if reason == policy.TriggerNone {
		return nil
	}

	return m.settle(ctx, p, reason, flight)
}

// settle runs the claim-condition-met through payout-completed/failed
// sequence for one triggered policy, bounding the chain submission with
// the shared retry/backoff discipline.
func (m *Monitor) settle(ctx context.Context, p *domain.Policy, reason policy.TriggerReason, flight domain.CanonicalFlight) error {
	m.policies.RecordClaimConditionMet(p.PolicyID, reason, flight, time.Now())

	e, err := m.store.GetEscrow(p.EscrowID)
	if err != nil {
		_ = m.policies.RecordPayoutFailed(p, "escrow lookup failed: "+err.Error(), time.Now())
		return fmt.Errorf("lookup escrow %s: %w", p.EscrowID, err)
	}

	recipientAddr, err := m.store.ResolveAddress(p.Owner)
	if err != nil {
		_ = m.policies.RecordPayoutFailed(p, "beneficiary wallet lookup failed: "+err.Error(), time.Now())
		return fmt.Errorf("resolve beneficiary address: %w", err)
	}

	settleCtx, cancel := context.WithTimeout(ctx, m.settlementTimeout)
	defer cancel()

	var txHash string
	runErr := executor.Run(settleCtx, m.executorCfg, nil, func(ctx context.Context) error {
		signedTx, err := m.signer.SignRelease(ctx, e, recipientAddr)
		if err != nil {
			return fmt.Errorf("sign release: %w", err)
		}
		result, err := m.escrowAdapter.ReleaseEscrow(ctx, e, signedTx)
		if err != nil {
			return err
		}
		txHash = result.Hash
		return nil
	})
	if runErr != nil {
		_ = m.policies.RecordPayoutFailed(p, runErr.Error(), time.Now())
		return fmt.Errorf("release escrow after retries: %w", runErr)
	}

	if err := m.store.SaveEscrow(e); err != nil {
		log.Error().Err(err).Str("escrow_id", e.InternalID).Msg("failed to persist released escrow")
	}

	return m.policies.RecordPayoutCompleted(p, txHash, time.Now())
}

func (m *Monitor) recordExecution(taskName string, started time.Time, err error) {
	finished := time.Now()
	exec := store.TaskExecution{
		TaskName:   taskName,
		StartedAt:  started,
		FinishedAt: finished,
		Succeeded:  err == nil,
	}
	if err != nil {
		exec.Detail = err.Error()
	}
	if recErr := m.store.RecordTaskExecution(exec); recErr != nil {
		log.Error().Err(recErr).Str("task", taskName).Msg("failed to record task execution")
	}
}
