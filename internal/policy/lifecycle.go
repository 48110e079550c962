package policy

import (
	"fmt"
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
)

// Store is the persistence seam a Manager needs: saving a policy after
// each approved transition. Policy events are not written through it; the
// Manager keeps them only in its own in-memory EventLog (see Events).
type Store interface {
	SavePolicy(p *domain.Policy) error
}

// Manager drives Policy transitions and keeps its EventLog in lock-step
// with every state change it approves.
type Manager struct {
	store Store
	log   *EventLog
}

// NewManager wires a Manager to the policy store and a fresh EventLog.
func NewManager(store Store) *Manager {
	return &Manager{store: store, log: NewEventLog()}
}

// Events exposes the underlying log for read access (e.g. an API surface
// rendering a policy's history).
func (m *Manager) Events(policyID string) []domain.PolicyEvent {
	return m.log.Events(policyID)
}

// Activate moves a PENDING policy to ACTIVE, recording POLICY_ACTIVATED
// followed by MONITORING_ACTIVE so the monitor loop can pick it up on its
// next sweep.
func (m *Manager) Activate(p *domain.Policy, now time.Time) error {
	if err := p.Transition(domain.PolicyStatusActive); err != nil {
		return err
	}
	if err := m.store.SavePolicy(p); err != nil {
		return err
	}
	m.log.Append(p.PolicyID, domain.EventPolicyActivated, nil, "system", now)
	m.log.Append(p.PolicyID, domain.EventMonitoringActive, nil, "system", now)
	return nil
}

// Cancel moves a policy to CANCELLED when the owner is still within the
// cancellation window.
func (m *Manager) Cancel(p *domain.Policy, triggeredBy string, now time.Time) error {
	if !p.CanCancel() {
		return fmt.Errorf("%w: policy %s is no longer cancellable", domain.ErrPolicyStateViolation, p.PolicyID)
	}
	if err := p.Transition(domain.PolicyStatusCancelled); err != nil {
		return err
	}
	if err := m.store.SavePolicy(p); err != nil {
		return err
	}
	m.log.Append(p.PolicyID, domain.EventPolicyCancelled, nil, triggeredBy, now)
	return nil
}

// ExpireIfPast moves an ACTIVE policy past its expiry timestamp to
// EXPIRED. Reports false (no error) if expiry has not yet been reached.
func (m *Manager) ExpireIfPast(p *domain.Policy, now time.Time) (bool, error) {
	if p.Status != domain.PolicyStatusActive || now.Before(p.ExpiresAtUTC) {
		return false, nil
	}
	if err := p.Transition(domain.PolicyStatusExpired); err != nil {
		return false, err
	}
	if err := m.store.SavePolicy(p); err != nil {
		return false, err
	}
	m.log.Append(p.PolicyID, domain.EventPolicyExpired, nil, "system", now)
	return true, nil
}

// TriggerReason names which condition a flight record satisfied.
type TriggerReason string

const (
	TriggerNone         TriggerReason = ""
	TriggerFlightDelay  TriggerReason = "FLIGHT_DELAY"
	TriggerCancellation TriggerReason = "CANCELLATION"
)

// EvaluateTrigger inspects a resolved canonical flight against a policy's
// own threshold and reports whether a claim condition has been met.
// CANCELLATION (status CANCELLED or DIVERTED) takes precedence over
// FLIGHT_DELAY when both would technically apply, since a diverted flight
// often also carries a nonzero delay figure that is no longer meaningful.
func EvaluateTrigger(p *domain.Policy, flight domain.CanonicalFlight) TriggerReason {
	if flight.Status.IsDisruptive() {
		return TriggerCancellation
	}
	threshold := p.DelayThresholdMinutes
	if threshold <= 0 {
		threshold = domain.DefaultDelayThresholdMinutes()
	}
	if flight.DelayArrivalMinutes >= threshold {
		return TriggerFlightDelay
	}
	return TriggerNone
}

// RecordClaimConditionMet appends CLAIM_CONDITION_MET and PAYOUT_PROCESSING,
// the pair the monitor loop writes before attempting escrow release. It
// does not itself mutate Status — CLAIMED is only reached once the payout
// is confirmed, via RecordPayoutCompleted.
func (m *Manager) RecordClaimConditionMet(policyID string, reason TriggerReason, flight domain.CanonicalFlight, now time.Time) {
	m.log.Append(policyID, domain.EventClaimConditionMet, map[string]any{
		"reason":              string(reason),
		"status":              string(flight.Status),
		"delayArrivalMinutes": flight.DelayArrivalMinutes,
	}, "system", now)
	m.log.Append(policyID, domain.EventPayoutProcessing, nil, "system", now)
}

// RecordPayoutCompleted transitions the policy to CLAIMED and appends
// PAYOUT_COMPLETED once the escrow release transaction is confirmed.
func (m *Manager) RecordPayoutCompleted(p *domain.Policy, txHash string, now time.Time) error {
	if err := p.Transition(domain.PolicyStatusClaimed); err != nil {
		return err
	}
	if err := m.store.SavePolicy(p); err != nil {
		return err
	}
	m.log.Append(p.PolicyID, domain.EventPayoutCompleted, map[string]any{"txHash": txHash}, "system", now)
	return nil
}

// RecordPayoutFailed transitions the policy to FAILED and appends
// PAYOUT_FAILED once the monitor loop has exhausted its retry budget.
func (m *Manager) RecordPayoutFailed(p *domain.Policy, reason string, now time.Time) error {
	if err := p.Transition(domain.PolicyStatusFailed); err != nil {
		return err
	}
	if err := m.store.SavePolicy(p); err != nil {
		return err
	}
	m.log.Append(p.PolicyID, domain.EventPayoutFailed, map[string]any{"reason": reason}, "system", now)
	return nil
}
