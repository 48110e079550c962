// Package policy wraps the domain.Policy state machine with an
// append-only event log and the trigger evaluation the lifecycle monitor
// drives settlement from.
package policy

import (
	"sync"
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
)

// EventLog is an append-only, per-policy-serialized log. Writers for the
// same policyId are serialized by a striped lock; writers for different
// policies never block each other. There is no teacher precedent for
// striped locking specifically; this follows the pack's general idiom of
// a small guarded struct (e.g. a registry behind one mutex), stretched to
// one mutex per key instead of one mutex for the whole map.
type EventLog struct {
	mapMu sync.Mutex
	locks map[string]*sync.Mutex
	mu    sync.RWMutex
	byID  map[string][]domain.PolicyEvent
}

// NewEventLog returns an empty EventLog.
func NewEventLog() *EventLog {
	return &EventLog{
		locks: make(map[string]*sync.Mutex),
		byID:  make(map[string][]domain.PolicyEvent),
	}
}

func (l *EventLog) lockFor(policyID string) *sync.Mutex {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()
	m, ok := l.locks[policyID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[policyID] = m
	}
	return m
}

// Append adds event to policyID's log. Concurrent appends for the same
// policy are serialized; appends for different policies proceed in
// parallel.
func (l *EventLog) Append(policyID string, eventType domain.PolicyEventType, data map[string]any, triggeredBy string, now time.Time) domain.PolicyEvent {
	lock := l.lockFor(policyID)
	lock.Lock()
	defer lock.Unlock()

	event := domain.PolicyEvent{
		PolicyID:     policyID,
		Type:         eventType,
		Data:         data,
		TriggeredBy:  triggeredBy,
		CreatedAtUTC: now,
	}

	l.mu.Lock()
	l.byID[policyID] = append(l.byID[policyID], event)
	l.mu.Unlock()

	return event
}

// Events returns a snapshot of policyID's log. Because the log is
// append-only, any two snapshots taken at times t < t' satisfy
// Events(t) being a prefix of Events(t').
func (l *EventLog) Events(policyID string) []domain.PolicyEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	events := l.byID[policyID]
	out := make([]domain.PolicyEvent, len(events))
	copy(out, events)
	return out
}
