package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
)

// MemoryStore is the in-memory reference Store: every table is a
// map guarded by one mutex. It has no durability and no transactional
// isolation beyond that single lock, which is the right tradeoff for
// tests and the demo composition root.
type MemoryStore struct {
	mu sync.RWMutex

	quotes    map[string]*domain.Quote
	policies  map[string]*domain.Policy
	events    map[string][]domain.PolicyEvent
	escrows   map[string]*domain.Escrow
	byChainID map[string]string // blockchainID -> internalID
	wallets   map[string]string // owner key -> address
	tasks     map[string]ScheduledTask
	runs      []TaskExecution
	cache     map[string]cachedRow
}

type cachedRow struct {
	value     []byte
	tags      []string
	expiresAt time.Time
}

// Ping always succeeds; MemoryStore has no external dependency to check.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		quotes:    make(map[string]*domain.Quote),
		policies:  make(map[string]*domain.Policy),
		events:    make(map[string][]domain.PolicyEvent),
		escrows:   make(map[string]*domain.Escrow),
		byChainID: make(map[string]string),
		wallets:   make(map[string]string),
		tasks:     make(map[string]ScheduledTask),
		cache:     make(map[string]cachedRow),
	}
}

// --- quotes ---

func (s *MemoryStore) SaveQuote(q *domain.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *q
	s.quotes[q.QuoteID] = &cp
	return nil
}

func (s *MemoryStore) GetQuote(quoteID string) (*domain.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[quoteID]
	if !ok {
		return nil, fmt.Errorf("%w: quote %s", domain.ErrNotFound, quoteID)
	}
	cp := *q
	return &cp, nil
}

func (s *MemoryStore) ListPendingQuotes() ([]*domain.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Quote
	for _, q := range s.quotes {
		if q.Status == domain.QuoteStatusPending {
			cp := *q
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAtUTC.Before(out[j].CreatedAtUTC) })
	return out, nil
}

// --- policies ---

func (s *MemoryStore) SavePolicy(p *domain.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.policies[p.PolicyID] = &cp
	return nil
}

func (s *MemoryStore) GetPolicy(policyID string) (*domain.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[policyID]
	if !ok {
		return nil, fmt.Errorf("%w: policy %s", domain.ErrNotFound, policyID)
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) ListActivePolicies() ([]*domain.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Policy
	for _, p := range s.policies {
		if p.Status == domain.PolicyStatusActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PolicyID < out[j].PolicyID })
	return out, nil
}

// --- policy events ---

func (s *MemoryStore) AppendPolicyEvent(e domain.PolicyEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.PolicyID] = append(s.events[e.PolicyID], e)
	return nil
}

func (s *MemoryStore) ListPolicyEvents(policyID string) ([]domain.PolicyEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := s.events[policyID]
	out := make([]domain.PolicyEvent, len(events))
	copy(out, events)
	return out, nil
}

// --- escrows ---

func (s *MemoryStore) SaveEscrow(e *domain.Escrow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	if e.BlockchainID != "" {
		if existing, ok := s.byChainID[e.BlockchainID]; ok && existing != e.InternalID {
			return fmt.Errorf("%w: blockchainId %s already bound to escrow %s", domain.ErrInvalidRequest, e.BlockchainID, existing)
		}
		s.byChainID[e.BlockchainID] = e.InternalID
	}
	s.escrows[e.InternalID] = &cp
	return nil
}

func (s *MemoryStore) GetEscrow(internalID string) (*domain.Escrow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.escrows[internalID]
	if !ok {
		return nil, fmt.Errorf("%w: escrow %s", domain.ErrNotFound, internalID)
	}
	cp := *e
	return &cp, nil
}

func (s *MemoryStore) GetEscrowByBlockchainID(blockchainID string) (*domain.Escrow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	internalID, ok := s.byChainID[blockchainID]
	if !ok {
		return nil, fmt.Errorf("%w: blockchainId %s", domain.ErrNotFound, blockchainID)
	}
	cp := *s.escrows[internalID]
	return &cp, nil
}

// --- wallets ---

func walletKey(owner domain.Owner) string {
	if owner.UserID != "" {
		return "user:" + owner.UserID
	}
	return "anon:" + owner.AnonymousSessionID
}

func (s *MemoryStore) SaveWallet(w Wallet) error {
	if err := (domain.Owner{UserID: w.UserID, AnonymousSessionID: w.AnonymousSessionID}).Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := walletKey(domain.Owner{UserID: w.UserID, AnonymousSessionID: w.AnonymousSessionID})
	s.wallets[key] = w.Address
	return nil
}

func (s *MemoryStore) ResolveAddress(owner domain.Owner) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	addr, ok := s.wallets[walletKey(owner)]
	if !ok {
		return "", fmt.Errorf("%w: no wallet on file for owner", domain.ErrNotFound)
	}
	return addr, nil
}

// --- scheduler bookkeeping ---

func (s *MemoryStore) SaveScheduledTask(t ScheduledTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.Name] = t
	return nil
}

func (s *MemoryStore) GetScheduledTask(name string) (ScheduledTask, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[name]
	return t, ok, nil
}

func (s *MemoryStore) RecordTaskExecution(e TaskExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, e)
	return nil
}

// --- durable cache rows ---

func (s *MemoryStore) PutCacheEntry(key string, value []byte, tags []string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = cachedRow{value: value, tags: tags, expiresAt: expiresAt}
	return nil
}

func (s *MemoryStore) GetCacheEntry(key string) ([]byte, bool, error) {
	s.mu.RLock()
	row, ok := s.cache[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(row.expiresAt) {
		return nil, false, nil
	}
	return row.value, true, nil
}
