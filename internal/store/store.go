// Package store is the persistence seam every other package depends on
// through narrow interfaces rather than a concrete database type. Two
// implementations satisfy those interfaces: an in-memory one (always
// available, used by tests and the demo composition root) and a
// Postgres-backed one for production deployments.
package store

import (
	"context"
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
)

// QuoteStore persists Quote aggregates.
type QuoteStore interface {
	SaveQuote(q *domain.Quote) error
	GetQuote(quoteID string) (*domain.Quote, error)
	ListPendingQuotes() ([]*domain.Quote, error)
}

// PolicyStore persists Policy aggregates.
type PolicyStore interface {
	SavePolicy(p *domain.Policy) error
	GetPolicy(policyID string) (*domain.Policy, error)
	ListActivePolicies() ([]*domain.Policy, error)
}

// PolicyEventStore persists the append-only PolicyEvent log.
type PolicyEventStore interface {
	AppendPolicyEvent(e domain.PolicyEvent) error
	ListPolicyEvents(policyID string) ([]domain.PolicyEvent, error)
}

// EscrowStore persists Escrow aggregates.
type EscrowStore interface {
	SaveEscrow(e *domain.Escrow) error
	GetEscrow(internalID string) (*domain.Escrow, error)
	GetEscrowByBlockchainID(blockchainID string) (*domain.Escrow, error)
}

// Wallet is the user_wallets entity: a beneficiary's chain address,
// keyed by whichever half of domain.Owner identifies them.
type Wallet struct {
	UserID             string
	AnonymousSessionID string
	Address            string
}

// WalletStore resolves a policy owner to the address an escrow payout
// releases to.
type WalletStore interface {
	SaveWallet(w Wallet) error
	ResolveAddress(owner domain.Owner) (string, error)
}

// ScheduledTask is one row of the monitor's own bookkeeping table: the
// next due time for a named recurring job.
type ScheduledTask struct {
	Name      string
	NextRunAt time.Time
}

// TaskExecution records one completed run of a scheduled task, for
// observability and idempotency checks across restarts.
type TaskExecution struct {
	TaskName   string
	StartedAt  time.Time
	FinishedAt time.Time
	Succeeded  bool
	Detail     string
}

// SchedulerStore persists the monitor loop's own state, independent of
// the domain stores above.
type SchedulerStore interface {
	SaveScheduledTask(t ScheduledTask) error
	GetScheduledTask(name string) (ScheduledTask, bool, error)
	RecordTaskExecution(e TaskExecution) error
}

// CacheEntryStore persists cache_entry rows for a durable cache tier.
// MemoryStore and PostgresStore (the cache_entries table) both implement
// it, but no Cache implementation reads or writes through it:
// internal/cache's MemoryCache and RedisCache cover caching at runtime.
type CacheEntryStore interface {
	PutCacheEntry(key string, value []byte, tags []string, expiresAt time.Time) error
	GetCacheEntry(key string) ([]byte, bool, error)
}

// Store bundles every persistence seam the composition root wires up as
// one dependency. Ping lets a composition root health-check whichever
// backing store it chose without a type switch: MemoryStore always
// succeeds, PostgresStore pings the pool.
type Store interface {
	QuoteStore
	PolicyStore
	PolicyEventStore
	EscrowStore
	WalletStore
	SchedulerStore
	CacheEntryStore

	Ping(ctx context.Context) error
}
