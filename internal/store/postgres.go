package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the production Store, backed by a connection pool.
// It satisfies the same narrow interfaces MemoryStore does so callers
// never branch on which backend they were handed.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an already-connected pool. Run migrations with
// ApplyMigrations before first use.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping verifies connectivity, used by a health endpoint.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const quoteColumns = `quote_id, flight_ref, coverage_type, coverage_amount, premium, base_rate, flight_risk_multiplier, weather_risk_multiplier, confidence_surcharge, created_at, valid_until, status`

func scanQuote(row pgx.Row) (*domain.Quote, error) {
	var q domain.Quote
	err := row.Scan(
		&q.QuoteID, &q.FlightRef, &q.CoverageType, &q.CoverageAmount, &q.Premium,
		&q.RiskFactors.BaseRate, &q.RiskFactors.FlightRiskMultiplier, &q.RiskFactors.WeatherRiskMultiplier, &q.RiskFactors.ConfidenceSurcharge,
		&q.CreatedAtUTC, &q.ValidUntilUTC, &q.Status,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *PostgresStore) SaveQuote(q *domain.Quote) error {
	ctx := context.Background()
	query := `INSERT INTO quotes (` + quoteColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (quote_id) DO UPDATE SET status = EXCLUDED.status, valid_until = EXCLUDED.valid_until`
	_, err := s.pool.Exec(ctx, query,
		q.QuoteID, q.FlightRef, q.CoverageType, q.CoverageAmount, q.Premium,
		q.RiskFactors.BaseRate, q.RiskFactors.FlightRiskMultiplier, q.RiskFactors.WeatherRiskMultiplier, q.RiskFactors.ConfidenceSurcharge,
		q.CreatedAtUTC, q.ValidUntilUTC, q.Status,
	)
	if err != nil {
		return fmt.Errorf("saving quote: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetQuote(quoteID string) (*domain.Quote, error) {
	ctx := context.Background()
	row := s.pool.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE quote_id = $1`, quoteID)
	q, err := scanQuote(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: quote %s", domain.ErrNotFound, quoteID)
	}
	if err != nil {
		return nil, fmt.Errorf("getting quote: %w", err)
	}
	return q, nil
}

func (s *PostgresStore) ListPendingQuotes() ([]*domain.Quote, error) {
	ctx := context.Background()
	rows, err := s.pool.Query(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE status = $1 ORDER BY created_at`, domain.QuoteStatusPending)
	if err != nil {
		return nil, fmt.Errorf("listing pending quotes: %w", err)
	}
	defer rows.Close()

	var out []*domain.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning quote row: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

const policyColumns = `policy_id, policy_number, owner_user_id, owner_anonymous_session_id, flight_ref, flight_date, quote_id, escrow_id, coverage_amount, premium, delay_threshold_minutes, status, expires_at, created_at`

func scanPolicy(row pgx.Row) (*domain.Policy, error) {
	var p domain.Policy
	var userID, anonSessionID, escrowID *string
	err := row.Scan(
		&p.PolicyID, &p.PolicyNumber, &userID, &anonSessionID, &p.FlightRef, &p.FlightDate, &p.QuoteID, &escrowID,
		&p.CoverageAmount, &p.Premium, &p.DelayThresholdMinutes, &p.Status, &p.ExpiresAtUTC, &p.CreatedAtUTC,
	)
	if err != nil {
		return nil, err
	}
	if userID != nil {
		p.Owner.UserID = *userID
	}
	if anonSessionID != nil {
		p.Owner.AnonymousSessionID = *anonSessionID
	}
	if escrowID != nil {
		p.EscrowID = *escrowID
	}
	return &p, nil
}

func (s *PostgresStore) SavePolicy(p *domain.Policy) error {
	ctx := context.Background()
	query := `INSERT INTO policies (` + policyColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (policy_id) DO UPDATE SET status = EXCLUDED.status, escrow_id = EXCLUDED.escrow_id`
	_, err := s.pool.Exec(ctx, query,
		p.PolicyID, p.PolicyNumber, nullable(p.Owner.UserID), nullable(p.Owner.AnonymousSessionID), p.FlightRef, p.FlightDate, p.QuoteID, nullable(p.EscrowID),
		p.CoverageAmount, p.Premium, p.DelayThresholdMinutes, p.Status, p.ExpiresAtUTC, p.CreatedAtUTC,
	)
	if err != nil {
		return fmt.Errorf("saving policy: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPolicy(policyID string) (*domain.Policy, error) {
	ctx := context.Background()
	row := s.pool.QueryRow(ctx, `SELECT `+policyColumns+` FROM policies WHERE policy_id = $1`, policyID)
	p, err := scanPolicy(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: policy %s", domain.ErrNotFound, policyID)
	}
	if err != nil {
		return nil, fmt.Errorf("getting policy: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListActivePolicies() ([]*domain.Policy, error) {
	ctx := context.Background()
	rows, err := s.pool.Query(ctx, `SELECT `+policyColumns+` FROM policies WHERE status = $1 ORDER BY policy_id`, domain.PolicyStatusActive)
	if err != nil {
		return nil, fmt.Errorf("listing active policies: %w", err)
	}
	defer rows.Close()

	var out []*domain.Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning policy row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AppendPolicyEvent(e domain.PolicyEvent) error {
	ctx := context.Background()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO policy_events (policy_id, type, data, triggered_by, created_at) VALUES ($1,$2,$3,$4,$5)`,
		e.PolicyID, e.Type, e.Data, e.TriggeredBy, e.CreatedAtUTC,
	)
	if err != nil {
		return fmt.Errorf("appending policy event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPolicyEvents(policyID string) ([]domain.PolicyEvent, error) {
	ctx := context.Background()
	rows, err := s.pool.Query(ctx,
		`SELECT policy_id, type, data, triggered_by, created_at FROM policy_events WHERE policy_id = $1 ORDER BY created_at`,
		policyID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing policy events: %w", err)
	}
	defer rows.Close()

	var out []domain.PolicyEvent
	for rows.Next() {
		var e domain.PolicyEvent
		if err := rows.Scan(&e.PolicyID, &e.Type, &e.Data, &e.TriggeredBy, &e.CreatedAtUTC); err != nil {
			return nil, fmt.Errorf("scanning policy event row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const escrowColumns = `internal_id, blockchain_id, amount, expires_at, recipient_addr, purpose, status, tx_hash, block_number, created_at`

func scanEscrow(row pgx.Row) (*domain.Escrow, error) {
	var e domain.Escrow
	var blockchainID *string
	err := row.Scan(
		&e.InternalID, &blockchainID, &e.Amount, &e.ExpiresAtUTC, &e.RecipientAddr,
		&e.Purpose, &e.Status, &e.TxHash, &e.BlockNumber, &e.CreatedAtUTC,
	)
	if err != nil {
		return nil, err
	}
	if blockchainID != nil {
		e.BlockchainID = *blockchainID
	}
	return &e, nil
}

func (s *PostgresStore) SaveEscrow(e *domain.Escrow) error {
	ctx := context.Background()
	query := `INSERT INTO escrows (` + escrowColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (internal_id) DO UPDATE SET status = EXCLUDED.status, blockchain_id = EXCLUDED.blockchain_id, tx_hash = EXCLUDED.tx_hash, block_number = EXCLUDED.block_number`
	_, err := s.pool.Exec(ctx, query,
		e.InternalID, nullable(e.BlockchainID), e.Amount, e.ExpiresAtUTC, e.RecipientAddr,
		e.Purpose, e.Status, e.TxHash, e.BlockNumber, e.CreatedAtUTC,
	)
	if err != nil {
		return fmt.Errorf("saving escrow: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetEscrow(internalID string) (*domain.Escrow, error) {
	ctx := context.Background()
	row := s.pool.QueryRow(ctx, `SELECT `+escrowColumns+` FROM escrows WHERE internal_id = $1`, internalID)
	e, err := scanEscrow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: escrow %s", domain.ErrNotFound, internalID)
	}
	if err != nil {
		return nil, fmt.Errorf("getting escrow: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) GetEscrowByBlockchainID(blockchainID string) (*domain.Escrow, error) {
	ctx := context.Background()
	row := s.pool.QueryRow(ctx, `SELECT `+escrowColumns+` FROM escrows WHERE blockchain_id = $1`, blockchainID)
	e, err := scanEscrow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: blockchainId %s", domain.ErrNotFound, blockchainID)
	}
	if err != nil {
		return nil, fmt.Errorf("getting escrow by blockchain id: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) SaveWallet(w Wallet) error {
	if err := (domain.Owner{UserID: w.UserID, AnonymousSessionID: w.AnonymousSessionID}).Validate(); err != nil {
		return err
	}
	ctx := context.Background()
	query := `INSERT INTO user_wallets (user_id, anonymous_session_id, address)
		VALUES ($1,$2,$3)
		ON CONFLICT (user_id, anonymous_session_id) DO UPDATE SET address = EXCLUDED.address`
	_, err := s.pool.Exec(ctx, query, nullable(w.UserID), nullable(w.AnonymousSessionID), w.Address)
	if err != nil {
		return fmt.Errorf("saving wallet: %w", err)
	}
	return nil
}

func (s *PostgresStore) ResolveAddress(owner domain.Owner) (string, error) {
	ctx := context.Background()
	var address string
	var err error
	if owner.UserID != "" {
		err = s.pool.QueryRow(ctx, `SELECT address FROM user_wallets WHERE user_id = $1`, owner.UserID).Scan(&address)
	} else {
		err = s.pool.QueryRow(ctx, `SELECT address FROM user_wallets WHERE anonymous_session_id = $1`, owner.AnonymousSessionID).Scan(&address)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: no wallet on file for owner", domain.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("resolving wallet address: %w", err)
	}
	return address, nil
}

func (s *PostgresStore) SaveScheduledTask(t ScheduledTask) error {
	ctx := context.Background()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scheduled_tasks (name, next_run_at) VALUES ($1,$2)
		 ON CONFLICT (name) DO UPDATE SET next_run_at = EXCLUDED.next_run_at`,
		t.Name, t.NextRunAt,
	)
	if err != nil {
		return fmt.Errorf("saving scheduled task: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetScheduledTask(name string) (ScheduledTask, bool, error) {
	ctx := context.Background()
	var t ScheduledTask
	t.Name = name
	err := s.pool.QueryRow(ctx, `SELECT next_run_at FROM scheduled_tasks WHERE name = $1`, name).Scan(&t.NextRunAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ScheduledTask{}, false, nil
	}
	if err != nil {
		return ScheduledTask{}, false, fmt.Errorf("getting scheduled task: %w", err)
	}
	return t, true, nil
}

func (s *PostgresStore) RecordTaskExecution(e TaskExecution) error {
	ctx := context.Background()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO task_executions (task_name, started_at, finished_at, succeeded, detail) VALUES ($1,$2,$3,$4,$5)`,
		e.TaskName, e.StartedAt, e.FinishedAt, e.Succeeded, e.Detail,
	)
	if err != nil {
		return fmt.Errorf("recording task execution: %w", err)
	}
	return nil
}

func (s *PostgresStore) PutCacheEntry(key string, value []byte, tags []string, expiresAt time.Time) error {
	ctx := context.Background()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO cache_entries (key, value, tags, expires_at) VALUES ($1,$2,$3,$4)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, tags = EXCLUDED.tags, expires_at = EXCLUDED.expires_at`,
		key, value, tags, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("putting cache entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCacheEntry(key string) ([]byte, bool, error) {
	ctx := context.Background()
	var value []byte
	var expiresAt time.Time
	err := s.pool.QueryRow(ctx, `SELECT value, expires_at FROM cache_entries WHERE key = $1`, key).Scan(&value, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting cache entry: %w", err)
	}
	if time.Now().After(expiresAt) {
		return nil, false, nil
	}
	return value, true, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
