// Package repository implements the ledger over PostgreSQL via sqlx.
// All multi-record invariants (pool totals, one-shot resolution and
// settlement flags) are enforced here with row locks, relative increments
// and compare-and-set updates — never with read-then-write round trips.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/victoryvault/staking/internal/domain"
)

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

// MarketRepository handles all database operations for Markets.
type MarketRepository struct {
	db *sqlx.DB
}

// NewMarketRepository creates a new MarketRepository.
func NewMarketRepository(db *sqlx.DB) *MarketRepository {
	return &MarketRepository{db: db}
}

// Create inserts a new market row. The id is caller-supplied; a duplicate
// id maps to ErrMarketExists.
func (r *MarketRepository) Create(ctx context.Context, m *domain.Market) error {
	query := `
		INSERT INTO markets
			(id, team_a, team_b, status, start_time, total_pool, pool_a, pool_b,
			 resolved, settled, created_at, updated_at)
		VALUES
			(:id, :team_a, :team_b, :status, :start_time, :total_pool, :pool_a, :pool_b,
			 :resolved, :settled, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, query, m)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return domain.ErrMarketExists
		}
		return fmt.Errorf("market_repo.Create: %w", err)
	}
	return nil
}

// GetByID fetches a market by its primary key.
func (r *MarketRepository) GetByID(ctx context.Context, id string) (*domain.Market, error) {
	var m domain.Market
	err := r.db.GetContext(ctx, &m, `SELECT * FROM markets WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMarketNotFound
		}
		return nil, fmt.Errorf("market_repo.GetByID: %w", err)
	}
	return &m, nil
}

// LockForUpdate fetches a market inside an existing transaction with a row
// lock, serialising concurrent stake, resolution and settlement attempts on
// the same market.
func (r *MarketRepository) LockForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*domain.Market, error) {
	var m domain.Market
	err := tx.GetContext(ctx, &m, `SELECT * FROM markets WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMarketNotFound
		}
		return nil, fmt.Errorf("market_repo.LockForUpdate: %w", err)
	}
	return &m, nil
}

// AddToPool increments the side pool and the total pool by amount within an
// existing transaction. Relative increments keep the pool invariant intact
// under concurrent stakers; the status predicate rejects stakes racing a
// committed resolution.
func (r *MarketRepository) AddToPool(ctx context.Context, tx *sqlx.Tx, id string, outcome domain.Outcome, amount decimal.Decimal) error {
	var query string
	if outcome == domain.OutcomeA {
		query = `
			UPDATE markets
			SET pool_a = pool_a + $1, total_pool = total_pool + $1, updated_at = now()
			WHERE id = $2 AND status = 'active'`
	} else {
		query = `
			UPDATE markets
			SET pool_b = pool_b + $1, total_pool = total_pool + $1, updated_at = now()
			WHERE id = $2 AND status = 'active'`
	}
	res, err := tx.ExecContext(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("market_repo.AddToPool: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrMarketNotActive
	}
	return nil
}

// Resolve records the attested result with a compare-and-set on the
// resolved flag: the first committer wins, every later attempt sees
// ErrAlreadyResolved. Must run in the same transaction that persists the
// attestation.
func (r *MarketRepository) Resolve(ctx context.Context, tx *sqlx.Tx, id string, result domain.Result) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE markets
		SET result      = $1,
		    resolved    = true,
		    status      = 'resolved',
		    resolved_at = now(),
		    updated_at  = now()
		WHERE id = $2 AND resolved = false`,
		string(result), id)
	if err != nil {
		return fmt.Errorf("market_repo.Resolve: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAlreadyResolved
	}
	return nil
}

// MarkSettled flips the one-shot settled flag. It is the last write of the
// settlement transaction, so reward records, account credits and the guard
// commit or roll back as one unit.
func (r *MarketRepository) MarkSettled(ctx context.Context, tx *sqlx.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE markets
		SET settled    = true,
		    settled_at = now(),
		    updated_at = now()
		WHERE id = $1 AND settled = false AND resolved = true`,
		id)
	if err != nil {
		return fmt.Errorf("market_repo.MarkSettled: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAlreadySettled
	}
	return nil
}

// Activate transitions an upcoming market to active once its start time has
// arrived. Used by the scheduler loop.
func (r *MarketRepository) Activate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE markets
		SET status = 'active', updated_at = now()
		WHERE id = $1 AND status = 'upcoming'`,
		id)
	if err != nil {
		return fmt.Errorf("market_repo.Activate: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrMarketNotFound
	}
	return nil
}

// GetUpcomingDue returns upcoming markets whose start time has passed.
func (r *MarketRepository) GetUpcomingDue(ctx context.Context, now time.Time) ([]*domain.Market, error) {
	var markets []*domain.Market
	err := r.db.SelectContext(ctx, &markets,
		`SELECT * FROM markets WHERE status = 'upcoming' AND start_time <= $1 ORDER BY start_time ASC`,
		now)
	if err != nil {
		return nil, fmt.Errorf("market_repo.GetUpcomingDue: %w", err)
	}
	return markets, nil
}

// GetResolvedUnsettled returns markets whose resolution committed but whose
// settlement run has not, resolved before the cutoff. These are the
// candidates for the out-of-band settlement retry loop.
func (r *MarketRepository) GetResolvedUnsettled(ctx context.Context, cutoff time.Time) ([]*domain.Market, error) {
	var markets []*domain.Market
	err := r.db.SelectContext(ctx, &markets, `
		SELECT * FROM markets
		WHERE resolved = true AND settled = false AND resolved_at <= $1
		ORDER BY resolved_at ASC`,
		cutoff)
	if err != nil {
		return nil, fmt.Errorf("market_repo.GetResolvedUnsettled: %w", err)
	}
	return markets, nil
}

// List returns a paginated slice of markets filtered by optional status.
// status="" returns all statuses. Returns (markets, totalCount, error).
func (r *MarketRepository) List(ctx context.Context, limit, offset int, status string) ([]*domain.Market, int, error) {
	var markets []*domain.Market
	var total int

	if status != "" {
		if err := r.db.GetContext(ctx, &total,
			`SELECT COUNT(*) FROM markets WHERE status = $1`, status); err != nil {
			return nil, 0, fmt.Errorf("market_repo.List count: %w", err)
		}
		if err := r.db.SelectContext(ctx, &markets,
			`SELECT * FROM markets WHERE status = $1 ORDER BY start_time DESC LIMIT $2 OFFSET $3`,
			status, limit, offset); err != nil {
			return nil, 0, fmt.Errorf("market_repo.List select: %w", err)
		}
	} else {
		if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM markets`); err != nil {
			return nil, 0, fmt.Errorf("market_repo.List count: %w", err)
		}
		if err := r.db.SelectContext(ctx, &markets,
			`SELECT * FROM markets ORDER BY start_time DESC LIMIT $1 OFFSET $2`,
			limit, offset); err != nil {
			return nil, 0, fmt.Errorf("market_repo.List select: %w", err)
		}
	}
	return markets, total, nil
}

// SumPoolByStatus returns the combined total pool over every market in the
// given status. Aggregated in the database so the answer does not depend
// on pagination.
func (r *MarketRepository) SumPoolByStatus(ctx context.Context, status domain.MarketStatus) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(total_pool), 0) FROM markets WHERE status = $1`,
		string(status))
	if err != nil {
		return decimal.Zero, fmt.Errorf("market_repo.SumPoolByStatus: %w", err)
	}
	return total, nil
}
