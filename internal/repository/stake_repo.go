package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/victoryvault/staking/internal/domain"
)

// StakeRepository handles all database operations for the append-only stake
// ledger. Stakes are never updated or deleted.
type StakeRepository struct {
	db *sqlx.DB
}

// NewStakeRepository creates a new StakeRepository.
func NewStakeRepository(db *sqlx.DB) *StakeRepository {
	return &StakeRepository{db: db}
}

// Create inserts a new stake inside an existing transaction.
func (r *StakeRepository) Create(ctx context.Context, tx *sqlx.Tx, s *domain.Stake) error {
	query := `
		INSERT INTO stakes
			(id, staker_id, market_id, outcome, amount, placed_at)
		VALUES
			(:id, :staker_id, :market_id, :outcome, :amount, :placed_at)`
	if _, err := tx.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("stake_repo.Create: %w", err)
	}
	return nil
}

// GetByID fetches a stake by its primary key.
func (r *StakeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Stake, error) {
	var s domain.Stake
	err := r.db.GetContext(ctx, &s, `SELECT * FROM stakes WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrStakeNotFound
		}
		return nil, fmt.Errorf("stake_repo.GetByID: %w", err)
	}
	return &s, nil
}

// GetByMarketAndOutcome returns every stake on one side of a market in
// placement order. The settlement engine uses this as the winning set; the
// stable ordering keeps remainder allocation deterministic across retries.
func (r *StakeRepository) GetByMarketAndOutcome(ctx context.Context, tx *sqlx.Tx, marketID string, outcome domain.Outcome) ([]*domain.Stake, error) {
	var stakes []*domain.Stake
	err := tx.SelectContext(ctx, &stakes,
		`SELECT * FROM stakes WHERE market_id = $1 AND outcome = $2 ORDER BY placed_at ASC, id ASC`,
		marketID, string(outcome))
	if err != nil {
		return nil, fmt.Errorf("stake_repo.GetByMarketAndOutcome: %w", err)
	}
	return stakes, nil
}

// GetByMarket returns every stake in a market in placement order, inside an
// existing transaction. Used by the draw refund path.
func (r *StakeRepository) GetByMarket(ctx context.Context, tx *sqlx.Tx, marketID string) ([]*domain.Stake, error) {
	var stakes []*domain.Stake
	err := tx.SelectContext(ctx, &stakes,
		`SELECT * FROM stakes WHERE market_id = $1 ORDER BY placed_at ASC, id ASC`,
		marketID)
	if err != nil {
		return nil, fmt.Errorf("stake_repo.GetByMarket: %w", err)
	}
	return stakes, nil
}

// ListRecent returns the newest stakes first, optionally filtered by market.
func (r *StakeRepository) ListRecent(ctx context.Context, marketID string, limit int) ([]*domain.Stake, error) {
	var stakes []*domain.Stake
	var err error
	if marketID != "" {
		err = r.db.SelectContext(ctx, &stakes,
			`SELECT * FROM stakes WHERE market_id = $1 ORDER BY placed_at DESC LIMIT $2`,
			marketID, limit)
	} else {
		err = r.db.SelectContext(ctx, &stakes,
			`SELECT * FROM stakes ORDER BY placed_at DESC LIMIT $1`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("stake_repo.ListRecent: %w", err)
	}
	return stakes, nil
}

// GetByStaker returns a participant's stake history, paginated.
func (r *StakeRepository) GetByStaker(ctx context.Context, stakerID string, limit, offset int) ([]*domain.Stake, error) {
	var stakes []*domain.Stake
	err := r.db.SelectContext(ctx, &stakes,
		`SELECT * FROM stakes WHERE staker_id = $1 ORDER BY placed_at DESC LIMIT $2 OFFSET $3`,
		stakerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("stake_repo.GetByStaker: %w", err)
	}
	return stakes, nil
}

// SumByOutcome returns the committed stake total for one side of a market.
// Reconciliation helper: must always equal the market's side pool.
func (r *StakeRepository) SumByOutcome(ctx context.Context, marketID string, outcome domain.Outcome) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(amount), 0) FROM stakes WHERE market_id = $1 AND outcome = $2`,
		marketID, string(outcome))
	if err != nil {
		return decimal.Zero, fmt.Errorf("stake_repo.SumByOutcome: %w", err)
	}
	return total, nil
}
