package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/victoryvault/staking/internal/domain"
)

// AccountRepository handles the per-staker lifetime accumulators. Both
// counters are only ever mutated with upsert-plus-increment statements so
// concurrent writers can not lose updates.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByStakerID fetches a staker's account.
func (r *AccountRepository) GetByStakerID(ctx context.Context, stakerID string) (*domain.Account, error) {
	var a domain.Account
	err := r.db.GetContext(ctx, &a, `SELECT * FROM accounts WHERE staker_id = $1`, stakerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("account_repo.GetByStakerID: %w", err)
	}
	return &a, nil
}

// AddStaked increments the lifetime staked total inside a transaction,
// creating the account if the staker has never been seen before. Staking
// does not require pre-registration.
func (r *AccountRepository) AddStaked(ctx context.Context, tx *sqlx.Tx, stakerID string, amount decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (staker_id, total_staked, total_earned, created_at, updated_at)
		VALUES ($1, $2, 0, now(), now())
		ON CONFLICT (staker_id)
		DO UPDATE SET total_staked = accounts.total_staked + EXCLUDED.total_staked,
		              updated_at   = now()`,
		stakerID, amount)
	if err != nil {
		return fmt.Errorf("account_repo.AddStaked: %w", err)
	}
	return nil
}

// AddEarned increments the lifetime earnings total inside a transaction.
// Upserts for the same reason as AddStaked: a winner may have staked before
// accounts were introduced.
func (r *AccountRepository) AddEarned(ctx context.Context, tx *sqlx.Tx, stakerID string, amount decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (staker_id, total_staked, total_earned, created_at, updated_at)
		VALUES ($1, 0, $2, now(), now())
		ON CONFLICT (staker_id)
		DO UPDATE SET total_earned = accounts.total_earned + EXCLUDED.total_earned,
		              updated_at   = now()`,
		stakerID, amount)
	if err != nil {
		return fmt.Errorf("account_repo.AddEarned: %w", err)
	}
	return nil
}

// Leaderboard returns accounts ordered by lifetime earnings, best first.
func (r *AccountRepository) Leaderboard(ctx context.Context, limit int) ([]*domain.Account, error) {
	var accounts []*domain.Account
	err := r.db.SelectContext(ctx, &accounts,
		`SELECT * FROM accounts ORDER BY total_earned DESC, total_staked DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("account_repo.Leaderboard: %w", err)
	}
	return accounts, nil
}
