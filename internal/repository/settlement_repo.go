package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/victoryvault/staking/internal/domain"
)

// SettlementRepository persists the settlement audit trail and the
// append-only oracle attestation log.
type SettlementRepository struct {
	db *sqlx.DB
}

// NewSettlementRepository creates a new SettlementRepository.
func NewSettlementRepository(db *sqlx.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

// CreateRecord inserts one settlement record inside the settlement
// transaction. The (market_id, staker_id, type) uniqueness constraint is a
// second line of defence behind the market's settled flag: even if the
// guard were bypassed, a duplicate credit would fail the whole transaction.
func (r *SettlementRepository) CreateRecord(ctx context.Context, tx *sqlx.Tx, rec *domain.SettlementRecord) error {
	query := `
		INSERT INTO settlement_records
			(id, staker_id, market_id, type, amount, status, created_at)
		VALUES
			(:id, :staker_id, :market_id, :type, :amount, :status, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("settlement_repo.CreateRecord: %w", err)
	}
	return nil
}

// GetRecordsByMarket returns a market's settlement records in creation order.
func (r *SettlementRepository) GetRecordsByMarket(ctx context.Context, marketID string) ([]*domain.SettlementRecord, error) {
	var recs []*domain.SettlementRecord
	err := r.db.SelectContext(ctx, &recs,
		`SELECT * FROM settlement_records WHERE market_id = $1 ORDER BY created_at ASC, id ASC`,
		marketID)
	if err != nil {
		return nil, fmt.Errorf("settlement_repo.GetRecordsByMarket: %w", err)
	}
	return recs, nil
}

// GetRecordsByStaker returns a participant's settlement history, newest first.
func (r *SettlementRepository) GetRecordsByStaker(ctx context.Context, stakerID string, limit, offset int) ([]*domain.SettlementRecord, error) {
	var recs []*domain.SettlementRecord
	err := r.db.SelectContext(ctx, &recs,
		`SELECT * FROM settlement_records WHERE staker_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		stakerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("settlement_repo.GetRecordsByStaker: %w", err)
	}
	return recs, nil
}

// CreateAttestation appends an oracle attestation inside the resolution
// transaction. Attestations are never updated; repeat resolution attempts
// fail on the market's resolved flag before reaching this insert.
func (r *SettlementRepository) CreateAttestation(ctx context.Context, tx *sqlx.Tx, att *domain.OracleAttestation) error {
	query := `
		INSERT INTO oracle_attestations
			(id, market_id, source, result, verified_at, created_at)
		VALUES
			(:id, :market_id, :source, :result, :verified_at, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, att); err != nil {
		return fmt.Errorf("settlement_repo.CreateAttestation: %w", err)
	}
	return nil
}

// GetAttestationsByMarket returns every attestation recorded for a market.
func (r *SettlementRepository) GetAttestationsByMarket(ctx context.Context, marketID string) ([]*domain.OracleAttestation, error) {
	var atts []*domain.OracleAttestation
	err := r.db.SelectContext(ctx, &atts,
		`SELECT * FROM oracle_attestations WHERE market_id = $1 ORDER BY created_at ASC`,
		marketID)
	if err != nil {
		return nil, fmt.Errorf("settlement_repo.GetAttestationsByMarket: %w", err)
	}
	return atts, nil
}
