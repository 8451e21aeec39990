package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Stake
// ──────────────────────────────────────────────────────────────────────────────

// Stake is a single participant's wager on one outcome of a market.
// Stakes are fact records: immutable once created, never deleted.
type Stake struct {
	ID       uuid.UUID       `json:"id"        db:"id"`
	StakerID string          `json:"staker_id" db:"staker_id"`
	MarketID string          `json:"market_id" db:"market_id"`
	Outcome  Outcome         `json:"outcome"   db:"outcome"`
	Amount   decimal.Decimal `json:"amount"    db:"amount"`
	PlacedAt time.Time       `json:"placed_at" db:"placed_at"`
}

// PlaceStakeRequest carries the validated inputs for placing a stake.
type PlaceStakeRequest struct {
	StakerID string
	MarketID string
	Outcome  Outcome
	Amount   decimal.Decimal
}

// Validate checks the request's shape before any transaction is started.
func (r PlaceStakeRequest) Validate() error {
	if r.StakerID == "" || r.MarketID == "" {
		return ErrInvalidStake
	}
	if !r.Outcome.IsValid() {
		return ErrInvalidOutcome
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}
