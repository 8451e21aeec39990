package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Types & constants
// ──────────────────────────────────────────────────────────────────────────────

// RecordType enumerates settlement record kinds.
type RecordType string

const (
	RecordReward RecordType = "reward" // pro-rata share of a won market
	RecordRefund RecordType = "refund" // stake returned after a draw
)

// RecordStatus is the terminal state of a settlement record.
type RecordStatus string

const (
	RecordSuccess RecordStatus = "success"
)

// RewardPrecision is the number of decimal places the ledger stores for
// monetary amounts (DECIMAL(18,4)). All reward rounding happens at this
// precision.
const RewardPrecision = 4

// DefaultFeeRate is the platform fee retained from the total pool at
// settlement (2 %). Overridable via configuration.
var DefaultFeeRate = decimal.NewFromFloat(0.02)

// ──────────────────────────────────────────────────────────────────────────────
// SettlementRecord
// ──────────────────────────────────────────────────────────────────────────────

// SettlementRecord is the immutable audit record of one credit made during
// a settlement or refund run. Exactly one exists per winning stake holder
// per market.
type SettlementRecord struct {
	ID        uuid.UUID       `json:"id"         db:"id"`
	StakerID  string          `json:"staker_id"  db:"staker_id"`
	MarketID  string          `json:"market_id"  db:"market_id"`
	Type      RecordType      `json:"type"       db:"type"`
	Amount    decimal.Decimal `json:"amount"     db:"amount"`
	Status    RecordStatus    `json:"status"     db:"status"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// SettlementResult summarises one settlement run.
type SettlementResult struct {
	DistributedCount int             `json:"distributed_count"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
}

// ──────────────────────────────────────────────────────────────────────────────
// OracleAttestation
// ──────────────────────────────────────────────────────────────────────────────

// OracleAttestation is the append-only record of a result delivered by an
// external attestation source. The attestation that wins the resolution
// compare-and-set is the one whose result the market carries.
type OracleAttestation struct {
	ID         uuid.UUID `json:"id"          db:"id"`
	MarketID   string    `json:"market_id"   db:"market_id"`
	Source     string    `json:"source"      db:"source"`
	Result     Result    `json:"result"      db:"result"`
	VerifiedAt time.Time `json:"verified_at" db:"verified_at"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}

// ResolutionOutcome is returned by the resolution service. Resolution and
// settlement succeed or fail independently: Resolved true with a non-empty
// SettlementError means the market is durably resolved but the payout run
// must be retried out-of-band.
type ResolutionOutcome struct {
	Resolved        bool              `json:"resolved"`
	Settlement      *SettlementResult `json:"settlement,omitempty"`
	SettlementError string            `json:"settlement_error,omitempty"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Reward computation — pure pari-mutuel arithmetic, no I/O
// ──────────────────────────────────────────────────────────────────────────────

// Reward is one staker's computed share of the distributable pool.
type Reward struct {
	StakeID  uuid.UUID
	StakerID string
	Amount   decimal.Decimal
}

// Distributable returns the pool available to winners after the platform
// fee, truncated to ledger precision.
func Distributable(totalPool, feeRate decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	return totalPool.Mul(one.Sub(feeRate)).RoundDown(RewardPrecision)
}

// ComputeRewards splits the distributable pool across the winning stakes in
// proportion to each stake's share of the winning pool:
//
//	reward(s) = (s.amount / totalWinningPool) × totalPool × (1 − fee)
//
// Each reward is rounded to RewardPrecision; the rounding remainder is
// assigned to the largest winning stake (the earliest one on ties) so that
// the rewards sum to the distributable amount exactly.
//
// Returns (nil, 0) when no stakes were placed on the winning side. The
// distributable pool is then left untouched: this function neither pays
// it out nor refunds it.
func ComputeRewards(winning []*Stake, totalPool, feeRate decimal.Decimal) ([]Reward, decimal.Decimal) {
	totalWinning := decimal.Zero
	for _, s := range winning {
		totalWinning = totalWinning.Add(s.Amount)
	}
	if !totalWinning.IsPositive() {
		return nil, decimal.Zero
	}

	distributable := Distributable(totalPool, feeRate)

	rewards := make([]Reward, len(winning))
	sum := decimal.Zero
	largest := 0
	for i, s := range winning {
		amt := s.Amount.Div(totalWinning).Mul(distributable).Round(RewardPrecision)
		rewards[i] = Reward{StakeID: s.ID, StakerID: s.StakerID, Amount: amt}
		sum = sum.Add(amt)
		if s.Amount.GreaterThan(winning[largest].Amount) {
			largest = i
		}
	}

	// Largest-remainder correction: push the residual onto the biggest stake.
	if remainder := distributable.Sub(sum); !remainder.IsZero() {
		rewards[largest].Amount = rewards[largest].Amount.Add(remainder)
	}

	return rewards, distributable
}
