package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account accumulates a staker's lifetime totals. Both counters are
// monotonically non-decreasing and mutated only through atomic relative
// increments (never read-modify-write), so concurrent stake placement and
// settlement can not lose updates.
//
// Accounts are created lazily: the first stake a participant places
// upserts the row. TotalEarned counts winnings only; draw refunds are
// visible in the settlement record trail, not here.
type Account struct {
	StakerID    string          `json:"staker_id"    db:"staker_id"`
	TotalStaked decimal.Decimal `json:"total_staked" db:"total_staked"`
	TotalEarned decimal.Decimal `json:"total_earned" db:"total_earned"`
	CreatedAt   time.Time       `json:"created_at"   db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"   db:"updated_at"`
}

// NetPosition returns lifetime earnings minus lifetime stakes.
func (a *Account) NetPosition() decimal.Decimal {
	return a.TotalEarned.Sub(a.TotalStaked)
}
