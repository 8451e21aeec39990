// Package domain defines the core business entities and types for the
// Victory Vault pari-mutuel staking and settlement system.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Types & constants
// ──────────────────────────────────────────────────────────────────────────────

// MarketStatus represents the lifecycle state of a market.
type MarketStatus string

const (
	StatusUpcoming MarketStatus = "upcoming" // created, staking not yet open
	StatusActive   MarketStatus = "active"   // accepting stakes
	StatusResolved MarketStatus = "resolved" // outcome attested; terminal
)

// Outcome is a side of a market a participant can stake on.
// Draw is a valid result but not a stakeable outcome.
type Outcome string

const (
	OutcomeA Outcome = "A"
	OutcomeB Outcome = "B"
)

// IsValid returns true if the outcome is a recognised stakeable side.
func (o Outcome) IsValid() bool {
	return o == OutcomeA || o == OutcomeB
}

// Result is the attested final outcome of a market.
type Result string

const (
	ResultA    Result = "A"
	ResultB    Result = "B"
	ResultDraw Result = "draw"
)

// IsValid returns true if the result is one of the attestable values.
func (r Result) IsValid() bool {
	return r == ResultA || r == ResultB || r == ResultDraw
}

// IsDraw reports whether the result requires the refund path instead of
// win settlement.
func (r Result) IsDraw() bool {
	return r == ResultDraw
}

// WinningOutcome maps a binary result to the outcome that won.
// Returns false for draw (no winning outcome exists).
func (r Result) WinningOutcome() (Outcome, bool) {
	switch r {
	case ResultA:
		return OutcomeA, true
	case ResultB:
		return OutcomeB, true
	}
	return "", false
}

// ──────────────────────────────────────────────────────────────────────────────
// Market
// ──────────────────────────────────────────────────────────────────────────────

// Market represents a single staked-on event with two mutually exclusive
// outcomes. The id is caller-supplied and opaque.
//
// Pool invariant: totalPool == poolA + poolB after every committed stake.
// Both resolved and settled are monotonic one-shot flags; the repository
// enforces the false→true transitions with compare-and-set updates.
type Market struct {
	ID         string          `json:"id"          db:"id"`
	TeamA      string          `json:"team_a"      db:"team_a"`
	TeamB      string          `json:"team_b"      db:"team_b"`
	Status     MarketStatus    `json:"status"      db:"status"`
	StartTime  time.Time       `json:"start_time"  db:"start_time"`
	TotalPool  decimal.Decimal `json:"total_pool"  db:"total_pool"`
	PoolA      decimal.Decimal `json:"pool_a"      db:"pool_a"`
	PoolB      decimal.Decimal `json:"pool_b"      db:"pool_b"`
	Result     *Result         `json:"result"      db:"result"`
	Resolved   bool            `json:"resolved"    db:"resolved"`
	Settled    bool            `json:"settled"     db:"settled"`
	ResolvedAt *time.Time      `json:"resolved_at" db:"resolved_at"`
	SettledAt  *time.Time      `json:"settled_at"  db:"settled_at"`
	CreatedAt  time.Time       `json:"created_at"  db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"  db:"updated_at"`
}

// PoolFor returns the pool total for one side.
func (m *Market) PoolFor(o Outcome) decimal.Decimal {
	if o == OutcomeA {
		return m.PoolA
	}
	return m.PoolB
}

// IsActive returns true while the market accepts stakes.
func (m *Market) IsActive() bool {
	return m.Status == StatusActive
}

// IsResolved returns true once the outcome has been attested.
func (m *Market) IsResolved() bool {
	return m.Resolved
}

// PercentFor returns the share of the total pool staked on one side (0–100).
// Returns decimal.Zero when the pool is empty.
func (m *Market) PercentFor(o Outcome) decimal.Decimal {
	if m.TotalPool.IsZero() {
		return decimal.Zero
	}
	return m.PoolFor(o).Div(m.TotalPool).Mul(decimal.NewFromInt(100))
}

// ImpliedOddsFor returns the current pari-mutuel payout multiplier for a
// stake on the given side, net of the platform fee.
//
//	odds = totalPool × (1 − fee) / poolFor(outcome)
//
// Returns decimal.Zero when that side's pool is empty.
func (m *Market) ImpliedOddsFor(o Outcome, feeRate decimal.Decimal) decimal.Decimal {
	pool := m.PoolFor(o)
	if pool.IsZero() {
		return decimal.Zero
	}
	one := decimal.NewFromInt(1)
	return m.TotalPool.Mul(one.Sub(feeRate)).Div(pool)
}

// ──────────────────────────────────────────────────────────────────────────────
// MarketSummary — lightweight read model for WS broadcasts and list endpoints
// ──────────────────────────────────────────────────────────────────────────────

// MarketSummary is a derived, read-only view of a Market used for broadcasting.
type MarketSummary struct {
	ID        string          `json:"id"`
	TeamA     string          `json:"team_a"`
	TeamB     string          `json:"team_b"`
	Status    MarketStatus    `json:"status"`
	TotalPool decimal.Decimal `json:"total_pool"`
	PoolA     decimal.Decimal `json:"pool_a"`
	PoolB     decimal.Decimal `json:"pool_b"`
	PercentA  decimal.Decimal `json:"percent_a"`
	PercentB  decimal.Decimal `json:"percent_b"`
	Result    *Result         `json:"result,omitempty"`
	Resolved  bool            `json:"resolved"`
	Settled   bool            `json:"settled"`
	StartTime time.Time       `json:"start_time"`
}

// ToSummary builds a MarketSummary from the market's current pool state.
func (m *Market) ToSummary() MarketSummary {
	return MarketSummary{
		ID:        m.ID,
		TeamA:     m.TeamA,
		TeamB:     m.TeamB,
		Status:    m.Status,
		TotalPool: m.TotalPool,
		PoolA:     m.PoolA,
		PoolB:     m.PoolB,
		PercentA:  m.PercentFor(OutcomeA),
		PercentB:  m.PercentFor(OutcomeB),
		Result:    m.Result,
		Resolved:  m.Resolved,
		Settled:   m.Settled,
		StartTime: m.StartTime,
	}
}
