// Package ws holds WebSocket message types and the Hub implementation.
// messages.go defines all message structs broadcast to connected clients.
package ws

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/victoryvault/staking/internal/domain"
)

// MsgType identifies the kind of WS message so clients can switch on it.
type MsgType string

const (
	MsgTypeStakeAccepted  MsgType = "stake_accepted"
	MsgTypeMarketResolved MsgType = "market_resolved"
	MsgTypeSettlement     MsgType = "settlement_completed"
)

// StakeAcceptedMessage notifies all clients that a stake committed and the
// pool ratios changed.
type StakeAcceptedMessage struct {
	Type      MsgType         `json:"type"`
	MarketID  string          `json:"market_id"`
	Outcome   domain.Outcome  `json:"outcome"`
	Amount    decimal.Decimal `json:"amount"`
	TotalPool decimal.Decimal `json:"total_pool"`
	PoolA     decimal.Decimal `json:"pool_a"`
	PoolB     decimal.Decimal `json:"pool_b"`
	PercentA  decimal.Decimal `json:"percent_a"`
	PercentB  decimal.Decimal `json:"percent_b"`
	Timestamp time.Time       `json:"timestamp"`
}

// MarketResolvedMessage tells clients which side won once the attested
// result commits.
type MarketResolvedMessage struct {
	Type      MsgType         `json:"type"`
	MarketID  string          `json:"market_id"`
	Result    *domain.Result  `json:"result"`
	TotalPool decimal.Decimal `json:"total_pool"`
	PoolA     decimal.Decimal `json:"pool_a"`
	PoolB     decimal.Decimal `json:"pool_b"`
	Timestamp time.Time       `json:"timestamp"`
}

// SettlementCompletedMessage announces that the payout run for a market
// committed.
type SettlementCompletedMessage struct {
	Type             MsgType         `json:"type"`
	MarketID         string          `json:"market_id"`
	DistributedCount int             `json:"distributed_count"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Timestamp        time.Time       `json:"timestamp"`
}
