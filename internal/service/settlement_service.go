package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/victoryvault/staking/internal/config"
	"github.com/victoryvault/staking/internal/domain"
	"github.com/victoryvault/staking/internal/repository"
)

// SettlementService is the payout engine. A settlement run computes each
// winner's pro-rata share of the pool net of the platform fee and credits
// it exactly once.
//
// Precondition checks, reward records, account credits and the settled
// flag flip all execute inside a single transaction holding the market
// row lock. Two concurrent runs therefore serialise: the first
// committer wins, the second observes settled=true and aborts with
// ErrAlreadySettled. A run that fails partway rolls back completely and is
// safe to retry.
type SettlementService struct {
	db             *sqlx.DB
	marketRepo     *repository.MarketRepository
	stakeRepo      *repository.StakeRepository
	accountRepo    *repository.AccountRepository
	settlementRepo *repository.SettlementRepository
	feeRate        decimal.Decimal
	broadcaster    Broadcaster // injected after the WS hub is built
}

// NewSettlementService builds a SettlementService.
func NewSettlementService(
	db *sqlx.DB,
	marketRepo *repository.MarketRepository,
	stakeRepo *repository.StakeRepository,
	accountRepo *repository.AccountRepository,
	settlementRepo *repository.SettlementRepository,
	cfg *config.Config,
) *SettlementService {
	return &SettlementService{
		db:             db,
		marketRepo:     marketRepo,
		stakeRepo:      stakeRepo,
		accountRepo:    accountRepo,
		settlementRepo: settlementRepo,
		feeRate:        decimal.NewFromFloat(cfg.Settlement.FeeRate),
	}
}

// SetBroadcaster injects the WS hub dependency post-construction.
func (s *SettlementService) SetBroadcaster(b Broadcaster) { s.broadcaster = b }

// ──────────────────────────────────────────────────────────────────────────────
// Settle
// ──────────────────────────────────────────────────────────────────────────────

// Settle distributes the pool of a resolved market to its winning stakers.
//
// Preconditions, each a distinct error: the market must exist, must be
// resolved with a non-null result, must not be a draw (draws go through
// RefundDraw) and must not have been settled before.
//
// A market whose winning side attracted no stakes settles as a recorded
// no-op: zero records, zero credits, {0, 0} returned, and the settled flag
// still flips so the run is not replayed forever by the retry loop.
func (s *SettlementService) Settle(ctx context.Context, marketID string) (*domain.SettlementResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("settlement_service.Settle: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	market, err := s.marketRepo.LockForUpdate(ctx, tx, marketID)
	if err != nil {
		return nil, err
	}
	if err = checkSettleable(market); err != nil {
		return nil, err
	}
	if err = checkPayoutPath(market, false); err != nil {
		return nil, err
	}

	winner, _ := market.Result.WinningOutcome()
	winning, err := s.stakeRepo.GetByMarketAndOutcome(ctx, tx, marketID, winner)
	if err != nil {
		return nil, err
	}

	rewards, distributable := domain.ComputeRewards(winning, market.TotalPool, s.feeRate)
	credits := aggregateByStaker(rewards)

	now := time.Now().UTC()
	for _, c := range credits {
		rec := &domain.SettlementRecord{
			ID:        uuid.New(),
			StakerID:  c.stakerID,
			MarketID:  marketID,
			Type:      domain.RecordReward,
			Amount:    c.amount,
			Status:    domain.RecordSuccess,
			CreatedAt: now,
		}
		if err = s.settlementRepo.CreateRecord(ctx, tx, rec); err != nil {
			return nil, err
		}
		if err = s.accountRepo.AddEarned(ctx, tx, c.stakerID, c.amount); err != nil {
			return nil, err
		}
	}

	// Last write of the transaction: guard and payouts commit together.
	if err = s.marketRepo.MarkSettled(ctx, tx, marketID); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("settlement_service.Settle: commit: %w", err)
	}

	result := &domain.SettlementResult{
		DistributedCount: len(credits),
		TotalAmount:      distributable,
	}
	slog.Info("market settled",
		"market_id", marketID,
		"winner", winner,
		"distributed_count", result.DistributedCount,
		"total_amount", result.TotalAmount)

	if s.broadcaster != nil {
		go s.broadcaster.BroadcastSettlementCompleted(marketID, result)
	}
	return result, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// RefundDraw
// ──────────────────────────────────────────────────────────────────────────────

// RefundDraw returns every staker their own stake after a draw, fee-free.
// It is the explicitly separate sibling of Settle: valid only when the
// resolved result is a draw, and guarded by the same one-shot settled flag,
// so refund and win settlement can never both run for one market.
//
// Refunds are recorded in the settlement trail but do not touch the
// account earnings accumulator; a returned stake is not a winning.
func (s *SettlementService) RefundDraw(ctx context.Context, marketID string) (*domain.SettlementResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("settlement_service.RefundDraw: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	market, err := s.marketRepo.LockForUpdate(ctx, tx, marketID)
	if err != nil {
		return nil, err
	}
	if err = checkSettleable(market); err != nil {
		return nil, err
	}
	if err = checkPayoutPath(market, true); err != nil {
		return nil, err
	}

	stakes, err := s.stakeRepo.GetByMarket(ctx, tx, marketID)
	if err != nil {
		return nil, err
	}

	refunds := make([]domain.Reward, len(stakes))
	for i, st := range stakes {
		refunds[i] = domain.Reward{StakeID: st.ID, StakerID: st.StakerID, Amount: st.Amount}
	}
	credits := aggregateByStaker(refunds)

	now := time.Now().UTC()
	total := decimal.Zero
	for _, c := range credits {
		rec := &domain.SettlementRecord{
			ID:        uuid.New(),
			StakerID:  c.stakerID,
			MarketID:  marketID,
			Type:      domain.RecordRefund,
			Amount:    c.amount,
			Status:    domain.RecordSuccess,
			CreatedAt: now,
		}
		if err = s.settlementRepo.CreateRecord(ctx, tx, rec); err != nil {
			return nil, err
		}
		total = total.Add(c.amount)
	}

	if err = s.marketRepo.MarkSettled(ctx, tx, marketID); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("settlement_service.RefundDraw: commit: %w", err)
	}

	result := &domain.SettlementResult{
		DistributedCount: len(credits),
		TotalAmount:      total,
	}
	slog.Info("draw refunded",
		"market_id", marketID,
		"refunded_count", result.DistributedCount,
		"total_amount", result.TotalAmount)

	if s.broadcaster != nil {
		go s.broadcaster.BroadcastSettlementCompleted(marketID, result)
	}
	return result, nil
}

// Records returns the settlement audit trail for a market.
func (s *SettlementService) Records(ctx context.Context, marketID string) ([]*domain.SettlementRecord, error) {
	if _, err := s.marketRepo.GetByID(ctx, marketID); err != nil {
		return nil, err
	}
	recs, err := s.settlementRepo.GetRecordsByMarket(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("settlement_service.Records: %w", err)
	}
	return recs, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

// checkSettleable validates the shared settlement preconditions against a
// locked market row.
func checkSettleable(m *domain.Market) error {
	if !m.Resolved || m.Result == nil {
		return domain.ErrMarketNotResolved
	}
	if m.Settled {
		return domain.ErrAlreadySettled
	}
	return nil
}

// checkPayoutPath validates that the chosen payout direction matches the
// resolved result: wins go through Settle, draws through RefundDraw.
func checkPayoutPath(m *domain.Market, refund bool) error {
	if m.Result.IsDraw() == refund {
		return nil
	}
	if refund {
		return fmt.Errorf("%w: refund applies to draw results only", domain.ErrUnsupportedOutcome)
	}
	return fmt.Errorf("%w: draw requires the refund path", domain.ErrUnsupportedOutcome)
}

// stakerCredit is one staker's merged payout for a settlement run.
type stakerCredit struct {
	stakerID string
	amount   decimal.Decimal
}

// aggregateByStaker merges per-stake rewards into one credit per staker,
// preserving first-seen order. One settlement record per (market, staker)
// is what the uniqueness constraint on settlement_records enforces.
func aggregateByStaker(rewards []domain.Reward) []stakerCredit {
	index := make(map[string]int, len(rewards))
	credits := make([]stakerCredit, 0, len(rewards))
	for _, r := range rewards {
		if i, ok := index[r.StakerID]; ok {
			credits[i].amount = credits[i].amount.Add(r.Amount)
			continue
		}
		index[r.StakerID] = len(credits)
		credits = append(credits, stakerCredit{stakerID: r.StakerID, amount: r.Amount})
	}
	return credits
}
