package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/victoryvault/staking/internal/config"
	"github.com/victoryvault/staking/internal/domain"
	"github.com/victoryvault/staking/internal/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Broadcaster — minimal interface the services need from the WS hub
// ──────────────────────────────────────────────────────────────────────────────

// Broadcaster pushes pool and settlement events to connected clients.
// Implemented by ws.Hub; injected post-construction so the service package
// does not depend on the hub implementation.
type Broadcaster interface {
	BroadcastStakeAccepted(stake *domain.Stake, market *domain.MarketSummary)
	BroadcastMarketResolved(market *domain.MarketSummary)
	BroadcastSettlementCompleted(marketID string, result *domain.SettlementResult)
}

// ──────────────────────────────────────────────────────────────────────────────
// StakeService
// ──────────────────────────────────────────────────────────────────────────────

// StakeService orchestrates stake placement. The stake record, the pool
// increments and the staker's account accumulator commit as one PostgreSQL
// transaction: a validation failure anywhere leaves no partial pool update
// and no orphan stake.
type StakeService struct {
	db          *sqlx.DB
	stakeRepo   *repository.StakeRepository
	marketRepo  *repository.MarketRepository
	accountRepo *repository.AccountRepository
	cfg         *config.Config
	broadcaster Broadcaster // injected after the WS hub is built
}

// NewStakeService creates a StakeService.
func NewStakeService(
	db *sqlx.DB,
	stakeRepo *repository.StakeRepository,
	marketRepo *repository.MarketRepository,
	accountRepo *repository.AccountRepository,
	cfg *config.Config,
) *StakeService {
	return &StakeService{
		db:          db,
		stakeRepo:   stakeRepo,
		marketRepo:  marketRepo,
		accountRepo: accountRepo,
		cfg:         cfg,
	}
}

// SetBroadcaster injects the WS hub dependency post-construction.
func (s *StakeService) SetBroadcaster(b Broadcaster) { s.broadcaster = b }

// PlaceStake validates the request, then atomically records the stake,
// increments the market pools and the staker's lifetime total.
//
// The market row is locked for the duration of the transaction, so the
// status check can not go stale against a concurrent resolution: a stake
// racing resolveMarket either commits entirely before the resolution or
// fails with ErrMarketNotActive after it. Pool updates are relative
// increments, never absolute overwrites.
func (s *StakeService) PlaceStake(ctx context.Context, req domain.PlaceStakeRequest) (*domain.Stake, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("stake_service.PlaceStake: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	market, err := s.marketRepo.LockForUpdate(ctx, tx, req.MarketID)
	if err != nil {
		return nil, err
	}
	if !market.IsActive() {
		err = domain.ErrMarketNotActive
		return nil, err
	}

	stake := &domain.Stake{
		ID:       uuid.New(),
		StakerID: req.StakerID,
		MarketID: req.MarketID,
		Outcome:  req.Outcome,
		Amount:   req.Amount,
		PlacedAt: time.Now().UTC(),
	}
	if err = s.stakeRepo.Create(ctx, tx, stake); err != nil {
		return nil, fmt.Errorf("stake_service.PlaceStake: create stake: %w", err)
	}

	if err = s.marketRepo.AddToPool(ctx, tx, req.MarketID, req.Outcome, req.Amount); err != nil {
		return nil, fmt.Errorf("stake_service.PlaceStake: update pools: %w", err)
	}

	// Upsert keeps first-time stakers auditable instead of silently dropping
	// their lifetime total.
	if err = s.accountRepo.AddStaked(ctx, tx, req.StakerID, req.Amount); err != nil {
		return nil, fmt.Errorf("stake_service.PlaceStake: add staked: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("stake_service.PlaceStake: commit: %w", err)
	}

	go s.postStakeAsync(stake)

	return stake, nil
}

// postStakeAsync broadcasts the refreshed pool totals after a stake commits.
// Runs in a goroutine; a failed broadcast never affects the committed stake.
func (s *StakeService) postStakeAsync(stake *domain.Stake) {
	if s.broadcaster == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	market, err := s.marketRepo.GetByID(ctx, stake.MarketID)
	if err != nil {
		return
	}
	summary := market.ToSummary()
	s.broadcaster.BroadcastStakeAccepted(stake, &summary)
}

// ──────────────────────────────────────────────────────────────────────────────
// Query helpers
// ──────────────────────────────────────────────────────────────────────────────

// ListRecent returns the newest stakes, optionally scoped to one market.
func (s *StakeService) ListRecent(ctx context.Context, marketID string, limit int) ([]*domain.Stake, error) {
	stakes, err := s.stakeRepo.ListRecent(ctx, marketID, limit)
	if err != nil {
		return nil, fmt.Errorf("stake_service.ListRecent: %w", err)
	}
	return stakes, nil
}

// GetByStaker returns a participant's stake history, paginated.
func (s *StakeService) GetByStaker(ctx context.Context, stakerID string, limit, offset int) ([]*domain.Stake, error) {
	stakes, err := s.stakeRepo.GetByStaker(ctx, stakerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("stake_service.GetByStaker: %w", err)
	}
	return stakes, nil
}
