package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/victoryvault/staking/internal/domain"
	"github.com/victoryvault/staking/internal/repository"
)

// MarketService handles the market catalog: admin creation and public
// queries. Resolution and settlement own all other lifecycle transitions.
type MarketService struct {
	marketRepo *repository.MarketRepository
	stakeRepo  *repository.StakeRepository
}

// NewMarketService creates a MarketService.
func NewMarketService(marketRepo *repository.MarketRepository, stakeRepo *repository.StakeRepository) *MarketService {
	return &MarketService{marketRepo: marketRepo, stakeRepo: stakeRepo}
}

// CreateMarketRequest carries the validated inputs for creating a market.
type CreateMarketRequest struct {
	ID        string
	TeamA     string
	TeamB     string
	StartTime time.Time
	Status    domain.MarketStatus
}

// CreateMarket persists a new market with empty pools. Status defaults to
// upcoming; active is accepted for markets that open immediately.
func (s *MarketService) CreateMarket(ctx context.Context, req CreateMarketRequest) (*domain.Market, error) {
	if req.Status == "" {
		req.Status = domain.StatusUpcoming
	}
	if req.Status != domain.StatusUpcoming && req.Status != domain.StatusActive {
		return nil, fmt.Errorf("market_service.CreateMarket: %w", domain.ErrInvalidStatus)
	}

	now := time.Now().UTC()
	m := &domain.Market{
		ID:        req.ID,
		TeamA:     req.TeamA,
		TeamB:     req.TeamB,
		Status:    req.Status,
		StartTime: req.StartTime,
		TotalPool: decimal.Zero,
		PoolA:     decimal.Zero,
		PoolB:     decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.marketRepo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// GetByID fetches a single market.
func (s *MarketService) GetByID(ctx context.Context, id string) (*domain.Market, error) {
	return s.marketRepo.GetByID(ctx, id)
}

// List returns paginated markets, optionally filtered by status.
func (s *MarketService) List(ctx context.Context, limit, offset int, status string) ([]*domain.Market, int, error) {
	return s.marketRepo.List(ctx, limit, offset, status)
}
