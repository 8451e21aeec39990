package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/victoryvault/staking/internal/domain"
	"github.com/victoryvault/staking/internal/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Settler interface — implemented by SettlementService
// Declared here to break the import-order cycle between the two services.
// ──────────────────────────────────────────────────────────────────────────────

// Settler is the minimal interface ResolutionService needs from the
// settlement engine.
type Settler interface {
	Settle(ctx context.Context, marketID string) (*domain.SettlementResult, error)
}

// ──────────────────────────────────────────────────────────────────────────────
// ResolutionService
// ──────────────────────────────────────────────────────────────────────────────

// ResolutionService accepts attested outcomes. Marking the market resolved
// and persisting the attestation is one atomic transaction guarded by a
// compare-and-set on the resolved flag; the first committed result is
// immutable.
//
// Settlement is triggered synchronously after the resolution commits but
// fails independently: a settlement error is reported back to the caller
// while the resolution stands, and settlement can be retried later as a
// separate idempotent operation.
type ResolutionService struct {
	db             *sqlx.DB
	marketRepo     *repository.MarketRepository
	settlementRepo *repository.SettlementRepository
	settler        Settler     // injected after SettlementService is built
	broadcaster    Broadcaster // injected after the WS hub is built
}

// NewResolutionService builds a ResolutionService. Call SetSettler() after
// constructing the SettlementService.
func NewResolutionService(
	db *sqlx.DB,
	marketRepo *repository.MarketRepository,
	settlementRepo *repository.SettlementRepository,
) *ResolutionService {
	return &ResolutionService{
		db:             db,
		marketRepo:     marketRepo,
		settlementRepo: settlementRepo,
	}
}

// SetSettler injects the settlement engine post-construction.
func (s *ResolutionService) SetSettler(e Settler) { s.settler = e }

// SetBroadcaster injects the WS hub dependency post-construction.
func (s *ResolutionService) SetBroadcaster(b Broadcaster) { s.broadcaster = b }

// Resolve records the attested result for a market.
//
// Repeat attempts fail with ErrAlreadyResolved regardless of whether the
// new result agrees with the committed one; results are never overwritten.
// A resolution that commits always returns a non-nil outcome even when the
// follow-up settlement run fails; callers distinguish "resolution failed"
// (error return) from "resolved, settlement pending" (SettlementError set).
func (s *ResolutionService) Resolve(ctx context.Context, marketID string, result domain.Result, source string, verifiedAt time.Time) (*domain.ResolutionOutcome, error) {
	if !result.IsValid() {
		return nil, domain.ErrInvalidResult
	}
	if source == "" {
		return nil, domain.ErrMissingSource
	}
	if verifiedAt.IsZero() {
		verifiedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("resolution_service.Resolve: begin tx: %w", err)
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
	if market.Resolved {
		err = domain.ErrAlreadyResolved
		return nil, err
	}

	att := &domain.OracleAttestation{
		ID:         uuid.New(),
		MarketID:   marketID,
		Source:     source,
		Result:     result,
		VerifiedAt: verifiedAt,
		CreatedAt:  time.Now().UTC(),
	}
	if err = s.settlementRepo.CreateAttestation(ctx, tx, att); err != nil {
		return nil, fmt.Errorf("resolution_service.Resolve: attestation: %w", err)
	}

	if err = s.marketRepo.Resolve(ctx, tx, marketID, result); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("resolution_service.Resolve: commit: %w", err)
	}

	slog.Info("market resolved", "market_id", marketID, "result", result, "source", source)
	go s.postResolveAsync(marketID)

	// The resolution is durable from here on. Settlement errors are
	// captured, not propagated: the payout run can be replayed out-of-band.
	outcome := &domain.ResolutionOutcome{Resolved: true}
	if s.settler != nil {
		settlement, settleErr := s.settler.Settle(ctx, marketID)
		if settleErr != nil {
			slog.Warn("settlement after resolution failed",
				"market_id", marketID, "err", settleErr)
			outcome.SettlementError = settleErr.Error()
		} else {
			outcome.Settlement = settlement
		}
	}
	return outcome, nil
}

// postResolveAsync broadcasts the resolved market state.
func (s *ResolutionService) postResolveAsync(marketID string) {
	if s.broadcaster == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	market, err := s.marketRepo.GetByID(ctx, marketID)
	if err != nil {
		return
	}
	summary := market.ToSummary()
	s.broadcaster.BroadcastMarketResolved(&summary)
}

// Attestations returns the append-only attestation log for a market.
func (s *ResolutionService) Attestations(ctx context.Context, marketID string) ([]*domain.OracleAttestation, error) {
	if _, err := s.marketRepo.GetByID(ctx, marketID); err != nil {
		return nil, err
	}
	atts, err := s.settlementRepo.GetAttestationsByMarket(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("resolution_service.Attestations: %w", err)
	}
	return atts, nil
}
