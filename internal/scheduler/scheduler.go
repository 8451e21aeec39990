// Package scheduler runs the two background goroutines of the market
// lifecycle:
//  1. activationLoop      – flips upcoming markets to active at start time.
//  2. settlementRetryLoop – re-runs payouts for resolved markets whose
//     settlement failed or never ran.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/victoryvault/staking/internal/config"
	"github.com/victoryvault/staking/internal/domain"
	"github.com/victoryvault/staking/internal/repository"
	"github.com/victoryvault/staking/internal/service"
)

// ──────────────────────────────────────────────────────────────────────────────
// Scheduler
// ──────────────────────────────────────────────────────────────────────────────

// Scheduler wires together the repositories and services behind the two
// lifecycle goroutines. Call Start(ctx) once from main(); cancel the context
// to shut it down gracefully.
type Scheduler struct {
	marketRepo    *repository.MarketRepository
	settlementSvc *service.SettlementService
	cfg           *config.Config
	logger        *slog.Logger
}

// NewScheduler creates a Scheduler.
func NewScheduler(
	marketRepo *repository.MarketRepository,
	settlementSvc *service.SettlementService,
	cfg *config.Config,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		marketRepo:    marketRepo,
		settlementSvc: settlementSvc,
		cfg:           cfg,
		logger:        logger,
	}
}

// Start launches the background goroutines. It returns immediately; all
// loops run until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.activationLoop(ctx)
	go s.settlementRetryLoop(ctx)
	s.logger.Info("scheduler started",
		"activation_interval", s.cfg.Settlement.ActivationInterval,
		"retry_interval", s.cfg.Settlement.RetryInterval)
}

// ──────────────────────────────────────────────────────────────────────────────
// activationLoop
// ──────────────────────────────────────────────────────────────────────────────

// activationLoop scans for upcoming markets whose start time has passed and
// flips them to active so stakes can come in.
func (s *Scheduler) activationLoop(ctx context.Context) {
	defer s.recoverAndLog("activationLoop")

	ticker := time.NewTicker(s.cfg.Settlement.ActivationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("activationLoop: shutting down")
			return
		case <-ticker.C:
			s.activateDueMarkets(ctx)
		}
	}
}

// activateDueMarkets is the inner body of activationLoop.
func (s *Scheduler) activateDueMarkets(ctx context.Context) {
	markets, err := s.marketRepo.GetUpcomingDue(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("activationLoop: query due markets", "err", err)
		return
	}

	for _, m := range markets {
		if err := s.marketRepo.Activate(ctx, m.ID); err != nil {
			s.logger.Error("activationLoop: activate failed", "market_id", m.ID, "err", err)
			continue
		}
		s.logger.Info("market activated", "market_id", m.ID, "start_time", m.StartTime)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// settlementRetryLoop
// ──────────────────────────────────────────────────────────────────────────────

// settlementRetryLoop picks up resolved markets that are still unsettled
// past the grace period and re-runs the payout. The inline settlement after
// resolution handles the common case; this loop is the safety net for
// crashes and transient database failures between resolution commit and
// payout commit.
func (s *Scheduler) settlementRetryLoop(ctx context.Context) {
	defer s.recoverAndLog("settlementRetryLoop")

	ticker := time.NewTicker(s.cfg.Settlement.RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("settlementRetryLoop: shutting down")
			return
		case <-ticker.C:
			s.retryUnsettled(ctx)
		}
	}
}

// retryUnsettled is the inner body of settlementRetryLoop.
func (s *Scheduler) retryUnsettled(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.cfg.Settlement.RetryGracePeriod)

	markets, err := s.marketRepo.GetResolvedUnsettled(ctx, cutoff)
	if err != nil {
		s.logger.Error("settlementRetryLoop: query unsettled markets", "err", err)
		return
	}

	for _, m := range markets {
		result, err := s.settlementSvc.Settle(ctx, m.ID)
		switch {
		case err == nil:
			s.logger.Info("retried settlement succeeded",
				"market_id", m.ID,
				"distributed_count", result.DistributedCount,
				"total_amount", result.TotalAmount)
		case errors.Is(err, domain.ErrAlreadySettled):
			// Lost the race to a concurrent manual settlement. Done.
		case errors.Is(err, domain.ErrUnsupportedOutcome):
			// Draw. Pool return needs an explicit refund call, not a payout.
			s.logger.Warn("unsettled market is a draw, awaiting refund",
				"market_id", m.ID)
		default:
			s.logger.Error("retried settlement failed", "market_id", m.ID, "err", err)
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Panic recovery
// ──────────────────────────────────────────────────────────────────────────────

// recoverAndLog is deferred inside each goroutine to catch unexpected panics,
// log them, and allow the scheduler to continue running.
func (s *Scheduler) recoverAndLog(loop string) {
	if r := recover(); r != nil {
		s.logger.Error("PANIC recovered in scheduler loop",
			"loop", loop, "panic", r)
	}
}
