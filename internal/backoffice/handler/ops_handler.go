package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/victoryvault/staking/internal/config"
	"github.com/victoryvault/staking/internal/domain"
	"github.com/victoryvault/staking/internal/repository"
)

// OpsHandler serves the read-only ops console endpoints.
type OpsHandler struct {
	marketRepo     *repository.MarketRepository
	stakeRepo      *repository.StakeRepository
	accountRepo    *repository.AccountRepository
	settlementRepo *repository.SettlementRepository
	cfg            *config.Config
}

// NewOpsHandler creates an OpsHandler.
func NewOpsHandler(
	marketRepo *repository.MarketRepository,
	stakeRepo *repository.StakeRepository,
	accountRepo *repository.AccountRepository,
	settlementRepo *repository.SettlementRepository,
	cfg *config.Config,
) *OpsHandler {
	return &OpsHandler{
		marketRepo:     marketRepo,
		stakeRepo:      stakeRepo,
		accountRepo:    accountRepo,
		settlementRepo: settlementRepo,
		cfg:            cfg,
	}
}

// Dashboard godoc
// GET /ops/dashboard
func (h *OpsHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	// ── Market counts by status ───────────────────────────────────────────────
	counts := gin.H{}
	for _, status := range []domain.MarketStatus{
		domain.StatusUpcoming, domain.StatusActive, domain.StatusResolved,
	} {
		_, total, err := h.marketRepo.List(ctx, 1, 0, string(status))
		if err != nil {
			respondError(c, http.StatusInternalServerError, "could not count markets")
			return
		}
		counts[string(status)] = total
	}

	// ── Settlement backlog ────────────────────────────────────────────────────
	unsettled, err := h.marketRepo.GetResolvedUnsettled(ctx, time.Now().UTC())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not fetch settlement backlog")
		return
	}
	var backlogPool decimal.Decimal
	for _, m := range unsettled {
		backlogPool = backlogPool.Add(m.TotalPool)
	}

	// ── Active pool exposure ──────────────────────────────────────────────────
	openPool, err := h.marketRepo.SumPoolByStatus(ctx, domain.StatusActive)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not total active pools")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"timestamp":     time.Now().UTC(),
		"market_counts": counts,
		"open_pool":     openPool,
		"settlement_backlog": gin.H{
			"count":      len(unsettled),
			"total_pool": backlogPool,
		},
		"fee_rate": h.cfg.Settlement.FeeRate,
	})
}

// Unsettled godoc
// GET /ops/markets/unsettled
func (h *OpsHandler) Unsettled(c *gin.Context) {
	markets, err := h.marketRepo.GetResolvedUnsettled(c.Request.Context(), time.Now().UTC())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not fetch unsettled markets")
		return
	}

	out := make([]gin.H, 0, len(markets))
	for _, m := range markets {
		entry := gin.H{
			"id":          m.ID,
			"result":      m.Result,
			"total_pool":  m.TotalPool,
			"resolved_at": m.ResolvedAt,
		}
		if m.Result != nil && m.Result.IsDraw() {
			entry["pending_action"] = "refund"
		} else {
			entry["pending_action"] = "settle"
		}
		out = append(out, entry)
	}
	respondSuccess(c, http.StatusOK, out)
}

// TopAccounts godoc
// GET /ops/accounts/top?limit=20
func (h *OpsHandler) TopAccounts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}

	accounts, err := h.accountRepo.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not fetch accounts")
		return
	}

	out := make([]gin.H, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, gin.H{
			"staker_id":    a.StakerID,
			"total_staked": a.TotalStaked,
			"total_earned": a.TotalEarned,
			"net_position": a.NetPosition(),
		})
	}
	respondSuccess(c, http.StatusOK, out)
}

// Reconcile godoc
// GET /ops/markets/:id/reconcile
//
// Cross-checks the market's pool columns against the stake ledger and, for
// settled markets, the settlement records against the distributable amount.
func (h *OpsHandler) Reconcile(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	market, err := h.marketRepo.GetByID(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			respondError(c, http.StatusNotFound, "market not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "could not fetch market")
		return
	}

	stakedA, err := h.stakeRepo.SumByOutcome(ctx, id, domain.OutcomeA)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not sum stakes")
		return
	}
	stakedB, err := h.stakeRepo.SumByOutcome(ctx, id, domain.OutcomeB)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not sum stakes")
		return
	}

	poolsBalanced := stakedA.Equal(market.PoolA) &&
		stakedB.Equal(market.PoolB) &&
		stakedA.Add(stakedB).Equal(market.TotalPool)

	report := gin.H{
		"market_id":      market.ID,
		"status":         market.Status,
		"resolved":       market.Resolved,
		"settled":        market.Settled,
		"pool_a":         market.PoolA,
		"pool_b":         market.PoolB,
		"total_pool":     market.TotalPool,
		"staked_a":       stakedA,
		"staked_b":       stakedB,
		"pools_balanced": poolsBalanced,
	}

	if market.Settled {
		records, err := h.settlementRepo.GetRecordsByMarket(ctx, id)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "could not fetch settlement records")
			return
		}
		var paidOut decimal.Decimal
		for _, rec := range records {
			paidOut = paidOut.Add(rec.Amount)
		}

		feeRate := decimal.NewFromFloat(h.cfg.Settlement.FeeRate)
		report["records_count"] = len(records)
		report["paid_out"] = paidOut

		if market.Result != nil && market.Result.IsDraw() {
			// Draw refunds return the full pool, fee-free.
			report["expected_payout"] = market.TotalPool
			report["payout_balanced"] = paidOut.Equal(market.TotalPool) || len(records) == 0
		} else {
			expected := domain.Distributable(market.TotalPool, feeRate)
			report["expected_payout"] = expected
			report["payout_balanced"] = paidOut.Equal(expected) || len(records) == 0
		}
	}

	respondSuccess(c, http.StatusOK, report)
}
