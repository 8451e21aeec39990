package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/victoryvault/staking/internal/domain"
	"github.com/victoryvault/staking/internal/repository"
	"github.com/victoryvault/staking/internal/service"
)

// AccountHandler serves staker account and leaderboard endpoints.
type AccountHandler struct {
	accountRepo    *repository.AccountRepository
	settlementRepo *repository.SettlementRepository
	stakeSvc       *service.StakeService
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(
	accountRepo *repository.AccountRepository,
	settlementRepo *repository.SettlementRepository,
	stakeSvc *service.StakeService,
) *AccountHandler {
	return &AccountHandler{
		accountRepo:    accountRepo,
		settlementRepo: settlementRepo,
		stakeSvc:       stakeSvc,
	}
}

// Leaderboard godoc
// GET /api/accounts/leaderboard?limit=10
func (h *AccountHandler) Leaderboard(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 10
	}

	accounts, err := h.accountRepo.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch leaderboard")
		return
	}
	respondSuccess(c, http.StatusOK, accounts)
}

// GetByID godoc
// GET /api/accounts/:id
func (h *AccountHandler) GetByID(c *gin.Context) {
	account, err := h.accountRepo.GetByStakerID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if domain.IsNotFound(err) {
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", "account not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch account")
		return
	}
	respondSuccess(c, http.StatusOK, account)
}

// GetStakes godoc
// GET /api/accounts/:id/stakes?page=1&limit=20
func (h *AccountHandler) GetStakes(c *gin.Context) {
	page, limit := parsePagination(c)
	offset := (page - 1) * limit

	stakes, err := h.stakeSvc.GetByStaker(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch stakes")
		return
	}
	respondList(c, stakes, len(stakes), page, limit)
}

// GetSettlements godoc
// GET /api/accounts/:id/settlements?page=1&limit=20
func (h *AccountHandler) GetSettlements(c *gin.Context) {
	page, limit := parsePagination(c)
	offset := (page - 1) * limit

	records, err := h.settlementRepo.GetRecordsByStaker(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch settlement records")
		return
	}
	respondList(c, records, len(records), page, limit)
}
