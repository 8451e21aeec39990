package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/victoryvault/staking/internal/domain"
	"github.com/victoryvault/staking/internal/service"
)

// StakeHandler serves stake placement and stake query endpoints.
type StakeHandler struct {
	stakeSvc *service.StakeService
}

// NewStakeHandler creates a StakeHandler.
func NewStakeHandler(stakeSvc *service.StakeService) *StakeHandler {
	return &StakeHandler{stakeSvc: stakeSvc}
}

// PlaceStake godoc
// POST /api/stakes
// Body: {"staker_id":"u-903","market_id":"match-2041","outcome":"A","amount":"250.00"}
func (h *StakeHandler) PlaceStake(c *gin.Context) {
	var body struct {
		StakerID string `json:"staker_id" binding:"required"`
		MarketID string `json:"market_id" binding:"required"`
		Outcome  string `json:"outcome"   binding:"required"`
		Amount   string `json:"amount"    binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", "amount must be a decimal string")
		return
	}

	stake, err := h.stakeSvc.PlaceStake(c.Request.Context(), domain.PlaceStakeRequest{
		StakerID: body.StakerID,
		MarketID: body.MarketID,
		Outcome:  domain.Outcome(body.Outcome),
		Amount:   amount,
	})
	if err != nil {
		h.respondStakeError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, stake)
}

// respondStakeError maps stake placement failures onto HTTP statuses. A
// market that exists but is not open for staking is a 400, not a conflict:
// the request was malformed for the market's current state.
func (h *StakeHandler) respondStakeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidOutcome):
		respondError(c, http.StatusBadRequest, "ERR_INVALID_OUTCOME", err.Error())
	case errors.Is(err, domain.ErrInvalidAmount):
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", err.Error())
	case errors.Is(err, domain.ErrMarketNotActive):
		respondError(c, http.StatusBadRequest, "ERR_MARKET_NOT_ACTIVE", err.Error())
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "ERR_MARKET_NOT_FOUND", "market not found")
	default:
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not place stake")
	}
}

// GetRecent godoc
// GET /api/stakes?market_id=match-2041&limit=50
func (h *StakeHandler) GetRecent(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 50
	}

	stakes, err := h.stakeSvc.ListRecent(c.Request.Context(), c.Query("market_id"), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch stakes")
		return
	}
	respondSuccess(c, http.StatusOK, stakes)
}
