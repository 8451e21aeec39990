package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/victoryvault/staking/internal/domain"
	"github.com/victoryvault/staking/internal/service"
)

// SettlementHandler serves manual payout and settlement record endpoints.
// Payouts normally run automatically after resolution; these routes exist
// for the retry and draw-refund paths.
type SettlementHandler struct {
	settlementSvc *service.SettlementService
}

// NewSettlementHandler creates a SettlementHandler.
func NewSettlementHandler(settlementSvc *service.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementSvc: settlementSvc}
}

// Settle godoc
// POST /api/settlements/:market_id [admin]
func (h *SettlementHandler) Settle(c *gin.Context) {
	result, err := h.settlementSvc.Settle(c.Request.Context(), c.Param("market_id"))
	if err != nil {
		h.respondSettleError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, result)
}

// RefundDraw godoc
// POST /api/settlements/:market_id/refund [admin]
func (h *SettlementHandler) RefundDraw(c *gin.Context) {
	result, err := h.settlementSvc.RefundDraw(c.Request.Context(), c.Param("market_id"))
	if err != nil {
		h.respondSettleError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, result)
}

// GetRecords godoc
// GET /api/settlements/:market_id
func (h *SettlementHandler) GetRecords(c *gin.Context) {
	records, err := h.settlementSvc.Records(c.Request.Context(), c.Param("market_id"))
	if err != nil {
		respondQueryError(c, err, "could not fetch settlement records")
		return
	}
	respondSuccess(c, http.StatusOK, records)
}

// respondSettleError maps settlement failures onto HTTP statuses. Settle and
// RefundDraw share the same guard set. Only a repeat run is a conflict;
// settling an unresolved market or routing a result down the wrong payout
// path is a bad request.
func (h *SettlementHandler) respondSettleError(c *gin.Context, err error) {
	switch {
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "ERR_MARKET_NOT_FOUND", "market not found")
	case errors.Is(err, domain.ErrMarketNotResolved):
		respondError(c, http.StatusBadRequest, "ERR_NOT_RESOLVED", err.Error())
	case errors.Is(err, domain.ErrAlreadySettled):
		respondError(c, http.StatusConflict, "ERR_ALREADY_SETTLED", err.Error())
	case errors.Is(err, domain.ErrUnsupportedOutcome):
		respondError(c, http.StatusBadRequest, "ERR_UNSUPPORTED_OUTCOME", err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "settlement failed")
	}
}
