package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/victoryvault/staking/internal/domain"
	"github.com/victoryvault/staking/internal/service"
)

// OracleHandler serves result attestation endpoints.
type OracleHandler struct {
	resolutionSvc *service.ResolutionService
}

// NewOracleHandler creates an OracleHandler.
func NewOracleHandler(resolutionSvc *service.ResolutionService) *OracleHandler {
	return &OracleHandler{resolutionSvc: resolutionSvc}
}

// Resolve godoc
// POST /api/oracle [admin]
// Body: {"market_id":"match-2041","result":"A","source":"sportradar","verified_at":"2026-09-01T20:05:00Z"}
//
// Returns 200 with the resolution outcome. A failed payout run after a
// committed resolution is reported in the body, not as an HTTP error.
func (h *OracleHandler) Resolve(c *gin.Context) {
	var body struct {
		MarketID   string     `json:"market_id" binding:"required"`
		Result     string     `json:"result"    binding:"required"`
		Source     string     `json:"source"    binding:"required"`
		VerifiedAt *time.Time `json:"verified_at"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	var verifiedAt time.Time
	if body.VerifiedAt != nil {
		verifiedAt = *body.VerifiedAt
	}

	outcome, err := h.resolutionSvc.Resolve(c.Request.Context(),
		body.MarketID, domain.Result(body.Result), body.Source, verifiedAt)
	if err != nil {
		switch {
		case domain.IsValidation(err):
			respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		case domain.IsNotFound(err):
			respondError(c, http.StatusNotFound, "ERR_MARKET_NOT_FOUND", "market not found")
		case domain.IsConflict(err):
			respondError(c, http.StatusConflict, "ERR_ALREADY_RESOLVED", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not resolve market")
		}
		return
	}
	respondSuccess(c, http.StatusOK, outcome)
}

// GetAttestations godoc
// GET /api/oracle/:market_id
func (h *OracleHandler) GetAttestations(c *gin.Context) {
	atts, err := h.resolutionSvc.Attestations(c.Request.Context(), c.Param("market_id"))
	if err != nil {
		respondQueryError(c, err, "could not fetch attestations")
		return
	}
	respondSuccess(c, http.StatusOK, atts)
}
