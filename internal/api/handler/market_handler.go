package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/victoryvault/staking/internal/domain"
	"github.com/victoryvault/staking/internal/service"
)

// MarketHandler serves market catalog and query endpoints.
type MarketHandler struct {
	marketSvc *service.MarketService
	stakeSvc  *service.StakeService
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(marketSvc *service.MarketService, stakeSvc *service.StakeService) *MarketHandler {
	return &MarketHandler{marketSvc: marketSvc, stakeSvc: stakeSvc}
}

// Create godoc
// POST /api/markets [admin]
// Body: {"id":"match-2041","team_a":"Lions","team_b":"Hawks","start_time":"2026-09-01T18:00:00Z"}
func (h *MarketHandler) Create(c *gin.Context) {
	var body struct {
		ID        string    `json:"id"         binding:"required"`
		TeamA     string    `json:"team_a"     binding:"required"`
		TeamB     string    `json:"team_b"     binding:"required"`
		StartTime time.Time `json:"start_time" binding:"required"`
		Status    string    `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	market, err := h.marketSvc.CreateMarket(c.Request.Context(), service.CreateMarketRequest{
		ID:        body.ID,
		TeamA:     body.TeamA,
		TeamB:     body.TeamB,
		StartTime: body.StartTime,
		Status:    domain.MarketStatus(body.Status),
	})
	if err != nil {
		switch {
		case domain.IsValidation(err):
			respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		case domain.IsConflict(err):
			respondError(c, http.StatusConflict, "ERR_MARKET_EXISTS", "market id already exists")
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not create market")
		}
		return
	}
	respondSuccess(c, http.StatusCreated, market)
}

// List godoc
// GET /api/markets?status=active&page=1&limit=20
func (h *MarketHandler) List(c *gin.Context) {
	status := c.Query("status")
	page, limit := parsePagination(c)
	offset := (page - 1) * limit

	markets, total, err := h.marketSvc.List(c.Request.Context(), limit, offset, status)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch markets")
		return
	}
	respondList(c, markets, total, page, limit)
}

// GetByID godoc
// GET /api/markets/:id
func (h *MarketHandler) GetByID(c *gin.Context) {
	market, err := h.marketSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if domain.IsNotFound(err) {
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", "market not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch market")
		return
	}
	respondSuccess(c, http.StatusOK, market.ToSummary())
}

// GetStakes godoc
// GET /api/markets/:id/stakes?limit=50
func (h *MarketHandler) GetStakes(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 50
	}

	stakes, err := h.stakeSvc.ListRecent(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch stakes")
		return
	}
	respondSuccess(c, http.StatusOK, stakes)
}

// parsePagination reads ?page and ?limit with sane bounds.
func parsePagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
