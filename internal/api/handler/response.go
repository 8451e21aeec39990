package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/victoryvault/staking/internal/domain"
)

// Every endpoint answers with the same envelope: a success flag, then
// either "data" (plus "meta" on paginated lists) or "error" and a stable
// machine-readable "code". Clients switch on the code, not the message.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *listMeta   `json:"meta,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

type listMeta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func respondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, envelope{Success: true, Data: data})
}

func respondError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Error: msg, Code: code})
}

func respondList(c *gin.Context, items interface{}, total, page, limit int) {
	c.JSON(http.StatusOK, envelope{
		Success: true,
		Data:    items,
		Meta:    &listMeta{Total: total, Page: page, Limit: limit},
	})
}

// respondQueryError handles failures on read-only lookups keyed by market:
// an unknown market is the caller's mistake, anything else is ours.
func respondQueryError(c *gin.Context, err error, msg string) {
	if domain.IsNotFound(err) {
		respondError(c, http.StatusNotFound, "ERR_MARKET_NOT_FOUND", "market not found")
		return
	}
	respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", msg)
}
