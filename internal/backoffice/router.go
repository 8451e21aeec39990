// Package backoffice is the ops console served on its own port, separate
// from the public API. Everything here is read-only: pool reconciliation,
// settlement backlog, ledger totals.
package backoffice

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/victoryvault/staking/internal/api/middleware"
	"github.com/victoryvault/staking/internal/backoffice/handler"
	"github.com/victoryvault/staking/internal/config"
	"github.com/victoryvault/staking/internal/repository"
)

// BackofficeDeps bundles every dependency needed for the ops router.
type BackofficeDeps struct {
	MarketRepo     *repository.MarketRepository
	StakeRepo      *repository.StakeRepository
	AccountRepo    *repository.AccountRepository
	SettlementRepo *repository.SettlementRepository
	Cfg            *config.Config
}

// SetupBackofficeRouter creates the ops Gin engine.
func SetupBackofficeRouter(deps BackofficeDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(ipWhitelistMiddleware(deps.Cfg.Server.BackofficeAllowedIPs))

	opsH := handler.NewOpsHandler(deps.MarketRepo, deps.StakeRepo, deps.AccountRepo, deps.SettlementRepo, deps.Cfg)

	adminMW := middleware.AdminMiddleware(deps.Cfg.Auth.AdminSecret)

	ops := r.Group("/ops")
	ops.Use(adminMW)
	{
		ops.GET("/dashboard", opsH.Dashboard)

		markets := ops.Group("/markets")
		{
			markets.GET("/unsettled", opsH.Unsettled)
			markets.GET("/:id/reconcile", opsH.Reconcile)
		}

		ops.GET("/accounts/top", opsH.TopAccounts)
	}

	return r
}

// ── IP whitelist middleware ───────────────────────────────────────────────────

// ipWhitelistMiddleware blocks requests from IPs not in the allowlist.
// allowedIPs is a comma-separated string; empty means allow all.
func ipWhitelistMiddleware(allowedIPs string) gin.HandlerFunc {
	if allowedIPs == "" {
		return func(c *gin.Context) { c.Next() } // dev mode: no restriction
	}

	allowed := make(map[string]bool)
	for _, ip := range strings.Split(allowedIPs, ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			allowed[ip] = true
		}
	}

	return func(c *gin.Context) {
		if !allowed[c.ClientIP()] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "access denied: your IP is not whitelisted",
			})
			return
		}
		c.Next()
	}
}
