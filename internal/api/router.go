package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/victoryvault/staking/internal/api/handler"
	"github.com/victoryvault/staking/internal/api/middleware"
	"github.com/victoryvault/staking/internal/config"
	"github.com/victoryvault/staking/internal/repository"
	"github.com/victoryvault/staking/internal/service"
	"github.com/victoryvault/staking/internal/ws"
)

// RouterDeps bundles every dependency needed to build the router.
// Populated once in main() and passed to SetupRouter.
type RouterDeps struct {
	MarketSvc      *service.MarketService
	StakeSvc       *service.StakeService
	ResolutionSvc  *service.ResolutionService
	SettlementSvc  *service.SettlementService
	AccountRepo    *repository.AccountRepository
	SettlementRepo *repository.SettlementRepository
	Hub            *ws.Hub
	Cfg            *config.Config
}

// SetupRouter creates and configures the main Gin engine with all routes,
// middleware, CORS, and rate limiting rules.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// ── CORS ─────────────────────────────────────────────────────────────────
	r.Use(corsMiddleware(deps.Cfg))

	// ── Health check ─────────────────────────────────────────────────────────
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	marketH := handler.NewMarketHandler(deps.MarketSvc, deps.StakeSvc)
	stakeH := handler.NewStakeHandler(deps.StakeSvc)
	oracleH := handler.NewOracleHandler(deps.ResolutionSvc)
	settlementH := handler.NewSettlementHandler(deps.SettlementSvc)
	accountH := handler.NewAccountHandler(deps.AccountRepo, deps.SettlementRepo, deps.StakeSvc)

	// ── Middleware ────────────────────────────────────────────────────────────
	adminMW := middleware.AdminMiddleware(deps.Cfg.Auth.AdminSecret)
	stakeRL := middleware.RateLimitMiddleware(30) // 30 req/s per IP for stake placement
	readRL := middleware.RateLimitMiddleware(60)  // 60 req/s per IP for public reads

	api := r.Group("/api")
	{
		// ── Markets ──────────────────────────────────────────────────────────
		markets := api.Group("/markets")
		markets.Use(readRL)
		{
			markets.GET("", marketH.List)
			markets.GET("/:id", marketH.GetByID)
			markets.GET("/:id/stakes", marketH.GetStakes)
			markets.POST("", adminMW, marketH.Create)
		}

		// ── Stakes ───────────────────────────────────────────────────────────
		stakes := api.Group("/stakes")
		{
			stakes.POST("", stakeRL, stakeH.PlaceStake)
			stakes.GET("", readRL, stakeH.GetRecent)
		}

		// ── Oracle ───────────────────────────────────────────────────────────
		oracle := api.Group("/oracle")
		{
			oracle.POST("", adminMW, oracleH.Resolve)
			oracle.GET("/:market_id", readRL, oracleH.GetAttestations)
		}

		// ── Settlements ──────────────────────────────────────────────────────
		settlements := api.Group("/settlements")
		{
			settlements.GET("/:market_id", readRL, settlementH.GetRecords)
			settlements.POST("/:market_id", adminMW, settlementH.Settle)
			settlements.POST("/:market_id/refund", adminMW, settlementH.RefundDraw)
		}

		// ── Accounts ─────────────────────────────────────────────────────────
		accounts := api.Group("/accounts")
		accounts.Use(readRL)
		{
			accounts.GET("/leaderboard", accountH.Leaderboard)
			accounts.GET("/:id", accountH.GetByID)
			accounts.GET("/:id/stakes", accountH.GetStakes)
			accounts.GET("/:id/settlements", accountH.GetSettlements)
		}
	}

	// ── WebSocket ─────────────────────────────────────────────────────────────
	if deps.Hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			deps.Hub.ServeWs(c.Writer, c.Request)
		})
	}

	return r
}

// ── CORS helper ───────────────────────────────────────────────────────────────

// corsMiddleware returns a gin middleware that sets CORS headers. Outside
// production any origin is allowed; in production only configured origins.
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	allowed := map[string]bool{}
	for _, o := range strings.Split(cfg.Server.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if !cfg.IsProd() {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" && allowed[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
