package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"panel-backend/config"
	"panel-backend/internal/apperr"
	"panel-backend/internal/cache"
	"panel-backend/internal/metrics"
	"panel-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, h *Handler, auth mw.Authenticator, respCache cache.Cache) *gin.Engine {
	r := gin.Default()
	if cfg.Server.RequestIPHeader != "" {
		r.TrustedPlatform = cfg.Server.RequestIPHeader
	}

	// Metrics wraps Errors so the recorded status is the rendered one.
	r.Use(mw.Metrics(), mw.Errors())
	r.NoRoute(func(c *gin.Context) {
		_ = c.Error(apperr.ErrNotFound)
	})

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)
	caching := mw.Cache(respCache, time.Duration(cfg.Server.CacheTTLSeconds)*time.Second)

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	client := api.Group("/client")
	client.Use(mw.RequireUser(auth), mw.RequireApproved(auth))
	{
		client.GET("/account", h.GetAccount)
		client.PUT("/account/password", h.UpdatePassword)
		client.POST("/account/api-keys", h.CreateAPIKey)

		client.GET("/servers", h.GetServers)
		client.GET("/servers/:server/analytics", h.GetServerAnalytics)

		client.GET("/store/nodes", caching, h.GetStoreNodes)
		client.GET("/store/nests", caching, h.GetStoreNests)
		client.GET("/store/eggs", caching, h.GetStoreEggs)
		client.POST("/store/servers", h.DeployServer)
		client.POST("/store/coupons", h.RedeemCoupon)

		client.GET("/tickets", h.GetTickets)
		client.POST("/tickets", h.CreateTicket)
		client.GET("/tickets/:ticket", h.GetTicket)
		client.POST("/tickets/:ticket/messages", h.CreateTicketMessage)

		client.GET("/subscriptions", h.GetSubscription)
		client.PUT("/subscriptions", h.PutSubscription)
		client.DELETE("/subscriptions", h.DeleteSubscription)
	}

	admin := api.Group("/application")
	admin.Use(mw.RequireUser(auth), mw.RequireAdmin())
	{
		admin.GET("/approvals", h.GetApprovals)
		admin.PATCH("/approvals", h.UpdateApprovals)
		admin.POST("/approvals/bulk/:action", h.BulkApprovals)
		admin.POST("/approvals/users/:user/approve", h.ApproveUser)
		admin.POST("/approvals/users/:user/deny", h.DenyUser)
		admin.POST("/users/:user/verify", h.VerifyUser)

		admin.GET("/coupons", h.GetCoupons)
		admin.POST("/coupons", h.CreateCoupon)
		admin.DELETE("/coupons/:coupon", h.DeleteCoupon)

		admin.GET("/nodes", h.GetNodes)
		admin.POST("/nodes", h.CreateNode)

		admin.GET("/nests", h.GetNests)
		admin.POST("/nests", h.CreateNest)
		admin.POST("/nests/:nest/eggs", h.CreateEgg)

		admin.GET("/servers", h.GetAllServers)
		admin.DELETE("/servers/:server", h.DeleteServer)

		admin.GET("/tickets", h.GetAllTickets)
		admin.PATCH("/tickets/:ticket", h.UpdateTicketStatus)
	}

	return r
}
