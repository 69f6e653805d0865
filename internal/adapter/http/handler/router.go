package handler

import (
	"github.com/pye-wu/axon-demo/internal/adapter/http/middleware"
	"github.com/pye-wu/axon-demo/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AccountSvc     ports.AccountService
	TransferSvc    ports.TransferService
	RateLimitStore ports.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep: storage and transport backends)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rules[group], deps.Logger)
	}

	v1 := r.Group("/api/v1", middleware.Tenant())

	accountHandler := NewAccountHandler(deps.AccountSvc)
	accounts := v1.Group("/accounts")
	{
		accounts.POST("", rl("accounts_create"), accountHandler.Create)
		accounts.GET("/:id", rl("reads"), accountHandler.Get)
		accounts.GET("/:id/events", rl("reads"), accountHandler.Events)
		accounts.POST("/:id/deposits", rl("movements"), accountHandler.Deposit)
		accounts.POST("/:id/withdrawals", rl("movements"), accountHandler.Withdraw)
		accounts.POST("/:id/refunds", rl("movements"), accountHandler.Refund)
		accounts.POST("/:id/close", rl("movements"), accountHandler.Close)
	}

	transferHandler := NewTransferHandler(deps.TransferSvc)
	transfers := v1.Group("/transfers")
	{
		transfers.POST("", rl("transfers"), transferHandler.Request)
		transfers.GET("/:id", rl("reads"), transferHandler.Get)
	}

	return r
}
