package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"emberveil-engine/internal/economy"
	"emberveil-engine/internal/scheduler"
	"emberveil-engine/pkg/config"
	"emberveil-engine/pkg/database"
	"emberveil-engine/pkg/middleware"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, engines *economy.Engines, runner *scheduler.Runner, cfg *config.Config) {
	// Initialize middleware
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(database.GetDB())

	// Initialize economy handlers
	hub := GetWebSocketHub()
	economyHandlers := NewEconomyHandlers(engines, runner, hub, cfg)
	SetEconomyHandlers(economyHandlers)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "emberveil-engine",
			"version": "1.0.0",
		})
	})

	// Setup Swagger documentation
	setupSwagger(router)

	// Apply global rate limiting to all routes
	router.Use(rateLimitMiddleware.IPRateLimit(middleware.DefaultRateLimit))

	// API version group
	v1 := router.Group("/api/v1")
	{
		// Resource endpoints
		resources := v1.Group("/resources")
		{
			resources.POST("", economyHandlers.CreateResource)
			resources.GET("/:resourceId", economyHandlers.GetResource)
			resources.PUT("/:resourceId", UpdateResource)
			resources.POST("/:resourceId/adjust", economyHandlers.AdjustResourceAmount)
			resources.DELETE("/:resourceId", economyHandlers.DeleteResource)
			resources.POST("/transfer", economyHandlers.TransferResource)
			resources.GET("/:resourceId/trends", economyHandlers.GetPriceTrends)
			resources.GET("/:resourceId/futures", GetOpenFutures)
			resources.GET("/:resourceId/forecast", economyHandlers.ForecastFuturePrices)
		}

		// Region endpoints
		regions := v1.Group("/regions")
		{
			regions.GET("/:regionId/resources", economyHandlers.GetRegionResources)
			regions.POST("/:regionId/population-impact", economyHandlers.ApplyPopulationImpact)
			regions.POST("/:regionId/market-conditions", economyHandlers.UpdateMarketConditions)
		}

		// Public market endpoints (higher rate limits)
		markets := v1.Group("/markets")
		markets.Use(rateLimitMiddleware.PublicRateLimit())
		{
			markets.GET("", GetMarkets)
			markets.POST("", economyHandlers.CreateMarket)
			markets.GET("/:marketId", GetMarket)
			markets.GET("/:marketId/price/:resourceId", economyHandlers.GetResourcePrice)
			markets.GET("/:marketId/shop", economyHandlers.GetShopListings)
		}

		// Shop quote endpoints
		shop := v1.Group("/shop")
		{
			shop.POST("/quote/sell", economyHandlers.ShopSellQuote)
			shop.POST("/quote/buy", economyHandlers.ShopBuyQuote)
		}

		// Trade route endpoints
		routes := v1.Group("/trade-routes")
		{
			routes.GET("", GetTradeRoutes)
			routes.POST("", CreateTradeRoute)
			routes.GET("/:routeId", GetTradeRoute)
			routes.PUT("/:routeId/status", UpdateTradeRouteStatus)
			routes.POST("/process", economyHandlers.ProcessTradeRoutes)
		}

		// Futures endpoints
		futures := v1.Group("/futures")
		{
			futures.GET("", GetFutures)
			futures.POST("", economyHandlers.CreateFuture)
			futures.GET("/:futureId", GetFuture)
			futures.POST("/:futureId/match", economyHandlers.MatchFuture)
			futures.POST("/:futureId/settle", economyHandlers.SettleFuture)
			futures.POST("/process-expiring", economyHandlers.ProcessExpiringFutures)
		}

		// Economy tick endpoints
		economyGroup := v1.Group("/economy")
		{
			economyGroup.POST("/tick", economyHandlers.ProcessTick)
			economyGroup.GET("/tick/last", GetLastTickReport)
			economyGroup.GET("/status", economyHandlers.GetEconomyStatus)
		}

		// WebSocket endpoint for real-time data
		ws := v1.Group("/ws")
		{
			ws.GET("", HandleWebSocket)
		}
	}

	// Admin endpoints
	admin := router.Group("/admin")
	{
		admin.GET("/health/database", CheckDatabaseHealth)
		admin.GET("/health/redis", CheckRedisHealth)
		admin.GET("/metrics", GetMetrics)
	}
}
