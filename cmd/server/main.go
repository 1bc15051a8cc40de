package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"emberveil-engine/internal/economy"
	"emberveil-engine/internal/scheduler"
	"emberveil-engine/pkg/api"
	"emberveil-engine/pkg/cache"
	"emberveil-engine/pkg/config"
	"emberveil-engine/pkg/database"
	"emberveil-engine/pkg/models"
	"emberveil-engine/pkg/repository"
	"emberveil-engine/pkg/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup logging
	setupLogging(cfg)

	logrus.Info("Starting Emberveil Engine...")

	// Initialize database
	if err := database.Initialize(cfg); err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Run database migrations
	if err := database.AutoMigrate(); err != nil {
		logrus.Fatalf("Failed to run database migrations: %v", err)
	}

	// Seed initial data
	if cfg.IsDevelopment() && cfg.Economy.SeedData {
		if err := database.SeedData(); err != nil {
			logrus.Fatalf("Failed to seed database: %v", err)
		}
	}

	// Initialize Redis cache
	if err := cache.Initialize(cfg); err != nil {
		logrus.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer cache.Close()

	// Start WebSocket hub
	hub := api.GetWebSocketHub()
	go hub.Run(context.Background())

	// Wire the economy engines
	engines, runner := buildEconomy(cfg, hub)

	// Setup HTTP server
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	// In production, specify allowed origins instead of allowing all
	if cfg.IsDevelopment() {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{
			"https://yourdomain.com", // Replace with your actual domain
			"https://www.yourdomain.com",
		}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
	}
	corsConfig.ExposeHeaders = []string{
		"X-RateLimit-Limit",
		"X-RateLimit-Remaining",
		"X-RateLimit-Reset",
	}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Initialize API routes
	api.SetupRoutes(router, engines, runner, cfg)

	// Start the tick scheduler
	runner.Start()
	defer runner.Stop()

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		logrus.Infof("Emberveil Engine server starting on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down Emberveil Engine...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Emberveil Engine stopped successfully")
}

// buildEconomy wires repositories, publishers and engines together.
func buildEconomy(cfg *config.Config, hub *websocket.WebSocketHub) (*economy.Engines, *scheduler.Runner) {
	logger := logrus.StandardLogger()
	db := database.GetDB()

	resourceRepo := repository.NewResourceRepo(db)
	marketRepo := repository.NewMarketRepo(db)
	routeRepo := repository.NewTradeRouteRepo(db)
	futureRepo := repository.NewFutureRepo(db)
	listingRepo := repository.NewShopListingRepo(db)

	publisher := economy.MultiPublisher{
		cache.NewEventPublisher(),
		websocket.NewEventPublisher(hub),
		&economy.LogPublisher{Logger: logger},
	}

	store := economy.NewResourceStore(resourceRepo, publisher, logger)
	pricing := economy.NewPricingEngine(resourceRepo, marketRepo, publisher, logger)
	trades := economy.NewTradeProcessor(routeRepo, marketRepo, store, pricing, publisher, logger,
		models.DecimalFromString(cfg.Economy.DefaultRouteVolume))
	futures := economy.NewFuturesEngine(futureRepo, resourceRepo, marketRepo, pricing, publisher, logger)
	shop := economy.NewShopPricer(pricing, economy.ShopPricingConfig{
		BuyFromPlayerRatio: cfg.Economy.ShopBuyRatio,
		SellMarkup:         cfg.Economy.ShopSellMarkup,
	}, logger)

	modifiers := economy.NewRandomModifierGenerator(cfg.Economy.ModifierSeed)
	coordinator := economy.NewTickCoordinator(trades, pricing, futures, marketRepo, modifiers, publisher, logger)

	runner, err := scheduler.NewRunner(cfg.Economy.TickCron, coordinator, logger)
	if err != nil {
		logrus.Fatalf("Failed to create tick scheduler: %v", err)
	}

	return &economy.Engines{
		Store:       store,
		Pricing:     pricing,
		Trades:      trades,
		Futures:     futures,
		Coordinator: coordinator,
		Shop:        shop,
		Listings:    listingRepo,
	}, runner
}

func setupLogging(cfg *config.Config) {
	// Set log format
	logrus.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})

	// Set log level
	if cfg.IsDevelopment() {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}

	logrus.Info("Logging initialized")
}
